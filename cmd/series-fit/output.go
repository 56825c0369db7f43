package main

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-series/analysis"
	"github.com/cwbudde/algo-series/internal/fitcommon"
	"github.com/cwbudde/algo-series/preset"
)

type runReport struct {
	ReferencePath   string             `json:"reference_path"`
	PresetPath      string             `json:"preset_path"`
	OutputPreset    string             `json:"output_preset"`
	SampleRate      int                `json:"sample_rate"`
	Note            int                `json:"note"`
	DurationSec     float64            `json:"elapsed_seconds"`
	Evaluations     int                `json:"evaluations"`
	MayflyVariant   string             `json:"mayfly_variant"`
	BestScore       float64            `json:"best_score"`
	BestSimilarity  float64            `json:"best_similarity"`
	BestMetrics     analysis.Metrics   `json:"best_metrics"`
	BestKnobs       map[string]float64 `json:"best_knobs"`
	CheckpointCount int                `json:"checkpoint_count"`
}

func defaultReportPath(outputPreset, reportPath string) string {
	if reportPath != "" {
		return reportPath
	}
	return outputPreset + ".report.json"
}

func writeOutputs(cfg *optimizationConfig, res *optimizationResult) error {
	p, err := applyCandidate(cfg.baseParams, cfg.defs, res.best)
	if err != nil {
		return err
	}
	if err := preset.SaveJSON(cfg.outputPreset, p); err != nil {
		return err
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = res.best.Vals[i]
	}
	rep := runReport{
		ReferencePath:   cfg.referencePath,
		PresetPath:      cfg.presetPath,
		OutputPreset:    cfg.outputPreset,
		SampleRate:      cfg.render.sampleRate,
		Note:            cfg.render.note,
		DurationSec:     res.elapsed,
		Evaluations:     res.evals,
		MayflyVariant:   cfg.mayflyVariant,
		BestScore:       res.bestMetrics.Score,
		BestSimilarity:  res.bestMetrics.Similarity,
		BestMetrics:     res.bestMetrics,
		BestKnobs:       knobs,
		CheckpointCount: res.checkpoints,
	}
	return writeJSON(defaultReportPath(cfg.outputPreset, cfg.reportPath), rep)
}

func writeBestCandidateSnapshot(cfg *optimizationConfig, best candidate) error {
	p, err := applyCandidate(cfg.baseParams, cfg.defs, best)
	if err != nil {
		return err
	}
	_, mono, err := renderCandidate(p, cfg.render)
	if err != nil {
		return err
	}
	return fitcommon.WriteMonoWAV(cfg.writeBestCandidate, mono, cfg.render.sampleRate)
}

// loadCandidateFromReport seeds knobs from a previous run's best_knobs. Knobs
// missing from the report keep their fallback values.
func loadCandidateFromReport(path string, defs []knobDef, fallback candidate) (candidate, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fallback, false, nil
		}
		return fallback, false, err
	}
	var rep runReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return fallback, false, err
	}
	if len(rep.BestKnobs) == 0 {
		return fallback, false, nil
	}

	vals := make([]float64, len(fallback.Vals))
	copy(vals, fallback.Vals)
	updated := false
	for i, d := range defs {
		if v, ok := rep.BestKnobs[d.Name]; ok {
			vals[i] = fitcommon.Clamp(v, d.Min, d.Max)
			if d.IsInt {
				vals[i] = math.Round(vals[i])
			}
			updated = true
		}
	}
	if !updated {
		return fallback, false, nil
	}
	return candidate{Vals: vals}, true, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
