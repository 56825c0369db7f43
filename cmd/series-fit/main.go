package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-series/analysis"
	"github.com/cwbudde/algo-series/internal/fitcommon"
	"github.com/cwbudde/algo-series/preset"
	"github.com/cwbudde/algo-series/series"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (defaults when empty)")
	outputPreset := flag.String("output-preset", "assets/presets/fitted.json", "Path to write best fitted preset JSON")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	note := flag.Int("note", 69, "MIDI note of the reference")
	velocity := flag.Int("velocity", 100, "MIDI velocity used for candidate renders")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	duration := flag.Float64("duration", 1.5, "Candidate render duration in seconds")
	releaseAfter := flag.Float64("release-after", 1.0, "NoteOff time in seconds for candidate renders")
	harmonics := flag.Int("harmonics", series.HarmonicsCount, "Number of harmonic coefficients to fit (1-31)")
	fitEnvelope := flag.Bool("fit-envelope", false, "Also fit attack, decay, sustain and release")
	fitNoise := flag.Bool("fit-noise", false, "Also fit the noise level")
	fitAmpWidth := flag.Bool("fit-amp-width", false, "Also fit the amplitude-width mode")
	fitWaveform := flag.Bool("fit-waveform", false, "Also fit the higher-harmonics waveform")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 5000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations")
	checkpointEvery := flag.Int("checkpoint-every", 1, "Write checkpoint every N best-score improvements")
	writeBestCandidate := flag.String("write-best-candidate", "", "Optional WAV path to write best candidate render")
	resume := flag.Bool("resume", true, "Resume from previous best_knobs report when available")
	workersFlag := flag.String("workers", "auto", "Parallel optimization workers (auto or integer)")

	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *note < 0 || *note > series.MaxNote {
		die("note must be in [0,%d]", series.MaxNote)
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	workers, err := fitcommon.ParseWorkers(*workersFlag)
	if err != nil {
		die("invalid workers: %v", err)
	}

	baseParams := series.NewDefaultParams()
	if *presetPath != "" {
		if baseParams, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}

	ref, err := fitcommon.ReadWAVMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	defs, initCand := initCandidate(baseParams, knobOptions{
		harmonics: *harmonics,
		envelope:  *fitEnvelope,
		noise:     *fitNoise,
		ampWidth:  *fitAmpWidth,
		waveform:  *fitWaveform,
	})
	if *resume {
		resumePath := defaultReportPath(*outputPreset, *reportPath)
		if resumed, ok, err := loadCandidateFromReport(resumePath, defs, initCand); err != nil {
			fmt.Fprintf(os.Stderr, "resume skipped (%s): %v\n", resumePath, err)
		} else if ok {
			initCand = resumed
			fmt.Printf("Resumed candidate from %s\n", resumePath)
		}
	}

	cfg := &optimizationConfig{
		reference:     ref,
		baseParams:    baseParams,
		defs:          defs,
		initCandidate: initCand,
		render: renderConfig{
			note:         *note,
			velocity:     float32(fitcommon.Clamp(float64(*velocity)/127, 0, 1)),
			sampleRate:   *sampleRate,
			duration:     *duration,
			releaseAfter: *releaseAfter,
			seed:         *seed,
		},
		compare: analysis.Options{
			FundamentalHz: noteToHz(*note),
			Harmonics:     series.HarmonicsCount,
			MaxSeconds:    *duration,
		},
		seed:               *seed,
		timeBudget:         *timeBudget,
		maxEvals:           *maxEvals,
		reportEvery:        *reportEvery,
		checkpointEvery:    *checkpointEvery,
		mayflyVariant:      strings.ToLower(*mayflyVariant),
		mayflyPop:          *mayflyPop,
		mayflyRoundEvals:   *mayflyRoundEvals,
		workers:            workers,
		outputPreset:       *outputPreset,
		reportPath:         *reportPath,
		referencePath:      *referencePath,
		presetPath:         *presetPath,
		writeBestCandidate: *writeBestCandidate,
	}

	fmt.Printf("Fitting %d knobs to %s (note %d, %d workers)\n", len(defs), *referencePath, *note, workers)
	res, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}
	if err := writeOutputs(cfg, res); err != nil {
		die("failed to write outputs: %v", err)
	}
	if *writeBestCandidate != "" {
		if err := writeBestCandidateSnapshot(cfg, res.best); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write best candidate wav: %v\n", err)
		}
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		res.evals, res.elapsed, res.bestMetrics.Score, res.bestMetrics.Similarity*100.0, cfg.mayflyVariant)
}
