package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-series/series"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesFieldsOnDefaults(t *testing.T) {
	path := writePreset(t, `{
  "gain_db": -6,
  "attack": 0.02,
  "release": 0.4,
  "freq_multiply": 2,
  "cents": -7,
  "higher_waveform": "saw",
  "lfo_dest": "pitch",
  "lfo_rate": 5.5,
  "amp_width": "1/n",
  "harmonics": {"1": 0.5, "3": -0.25, "31": 0.1}
}`)

	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.GainDB != -6 || p.Attack != 0.02 || p.Release != 0.4 {
		t.Fatalf("scalar fields mismatch: %+v", p)
	}
	if p.FreqMultiply != 2 || p.FreqDivide != 1 || p.Cents != -7 {
		t.Fatalf("tuning mismatch: mul=%d div=%d cents=%d", p.FreqMultiply, p.FreqDivide, p.Cents)
	}
	if p.HigherWaveform != series.WaveformSawtooth || p.LFODest != series.LFOPitch || p.AmpWidth != series.AmpWidthInverseLinear {
		t.Fatalf("enum mismatch: %s %s %s", p.HigherWaveform, p.LFODest, p.AmpWidth)
	}
	if p.Harmonics[0] != 0.5 || p.Harmonics[2] != -0.25 || p.Harmonics[30] != 0.1 || p.Harmonics[1] != 0 {
		t.Fatalf("harmonics mismatch: %v", p.Harmonics)
	}
	// Untouched fields keep their defaults.
	if p.Sustain != 1 || p.LFOAmount != 1 {
		t.Fatalf("defaults lost: sustain=%f lfo_amount=%f", p.Sustain, p.LFOAmount)
	}
}

func TestLoadJSONRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"harmonic key", `{"harmonics": {"0": 1}}`},
		{"harmonic key text", `{"harmonics": {"x": 1}}`},
		{"harmonic range", `{"harmonics": {"2": 1.5}}`},
		{"gain range", `{"gain_db": 6}`},
		{"divide zero", `{"freq_divide": 0}`},
		{"waveform", `{"higher_waveform": "sine"}`},
		{"lfo dest", `{"lfo_dest": "filter"}`},
		{"syntax", `{"gain_db": }`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadJSON(writePreset(t, tc.content)); err == nil {
				t.Fatalf("expected error for %s", tc.content)
			}
		})
	}
}

func TestSaveJSONLoadsBack(t *testing.T) {
	p := series.NewDefaultParams()
	p.Harmonics[0] = 0
	p.Harmonics[4] = -0.75
	p.Decay = 0.3
	p.Sustain = 0.25
	p.Noise = 0.1
	p.LFODest = series.LFOGain
	p.AmpWidth = series.AmpWidthInverseSquare
	p.HigherWaveform = series.WaveformTriangle

	path := filepath.Join(t.TempDir(), "nested", "out.json")
	if err := SaveJSON(path, p); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	got, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if *got != *p {
		t.Fatalf("loaded preset differs:\n got=%+v\nwant=%+v", got, p)
	}
}

func TestApplyFileNilHandling(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	p := series.NewDefaultParams()
	if err := ApplyFile(p, nil); err != nil {
		t.Fatalf("nil file: %v", err)
	}
}
