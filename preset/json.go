package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cwbudde/algo-series/series"
)

// File is the JSON schema for synth presets. Every field is optional and
// layered on top of the defaults.
type File struct {
	GainDB         *float32 `json:"gain_db"`
	Attack         *float32 `json:"attack"`
	Hold           *float32 `json:"hold"`
	Decay          *float32 `json:"decay"`
	Sustain        *float32 `json:"sustain"`
	Release        *float32 `json:"release"`
	FreqMultiply   *int     `json:"freq_multiply"`
	FreqDivide     *int     `json:"freq_divide"`
	Cents          *int     `json:"cents"`
	Noise          *float32 `json:"noise"`
	HigherWaveform string   `json:"higher_waveform,omitempty"`
	LFORate        *float32 `json:"lfo_rate"`
	LFOAmount      *float32 `json:"lfo_amount"`
	LFODest        string   `json:"lfo_dest,omitempty"`
	AmpWidth       string   `json:"amp_width,omitempty"`
	VelocityAmount *float32 `json:"velocity_amount"`

	// Harmonics maps 1-based harmonic numbers to coefficients. Unlisted
	// harmonics keep their current value.
	Harmonics map[string]float32 `json:"harmonics,omitempty"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*series.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	p := series.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object and
// validates the result.
func ApplyFile(dst *series.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	setF := func(dst *float32, v *float32) {
		if v != nil {
			*dst = *v
		}
	}
	setI := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setF(&dst.GainDB, f.GainDB)
	setF(&dst.Attack, f.Attack)
	setF(&dst.Hold, f.Hold)
	setF(&dst.Decay, f.Decay)
	setF(&dst.Sustain, f.Sustain)
	setF(&dst.Release, f.Release)
	setI(&dst.FreqMultiply, f.FreqMultiply)
	setI(&dst.FreqDivide, f.FreqDivide)
	setI(&dst.Cents, f.Cents)
	setF(&dst.Noise, f.Noise)
	setF(&dst.LFORate, f.LFORate)
	setF(&dst.LFOAmount, f.LFOAmount)
	setF(&dst.VelocityAmount, f.VelocityAmount)

	if f.HigherWaveform != "" {
		w, err := series.ParseWaveform(f.HigherWaveform)
		if err != nil {
			return fmt.Errorf("higher_waveform: %w", err)
		}
		dst.HigherWaveform = w
	}
	if f.LFODest != "" {
		d, err := series.ParseLFODest(f.LFODest)
		if err != nil {
			return fmt.Errorf("lfo_dest: %w", err)
		}
		dst.LFODest = d
	}
	if f.AmpWidth != "" {
		a, err := series.ParseAmpWidth(f.AmpWidth)
		if err != nil {
			return fmt.Errorf("amp_width: %w", err)
		}
		dst.AmpWidth = a
	}

	keys := make([]string, 0, len(f.Harmonics))
	for k := range f.Harmonics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 || n > series.HarmonicsCount {
			return fmt.Errorf("invalid harmonics key %q (expected 1..%d)", k, series.HarmonicsCount)
		}
		dst.Harmonics[n-1] = f.Harmonics[k]
	}

	return dst.Validate()
}

// FromParams converts params into a fully populated preset file.
func FromParams(p *series.Params) *File {
	f32 := func(v float32) *float32 { return &v }
	i := func(v int) *int { return &v }
	f := &File{
		GainDB:         f32(p.GainDB),
		Attack:         f32(p.Attack),
		Hold:           f32(p.Hold),
		Decay:          f32(p.Decay),
		Sustain:        f32(p.Sustain),
		Release:        f32(p.Release),
		FreqMultiply:   i(p.FreqMultiply),
		FreqDivide:     i(p.FreqDivide),
		Cents:          i(p.Cents),
		Noise:          f32(p.Noise),
		HigherWaveform: p.HigherWaveform.String(),
		LFORate:        f32(p.LFORate),
		LFOAmount:      f32(p.LFOAmount),
		LFODest:        p.LFODest.String(),
		AmpWidth:       p.AmpWidth.String(),
		VelocityAmount: f32(p.VelocityAmount),
		Harmonics:      make(map[string]float32),
	}
	for n, h := range p.Harmonics {
		if h != 0 || n == 0 {
			f.Harmonics[strconv.Itoa(n+1)] = h
		}
	}
	return f
}

// SaveJSON writes params as an indented preset file. Zero upper harmonics are
// omitted; they load back as zero because only the fundamental has a non-zero
// default.
func SaveJSON(path string, p *series.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
