package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-series/internal/fitcommon"
	"github.com/cwbudde/algo-series/series"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
}

type candidate struct {
	Vals []float64
}

type knobOptions struct {
	harmonics int // fitted partials, 1..31
	envelope  bool
	noise     bool
	ampWidth  bool
	waveform  bool
}

const harmonicPrefix = "harmonic."

// initCandidate builds the knob set and seeds it from the base preset.
func initCandidate(base *series.Params, opt knobOptions) ([]knobDef, candidate) {
	n := opt.harmonics
	if n < 1 || n > series.HarmonicsCount {
		n = series.HarmonicsCount
	}

	var defs []knobDef
	var vals []float64
	add := func(d knobDef, v float64) {
		defs = append(defs, d)
		vals = append(vals, fitcommon.Clamp(v, d.Min, d.Max))
	}

	for i := 0; i < n; i++ {
		add(knobDef{Name: harmonicPrefix + strconv.Itoa(i+1), Min: -1, Max: 1}, float64(base.Harmonics[i]))
	}
	if opt.envelope {
		add(knobDef{Name: "attack", Min: 0, Max: 0.5}, float64(base.Attack))
		add(knobDef{Name: "decay", Min: 0, Max: 1}, float64(base.Decay))
		add(knobDef{Name: "sustain", Min: 0, Max: 1}, float64(base.Sustain))
		add(knobDef{Name: "release", Min: 0, Max: 1}, float64(base.Release))
	}
	if opt.noise {
		add(knobDef{Name: "noise", Min: 0, Max: 0.25}, float64(base.Noise))
	}
	if opt.ampWidth {
		add(knobDef{Name: "amp_width", Min: 0, Max: float64(series.AmpWidthInverseSquare), IsInt: true}, float64(base.AmpWidth))
	}
	if opt.waveform {
		add(knobDef{Name: "higher_waveform", Min: 0, Max: float64(series.WaveformSquare), IsInt: true}, float64(base.HigherWaveform))
	}
	return defs, candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's knob values.
func applyCandidate(base *series.Params, defs []knobDef, c candidate) (*series.Params, error) {
	p := *base
	for i, d := range defs {
		v := fitcommon.Clamp(c.Vals[i], d.Min, d.Max)
		if d.IsInt {
			v = math.Round(v)
		}
		switch d.Name {
		case "attack":
			p.Attack = float32(v)
		case "decay":
			p.Decay = float32(v)
		case "sustain":
			p.Sustain = float32(v)
		case "release":
			p.Release = float32(v)
		case "noise":
			p.Noise = float32(v)
		case "amp_width":
			p.AmpWidth = series.AmpWidth(v)
		case "higher_waveform":
			p.HigherWaveform = series.Waveform(v)
		default:
			k, ok := harmonicIndex(d.Name)
			if !ok {
				return nil, fmt.Errorf("unknown knob %q", d.Name)
			}
			p.Harmonics[k] = float32(v)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func harmonicIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, harmonicPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, harmonicPrefix))
	if err != nil || n < 1 || n > series.HarmonicsCount {
		return 0, false
	}
	return n - 1, true
}

func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i := range defs {
		x := 0.0
		if i < len(pos) {
			x = fitcommon.Clamp(pos[i], 0, 1)
		}
		v := defs[i].Min + x*(defs[i].Max-defs[i].Min)
		if defs[i].IsInt {
			v = math.Round(v)
		}
		vals[i] = v
	}
	return candidate{Vals: vals}
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}
