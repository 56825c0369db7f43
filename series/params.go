package series

import (
	"fmt"
	"strings"
)

// HarmonicsCount is the number of explicit harmonics (1..N) in the series table.
const HarmonicsCount = 31

// Waveform selects the closed-form series used for harmonics past the table.
type Waveform uint8

const (
	WaveformNone Waveform = iota
	WaveformTriangle
	WaveformSawtooth
	WaveformSquare
)

var waveformNames = [...]string{
	WaveformNone:     "none",
	WaveformTriangle: "triangle",
	WaveformSawtooth: "sawtooth",
	WaveformSquare:   "square",
}

func (w Waveform) String() string {
	if int(w) < len(waveformNames) {
		return waveformNames[w]
	}
	return fmt.Sprintf("Waveform(%d)", w)
}

// ParseWaveform parses a waveform name as produced by Waveform.String.
func ParseWaveform(s string) (Waveform, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range waveformNames {
		if v == name {
			return Waveform(i), nil
		}
	}
	if v == "saw" {
		return WaveformSawtooth, nil
	}
	return WaveformNone, fmt.Errorf("unknown waveform %q (valid: none, triangle, sawtooth, square)", s)
}

// LFODest routes the LFO to the pitch path, the gain path or nowhere.
type LFODest uint8

const (
	LFONone LFODest = iota
	LFOPitch
	LFOGain
)

var lfoDestNames = [...]string{
	LFONone:  "none",
	LFOPitch: "pitch",
	LFOGain:  "gain",
}

func (d LFODest) String() string {
	if int(d) < len(lfoDestNames) {
		return lfoDestNames[d]
	}
	return fmt.Sprintf("LFODest(%d)", d)
}

// ParseLFODest parses an LFO destination name.
func ParseLFODest(s string) (LFODest, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range lfoDestNames {
		if v == name {
			return LFODest(i), nil
		}
	}
	return LFONone, fmt.Errorf("unknown lfo destination %q (valid: none, pitch, gain)", s)
}

// AmpWidth rescales each harmonic by a function of its index.
type AmpWidth uint8

const (
	AmpWidthFlat          AmpWidth = iota // 1
	AmpWidthInverseLinear                 // 1/n
	AmpWidthInverseSquare                 // 1/n^2
)

var ampWidthNames = [...]string{
	AmpWidthFlat:          "1",
	AmpWidthInverseLinear: "1/n",
	AmpWidthInverseSquare: "1/n^2",
}

func (a AmpWidth) String() string {
	if int(a) < len(ampWidthNames) {
		return ampWidthNames[a]
	}
	return fmt.Sprintf("AmpWidth(%d)", a)
}

// ParseAmpWidth accepts "1", "1/n", "1/n^2" as well as "flat", "linear", "square".
func ParseAmpWidth(s string) (AmpWidth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "flat", "one":
		return AmpWidthFlat, nil
	case "1/n", "n", "linear":
		return AmpWidthInverseLinear, nil
	case "1/n^2", "1/n2", "n2", "square":
		return AmpWidthInverseSquare, nil
	}
	return AmpWidthFlat, fmt.Errorf("unknown amp width %q (valid: 1, 1/n, 1/n^2)", s)
}

// Params is one resolved parameter snapshot. The engine reads exactly one
// snapshot per sample.
type Params struct {
	GainDB float32 // master gain, -30..0 dB

	// AHDSR timings in seconds; 0 means instant.
	Attack  float32
	Hold    float32
	Decay   float32
	Sustain float32 // level, 0..1
	Release float32

	FreqMultiply int // 1..23
	FreqDivide   int // 1..23
	Cents        int // -100..100

	Noise          float32 // 0..1
	HigherWaveform Waveform

	LFORate   float32 // Hz, 0..50
	LFOAmount float32 // 0..1
	LFODest   LFODest

	AmpWidth  AmpWidth
	Harmonics [HarmonicsCount]float32 // -1..1 each

	// VelocityAmount blends the per-voice velocity/pressure follower into the
	// output. 0 leaves the follower inaudible.
	VelocityAmount float32
}

// NewDefaultParams creates the default patch: a pure fundamental at -10 dB
// with instant envelope stages and full sustain.
func NewDefaultParams() *Params {
	p := &Params{
		GainDB:       -10.0,
		Sustain:      1.0,
		FreqMultiply: 1,
		FreqDivide:   1,
		LFOAmount:    1.0,
	}
	p.Harmonics[0] = 1.0
	return p
}

// Next implements ParamSource for a fixed snapshot.
func (p *Params) Next() *Params {
	return p
}

// Validate checks every field against its allowed range.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if p.GainDB < -30 || p.GainDB > 0 {
		return fmt.Errorf("gain must be in [-30,0] dB, got %g", p.GainDB)
	}
	times := []struct {
		name string
		v    float32
	}{
		{"attack", p.Attack},
		{"hold", p.Hold},
		{"decay", p.Decay},
		{"sustain", p.Sustain},
		{"release", p.Release},
		{"noise", p.Noise},
		{"lfo_amount", p.LFOAmount},
		{"velocity_amount", p.VelocityAmount},
	}
	for _, t := range times {
		if t.v < 0 || t.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %g", t.name, t.v)
		}
	}
	if p.FreqMultiply < 1 || p.FreqMultiply > 23 {
		return fmt.Errorf("freq_multiply must be in [1,23], got %d", p.FreqMultiply)
	}
	if p.FreqDivide < 1 || p.FreqDivide > 23 {
		return fmt.Errorf("freq_divide must be in [1,23], got %d", p.FreqDivide)
	}
	if p.Cents < -100 || p.Cents > 100 {
		return fmt.Errorf("cents must be in [-100,100], got %d", p.Cents)
	}
	if p.LFORate < 0 || p.LFORate > 50 {
		return fmt.Errorf("lfo_rate must be in [0,50] Hz, got %g", p.LFORate)
	}
	if p.HigherWaveform > WaveformSquare {
		return fmt.Errorf("invalid higher waveform %d", p.HigherWaveform)
	}
	if p.LFODest > LFOGain {
		return fmt.Errorf("invalid lfo destination %d", p.LFODest)
	}
	if p.AmpWidth > AmpWidthInverseSquare {
		return fmt.Errorf("invalid amp width %d", p.AmpWidth)
	}
	for i, h := range p.Harmonics {
		if h < -1 || h > 1 {
			return fmt.Errorf("harmonic %d must be in [-1,1], got %g", i+1, h)
		}
	}
	return nil
}
