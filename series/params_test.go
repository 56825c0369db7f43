package series

import (
	"math"
	"strings"
	"testing"
)

func TestDefaultParamsAreValid(t *testing.T) {
	if err := NewDefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestParamsValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
		field  string
	}{
		{"gain", func(p *Params) { p.GainDB = 3 }, "gain"},
		{"attack", func(p *Params) { p.Attack = -0.1 }, "attack"},
		{"sustain", func(p *Params) { p.Sustain = 1.5 }, "sustain"},
		{"divide", func(p *Params) { p.FreqDivide = 0 }, "divide"},
		{"cents", func(p *Params) { p.Cents = 101 }, "cents"},
		{"lfo rate", func(p *Params) { p.LFORate = 60 }, "lfo"},
		{"harmonic", func(p *Params) { p.Harmonics[4] = 2 }, "harmonic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewDefaultParams()
			tc.mutate(p)
			err := p.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(strings.ToLower(err.Error()), tc.field) {
				t.Fatalf("error %q does not name %q", err, tc.field)
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if w, err := ParseWaveform("saw"); err != nil || w != WaveformSawtooth {
		t.Fatalf("ParseWaveform(saw) = %v, %v", w, err)
	}
	if _, err := ParseWaveform("sine"); err == nil {
		t.Fatalf("expected error for unknown waveform")
	}
	if d, err := ParseLFODest("gain"); err != nil || d != LFOGain {
		t.Fatalf("ParseLFODest(gain) = %v, %v", d, err)
	}
	if a, err := ParseAmpWidth("1/n^2"); err != nil || a != AmpWidthInverseSquare {
		t.Fatalf("ParseAmpWidth(1/n^2) = %v, %v", a, err)
	}
}

func TestTuningHelpers(t *testing.T) {
	if got := midiNoteToFreq(69); got != 440 {
		t.Fatalf("A4: got=%f", got)
	}
	if got := midiNoteToFreq(57); math.Abs(float64(got-220)) > 1e-3 {
		t.Fatalf("A3: got=%f", got)
	}
	if got := centsToRatio(0); got != 1 {
		t.Fatalf("0 cents: got=%f", got)
	}
	if got := centsToRatio(1200); math.Abs(float64(got-2)) > 1e-5 {
		t.Fatalf("1200 cents: got=%f", got)
	}
	if got := dbToGain(-20); math.Abs(float64(got-0.1)) > 2e-3 {
		t.Fatalf("-20 dB: got=%f", got)
	}
}

func TestOscillatorAndLFOWrap(t *testing.T) {
	var o Oscillator
	for i := 0; i < 1000; i++ {
		o.Advance(0.37)
		if p := o.Phase(); p < 0 || p >= 1 {
			t.Fatalf("phase out of range: %f", p)
		}
	}

	var l LFO
	for i := 0; i < 1000; i++ {
		v := l.Advance(7, 100)
		if l.Phase() < 0 || l.Phase() >= 1 || v < -1 || v > 1 {
			t.Fatalf("lfo out of range: phase=%f value=%f", l.Phase(), v)
		}
	}
	if pitch, gain := Modulation(LFONone, 1, 1); pitch != 1 || gain != 1 {
		t.Fatalf("none routing: %f %f", pitch, gain)
	}
	if pitch, gain := Modulation(LFOGain, 0.5, -1); pitch != 1 || gain != 0.5 {
		t.Fatalf("gain routing: %f %f", pitch, gain)
	}
}
