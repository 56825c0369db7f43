package analysis

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-series/series"
)

func TestHarmonicProfileMeasuresAmplitudes(t *testing.T) {
	const sr = 48000
	want := []float64{1, 0.5, 0.25, 0, 0.1}
	x := makeHarmonicTone(sr, 330, 0.5, want, 0.4)

	got, err := HarmonicProfile(x, sr, 330, len(want)+1)
	if err != nil {
		t.Fatalf("HarmonicProfile: %v", err)
	}
	for i, w := range want {
		if math.Abs(got[i]-w) > 0.02 {
			t.Fatalf("harmonic %d: got=%f want=%f", i+1, got[i], w)
		}
	}
	if got[len(want)] > 0.01 {
		t.Fatalf("absent harmonic reads %f", got[len(want)])
	}
}

func TestHarmonicProfileAboveNyquistIsZero(t *testing.T) {
	x := makeHarmonicTone(8000, 1000, 0.2, []float64{1}, 0)
	got, err := HarmonicProfile(x, 8000, 1000, 6)
	if err != nil {
		t.Fatalf("HarmonicProfile: %v", err)
	}
	for i := 4; i < 6; i++ {
		if got[i] != 0 {
			t.Fatalf("harmonic %d above Nyquist: %f", i+1, got[i])
		}
	}
}

func TestHarmonicProfileRejectsBadInput(t *testing.T) {
	if _, err := HarmonicProfile(make([]float64, 1024), 48000, 0, 4); err == nil {
		t.Fatalf("expected error for zero fundamental")
	}
	if _, err := HarmonicProfile(make([]float64, 4), 48000, 100, 4); err == nil {
		t.Fatalf("expected error for short input")
	}
	if _, err := NewSpectrum(make([]float64, 1024), 0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestHarmonicProfileOfRenderedInverseSquareSeries(t *testing.T) {
	const sr = 48000
	p := series.NewDefaultParams()
	p.GainDB = 0
	p.AmpWidth = series.AmpWidthInverseSquare
	for i := 0; i < 6; i++ {
		p.Harmonics[i] = 1
	}
	e := series.NewEngine(sr, 4)
	e.NoteOn(57, 1) // 220 Hz

	x := make([]float64, sr/2)
	for i := range x {
		x[i] = float64(e.Tick(p))
	}
	prof, err := HarmonicProfile(x, sr, 220, 6)
	if err != nil {
		t.Fatalf("HarmonicProfile: %v", err)
	}
	for i := 1; i < 6; i++ {
		want := 1 / float64((i+1)*(i+1))
		if got := prof[i] / prof[0]; math.Abs(got-want) > 0.01 {
			t.Fatalf("harmonic %d relative amplitude: got=%f want=%f", i+1, got, want)
		}
	}
}
