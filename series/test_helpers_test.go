package series

import (
	"math"
	"math/cmplx"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
)

// sustainParams returns an instant-attack organ-style patch: only the
// fundamental, no noise, no extra harmonics, full sustain.
func sustainParams() *Params {
	p := NewDefaultParams()
	p.Attack = 0
	p.Hold = 0
	p.Decay = 0
	p.Sustain = 1
	p.Release = 0
	return p
}

func renderTicks(e *Engine, p *Params, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = e.Tick(p)
	}
	return out
}

func maxAbs(x []float32) float64 {
	m := 0.0
	for _, s := range x {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// binMagnitudes returns |X[k]| for a rectangular-window real FFT of x.
func binMagnitudes(t *testing.T, x []float32) []float64 {
	t.Helper()
	n := len(x)
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		t.Fatalf("fft plan: %v", err)
	}
	in := make([]float64, n)
	for i, s := range x {
		in[i] = float64(s)
	}
	spec := make([]complex128, n/2+1)
	plan.Forward(spec, in)
	mags := make([]float64, len(spec))
	for k, c := range spec {
		mags[k] = cmplx.Abs(c)
	}
	return mags
}

func voiceState(t *testing.T, m *VoiceManager, id VoiceID) *Voice {
	t.Helper()
	v, ok := m.Lookup(id)
	if !ok {
		t.Fatalf("voice %+v not found", id)
	}
	return v
}

func noteStages(m *VoiceManager, note int) []Stage {
	var stages []Stage
	for _, s := range m.NoteVoices(note, nil) {
		stages = append(stages, s.Stage)
	}
	return stages
}
