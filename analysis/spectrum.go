package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// zeroPad is the FFT oversampling factor used to keep peak picking close to
// the true partial amplitude.
const zeroPad = 4

// Spectrum is a single-sided magnitude spectrum scaled so that a sinusoid of
// amplitude A peaks at A.
type Spectrum struct {
	SampleRate int
	BinHz      float64
	Mag        []float64
}

// NewSpectrum computes a Hann-windowed, zero-padded magnitude spectrum of x.
func NewSpectrum(x []float64, sampleRate int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	if len(x) < 16 {
		return nil, fmt.Errorf("need at least 16 samples, got %d", len(x))
	}
	size := nextPow2(len(x)) * zeroPad
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	buf := make([]float64, size)
	var wsum float64
	for i, v := range x {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(x)-1))
		buf[i] = v * w
		wsum += w
	}
	spec := make([]complex128, size/2+1)
	plan.Forward(spec, buf)

	mag := make([]float64, len(spec))
	scale := 2 / wsum
	for k, c := range spec {
		mag[k] = cmplx.Abs(c) * scale
	}
	return &Spectrum{
		SampleRate: sampleRate,
		BinHz:      float64(sampleRate) / float64(size),
		Mag:        mag,
	}, nil
}

// PeakNear returns the largest magnitude within spanHz of centerHz.
func (s *Spectrum) PeakNear(centerHz, spanHz float64) float64 {
	lo := int(math.Floor((centerHz - spanHz) / s.BinHz))
	hi := int(math.Ceil((centerHz + spanHz) / s.BinHz))
	if lo < 1 {
		lo = 1
	}
	if hi > len(s.Mag)-1 {
		hi = len(s.Mag) - 1
	}
	peak := 0.0
	for k := lo; k <= hi; k++ {
		if s.Mag[k] > peak {
			peak = s.Mag[k]
		}
	}
	return peak
}

// HarmonicProfile measures the amplitude of the first count harmonics of f0.
// Harmonics above Nyquist read as 0.
func HarmonicProfile(x []float64, sampleRate int, f0 float64, count int) ([]float64, error) {
	if f0 <= 0 {
		return nil, fmt.Errorf("fundamental must be > 0")
	}
	s, err := NewSpectrum(x, sampleRate)
	if err != nil {
		return nil, err
	}
	return s.Harmonics(f0, count), nil
}

// Harmonics reads the first count harmonic amplitudes of f0 from the spectrum.
func (s *Spectrum) Harmonics(f0 float64, count int) []float64 {
	out := make([]float64, count)
	nyquist := float64(s.SampleRate) / 2
	for i := range out {
		f := f0 * float64(i+1)
		if f >= nyquist {
			break
		}
		out[i] = s.PeakNear(f, f0/4)
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
