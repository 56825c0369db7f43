package series

import "maze.io/x/math32"

// Scale returns the amplitude-width factor for 0-based harmonic index i.
func (a AmpWidth) Scale(i int) float32 {
	n := float32(i + 1)
	switch a {
	case AmpWidthInverseLinear:
		return 1.0 / n
	case AmpWidthInverseSquare:
		return 1.0 / (n * n)
	default:
		return 1.0
	}
}

// HarmonicSeries holds the effective per-harmonic weights for one sample:
// the explicit coefficient multiplied by the amplitude-width factor.
type HarmonicSeries struct {
	weights [HarmonicsCount]float32
	top     int // one past the highest non-zero weight
}

// Update resolves the weights from a coefficient table and width mode.
func (h *HarmonicSeries) Update(coefs *[HarmonicsCount]float32, mode AmpWidth) {
	h.top = 0
	for i, c := range coefs {
		w := mode.Scale(i) * c
		h.weights[i] = w
		if w != 0 {
			h.top = i + 1
		}
	}
}

// Weight returns the effective weight of 0-based harmonic index i.
func (h *HarmonicSeries) Weight(i int) float32 {
	if i < 0 || i >= HarmonicsCount {
		return 0
	}
	return h.weights[i]
}

// Sum evaluates the explicit series at the given oscillator phase in [0,1).
func (h *HarmonicSeries) Sum(phase float32) float32 {
	var wave float32
	for i := 0; i < h.top; i++ {
		w := h.weights[i]
		if w == 0 {
			continue
		}
		wave += w * partial(i+1, phase)
	}
	return wave
}

// partial returns sin(2*pi*k*phase) with the argument reduced to one cycle first.
func partial(k int, phase float32) float32 {
	return math32.Sin(twoPi * wrapPhase(float32(k)*phase))
}

// nyquistLimit returns floor(sampleRate/freq), or 0 when freq is too small
// for the division to be meaningful.
func nyquistLimit(sampleRate, freq float32) int {
	if freq <= epsilon || sampleRate <= 0 {
		return 0
	}
	limit := math32.Floor(sampleRate / freq)
	if limit > 1<<20 {
		return 1 << 20
	}
	return int(limit)
}

// higherHarmonics extends the explicit table with a closed-form series bounded
// by limit = floor(sampleRate/freq). Square and triangle stop at limit/2;
// sawtooth runs up to limit itself.
func higherHarmonics(w Waveform, phase, freq, sampleRate float32) float32 {
	if w == WaveformNone {
		return 0
	}
	limit := nyquistLimit(sampleRate, freq)
	half := limit >> 1
	var wave float32
	switch w {
	case WaveformSquare:
		for k := HarmonicsCount >> 1; k < half; k++ {
			if k == 0 {
				continue
			}
			wave += (1.0 / (2.0 * float32(k))) * partial(k, phase)
		}
	case WaveformTriangle:
		for k := HarmonicsCount >> 1; k < half; k++ {
			if k == 0 {
				continue
			}
			a := 1.0 / (2.0 * float32(k))
			if k%2 == 0 {
				a = -a
			}
			wave += a * (1.0 / (2.0 * float32(k))) * partial(k, phase)
		}
	case WaveformSawtooth:
		for k := HarmonicsCount + 1; k < limit; k++ {
			wave += (1.0 / float32(k)) * partial(k, phase)
		}
	}
	return wave
}
