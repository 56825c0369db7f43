package series

import (
	"math"

	"github.com/cwbudde/algo-approx"
	"maze.io/x/math32"
)

const (
	twoPi = float32(2 * math.Pi)

	// epsilon gates zero-length envelope stages, noise and the Nyquist limit.
	epsilon = float32(1.1920929e-07)
)

// midiNoteToFreq converts a MIDI note number to frequency in Hz (A4 = 69 = 440 Hz).
func midiNoteToFreq(note int) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	return a4Freq * math32.Pow(2, float32(note-a4Note)/12.0)
}

// centsToRatio converts a pitch offset in cents to a frequency ratio.
func centsToRatio(cents int) float32 {
	if cents == 0 {
		return 1
	}
	return math32.Pow(2, float32(cents)/1200.0)
}

// dbToGain converts decibels to a linear amplitude factor.
func dbToGain(db float32) float32 {
	const ln10Over20 = 0.11512925464970228
	return approx.FastExp(db * ln10Over20)
}

// wrapPhase folds x into [0,1).
func wrapPhase(x float32) float32 {
	x -= math32.Floor(x)
	if x >= 1 || x < 0 {
		return 0
	}
	return x
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
