package series

import "maze.io/x/math32"

// LFO is the engine-wide low-frequency oscillator. It advances once per
// sample regardless of how many voices are sounding.
type LFO struct {
	phase float32
	value float32
}

// Advance steps the LFO by rate/sampleRate cycles and returns sin(2*pi*phase).
func (l *LFO) Advance(rate, sampleRate float32) float32 {
	if sampleRate > 0 && rate != 0 {
		l.phase = wrapPhase(l.phase + rate/sampleRate)
	}
	l.value = math32.Sin(twoPi * l.phase)
	return l.value
}

// Value returns the most recent LFO output.
func (l *LFO) Value() float32 {
	return l.value
}

// Phase returns the current LFO phase in [0,1).
func (l *LFO) Phase() float32 {
	return l.phase
}

// Reset zeroes the LFO phase.
func (l *LFO) Reset() {
	l.phase = 0
	l.value = 0
}

// Modulation splits an LFO value into pitch and gain factors. The
// destinations are exclusive; the unused path is always 1.
func Modulation(dest LFODest, amount, value float32) (pitch, gain float32) {
	m := 1 + amount*value
	switch dest {
	case LFOPitch:
		return m, 1
	case LFOGain:
		return 1, m
	default:
		return 1, 1
	}
}
