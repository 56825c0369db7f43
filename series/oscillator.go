package series

// Oscillator is a normalized phase accumulator. The phase is kept in [0,1)
// and only scaled by 2*pi when a partial is evaluated.
type Oscillator struct {
	phase float32
}

// Phase returns the current phase in [0,1).
func (o *Oscillator) Phase() float32 {
	return o.phase
}

// Advance moves the phase by delta cycles and wraps it.
func (o *Oscillator) Advance(delta float32) {
	o.phase += delta
	if o.phase >= 1 || o.phase < 0 {
		o.phase = wrapPhase(o.phase)
	}
}

// Reset puts the phase back to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}
