package dsp

// LinearSmoother ramps from its current value to a target over a fixed time.
// It never allocates and is safe to advance once per sample on the audio path.
type LinearSmoother struct {
	timeMs    float32
	current   float32
	target    float32
	step      float32
	stepsLeft int
}

// NewLinearSmoother creates a smoother with the given ramp time that starts
// (and rests) at initial.
func NewLinearSmoother(timeMs float32, initial float32) LinearSmoother {
	if timeMs < 0 {
		timeMs = 0
	}
	return LinearSmoother{
		timeMs:  timeMs,
		current: initial,
		target:  initial,
	}
}

// SetTarget starts a new ramp towards target. The ramp length is derived from
// the smoother time at the given sample rate; a zero-length ramp jumps.
func (s *LinearSmoother) SetTarget(sampleRate float32, target float32) {
	s.target = target
	steps := int(sampleRate*s.timeMs/1000.0 + 0.5)
	if steps <= 0 {
		s.current = target
		s.step = 0
		s.stepsLeft = 0
		return
	}
	s.step = (target - s.current) / float32(steps)
	s.stepsLeft = steps
}

// Reset jumps to v and cancels any running ramp.
func (s *LinearSmoother) Reset(v float32) {
	s.current = v
	s.target = v
	s.step = 0
	s.stepsLeft = 0
}

// Next advances the ramp by one sample and returns the new value.
func (s *LinearSmoother) Next() float32 {
	if s.stepsLeft > 0 {
		s.current += s.step
		s.stepsLeft--
		if s.stepsLeft == 0 {
			s.current = s.target
		}
	}
	return s.current
}

// Value returns the current value without advancing.
func (s *LinearSmoother) Value() float32 {
	return s.current
}

// Target returns the value the smoother is heading to.
func (s *LinearSmoother) Target() float32 {
	return s.target
}

// IsSmoothing reports whether a ramp is still in progress.
func (s *LinearSmoother) IsSmoothing() bool {
	return s.stepsLeft > 0
}
