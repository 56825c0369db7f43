package series

import "github.com/cwbudde/algo-series/dsp"

const (
	gainSmoothingMs     = 3.0
	harmonicSmoothingMs = 10.0
)

// ParamSource yields one parameter snapshot per sample. Engine.ProcessBlock
// calls Next exactly once per sample.
type ParamSource interface {
	Next() *Params
}

// Automation turns a target parameter set into per-sample snapshots. Master
// gain and the harmonic coefficients ramp linearly; every other field switches
// immediately.
type Automation struct {
	sampleRate float32
	target     Params
	out        Params
	gain       dsp.LinearSmoother
	harmonics  [HarmonicsCount]dsp.LinearSmoother
}

// NewAutomation creates an automation source resting at p.
func NewAutomation(sampleRate float32, p *Params) *Automation {
	if p == nil {
		p = NewDefaultParams()
	}
	a := &Automation{sampleRate: sampleRate}
	a.target = *p
	a.out = *p
	a.gain = dsp.NewLinearSmoother(gainSmoothingMs, p.GainDB)
	for i := range a.harmonics {
		a.harmonics[i] = dsp.NewLinearSmoother(harmonicSmoothingMs, p.Harmonics[i])
	}
	return a
}

// SetSampleRate changes the rate used for future ramps.
func (a *Automation) SetSampleRate(sampleRate float32) {
	a.sampleRate = sampleRate
}

// Target returns the current target parameters.
func (a *Automation) Target() Params {
	return a.target
}

// SetTarget makes p the new target. Smoothed fields ramp from their current
// value; a field whose target is unchanged keeps its running ramp.
func (a *Automation) SetTarget(p *Params) {
	if p == nil {
		return
	}
	if p.GainDB != a.gain.Target() {
		a.gain.SetTarget(a.sampleRate, p.GainDB)
	}
	for i := range a.harmonics {
		if p.Harmonics[i] != a.harmonics[i].Target() {
			a.harmonics[i].SetTarget(a.sampleRate, p.Harmonics[i])
		}
	}
	a.target = *p
}

// Next advances every smoother by one sample and returns the snapshot. The
// returned pointer stays valid until the next call.
func (a *Automation) Next() *Params {
	a.out = a.target
	a.out.GainDB = a.gain.Next()
	for i := range a.harmonics {
		a.out.Harmonics[i] = a.harmonics[i].Next()
	}
	return &a.out
}
