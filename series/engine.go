package series

import (
	"math/rand"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Engine mixes every active voice into one mono sample per tick and fans it
// out to all output channels. It owns the voice arena and the LFO.
type Engine struct {
	sampleRate float32
	dt         float32
	voices     *VoiceManager
	lfo        LFO
	series     HarmonicSeries
	rng        *rand.Rand
}

// NewEngine creates an engine. maxVoices below 1 selects DefaultMaxVoices.
func NewEngine(sampleRate float32, maxVoices int) *Engine {
	e := &Engine{
		voices: NewVoiceManager(maxVoices, sampleRate),
		rng:    rand.New(rand.NewSource(1)),
	}
	e.SetSampleRate(sampleRate)
	return e
}

// SampleRate returns the current sample rate in Hz.
func (e *Engine) SampleRate() float32 {
	return e.sampleRate
}

// SetSampleRate changes the time step of envelopes, oscillators and the LFO.
// Nothing is reallocated.
func (e *Engine) SetSampleRate(sampleRate float32) {
	if sampleRate <= 0 {
		return
	}
	e.sampleRate = sampleRate
	e.dt = 1 / sampleRate
	e.voices.SetSampleRate(sampleRate)
}

// SetNoiseSeed reseeds the noise generator.
func (e *Engine) SetNoiseSeed(seed int64) {
	e.rng.Seed(seed)
}

// Voices exposes the voice manager.
func (e *Engine) Voices() *VoiceManager {
	return e.voices
}

// LFO exposes the engine LFO.
func (e *Engine) LFO() *LFO {
	return &e.lfo
}

// Reset discards all voices and the LFO phase. Parameters are not touched.
func (e *Engine) Reset() {
	e.voices.Reset()
	e.lfo.Reset()
}

// NoteOn starts a voice for note at the given velocity (0..1).
func (e *Engine) NoteOn(note int, velocity float32) {
	e.voices.NoteOn(note, velocity)
}

// NoteOff releases the most recent voice of note.
func (e *Engine) NoteOff(note int) {
	e.voices.NoteOff(note)
}

// PolyPressure retargets the gain follower of the most recent voice of note.
func (e *Engine) PolyPressure(note int, pressure float32) {
	e.voices.PolyPressure(note, pressure)
}

// Apply dispatches one event immediately, ignoring its offset.
func (e *Engine) Apply(ev Event) {
	e.voices.Apply(ev)
}

// ActiveVoices returns the number of live voices.
func (e *Engine) ActiveVoices() int {
	return e.voices.Len()
}

// VoiceStates appends a snapshot of every live voice to dst.
func (e *Engine) VoiceStates(dst []VoiceState) []VoiceState {
	return e.voices.States(dst)
}

// Tick renders one mono sample using the parameter snapshot p. Voices whose
// release reaches silence during this tick still contribute to it and are
// freed afterwards.
func (e *Engine) Tick(p *Params) float32 {
	pitchMod, gainMod := Modulation(p.LFODest, p.LFOAmount, e.lfo.Advance(p.LFORate, e.sampleRate))
	e.series.Update(&p.Harmonics, p.AmpWidth)

	ratio := centsToRatio(p.Cents)
	if p.FreqDivide != 0 {
		ratio *= float32(p.FreqMultiply) / float32(p.FreqDivide)
	}
	ratio *= pitchMod

	velAmount := clampf(p.VelocityAmount, 0, 1)
	noise := p.Noise

	var mix float32
	slots := e.voices.slots
	for i := range slots {
		v := &slots[i]
		if !v.active {
			continue
		}
		freq := v.freq * ratio
		phase := v.osc.Phase()

		wave := e.series.Sum(phase)
		wave += higherHarmonics(p.HigherWaveform, phase, freq, e.sampleRate)
		if noise > epsilon {
			wave += (e.rng.Float32()*2 - 1) * noise
		}

		v.osc.Advance(freq * e.dt)
		env := v.env.Step(e.dt, p)
		follower := v.gain.Next()

		out := wave * env * gainMod
		if velAmount > 0 {
			out *= 1 - velAmount + velAmount*follower
		}
		mix += out
	}
	e.voices.Cleanup()

	return float32(dspcore.FlushDenormals(float64(mix * dbToGain(p.GainDB))))
}

// ProcessBlock renders len(out[0]) frames into every channel of out. Events
// must be sorted by offset; each is applied right before the sample at its
// offset (negative offsets at the first sample). It returns how many events
// were consumed, leaving those scheduled past the block to the caller.
// params.Next is called exactly once per frame.
func (e *Engine) ProcessBlock(out [][]float32, events []Event, params ParamSource) int {
	if len(out) == 0 {
		return 0
	}
	frames := len(out[0])
	next := 0
	for i := 0; i < frames; i++ {
		for next < len(events) && events[next].Offset <= i {
			e.voices.Apply(events[next])
			next++
		}
		s := e.Tick(params.Next())
		for _, ch := range out {
			if i < len(ch) {
				ch[i] = s
			}
		}
	}
	return next
}
