package series

import "github.com/cwbudde/algo-series/dsp"

// velocitySmoothingMs is the ramp time of the per-voice velocity/pressure follower.
const velocitySmoothingMs = 5.0

// Voice is one sounding (or releasing) instance of a note. Voices live in the
// VoiceManager arena and are linked into a per-note list, newest first.
type Voice struct {
	note int
	freq float32
	osc  Oscillator
	env  Envelope
	gain dsp.LinearSmoother
	born uint64

	gen    uint32
	active bool
	newer  int32
	older  int32
}

func (v *Voice) start(note int, velocity float32, sampleRate float32, born uint64) {
	v.note = note
	v.freq = midiNoteToFreq(note)
	v.osc.Reset()
	v.env.Trigger()
	v.gain = dsp.NewLinearSmoother(velocitySmoothingMs, 0)
	v.gain.SetTarget(sampleRate, velocity)
	v.born = born
	v.active = true
	v.newer = -1
	v.older = -1
}

// Note returns the MIDI note number.
func (v *Voice) Note() int { return v.note }

// Frequency returns the note frequency in Hz fixed at creation.
func (v *Voice) Frequency() float32 { return v.freq }

// Stage returns the envelope stage.
func (v *Voice) Stage() Stage { return v.env.Stage() }

// Envelope returns the current envelope level.
func (v *Voice) Envelope() float32 { return v.env.Value() }

// Phase returns the oscillator phase.
func (v *Voice) Phase() float32 { return v.osc.Phase() }

// Gain returns the current value of the velocity/pressure follower.
func (v *Voice) Gain() float32 { return v.gain.Value() }

// VoiceState is a read-only diagnostic copy of a voice.
type VoiceState struct {
	ID       VoiceID
	Note     int
	Stage    Stage
	Envelope float32
	Phase    float32
	Gain     float32
}
