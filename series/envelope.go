package series

import "fmt"

// Stage is the AHDSR envelope state.
type Stage uint8

const (
	StageAttack Stage = iota
	StageHold
	StageDecay
	StageSustain
	StageRelease
	// StageDead is a forced release entered when the note is retriggered.
	StageDead
)

var stageNames = [...]string{
	StageAttack:  "A",
	StageHold:    "H",
	StageDecay:   "D",
	StageSustain: "S",
	StageRelease: "R",
	StageDead:    "X",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// Releasing reports whether the stage follows the release law.
func (s Stage) Releasing() bool {
	return s == StageRelease || s == StageDead
}

// Envelope is a per-voice attack-hold-decay-sustain-release generator driven by
// a fixed time step. Timings are taken from the current parameter snapshot on
// every step.
type Envelope struct {
	stage Stage
	value float32
	hold  float32
}

// Stage returns the current stage.
func (e *Envelope) Stage() Stage {
	return e.stage
}

// Value returns the current envelope level in [0,1].
func (e *Envelope) Value() float32 {
	return e.value
}

// Trigger restarts the envelope from silence in the attack stage.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
	e.value = 0
	e.hold = 0
}

// Release moves into the release stage from the current level.
func (e *Envelope) Release() {
	if e.stage == StageDead {
		return
	}
	e.stage = StageRelease
}

// Kill moves into the forced-release stage from the current level.
func (e *Envelope) Kill() {
	e.stage = StageDead
}

// Finished reports whether the envelope has released down to silence.
func (e *Envelope) Finished() bool {
	return e.stage.Releasing() && e.value <= 0
}

// Step advances the state machine by dt seconds and returns the new level.
func (e *Envelope) Step(dt float32, p *Params) float32 {
	switch e.stage {
	case StageAttack:
		if p.Attack < epsilon {
			e.value = 1
			e.stage = StageHold
			break
		}
		e.value += dt / p.Attack
		if e.value >= 1 {
			e.value = 1
			e.stage = StageHold
		}
	case StageHold:
		e.hold += dt
		if e.hold+dt >= p.Hold {
			e.stage = StageDecay
		}
	case StageDecay:
		sustain := clampf(p.Sustain, 0, 1)
		if p.Decay < epsilon {
			e.value = sustain
			e.stage = StageSustain
			break
		}
		next := e.value - dt/p.Decay
		if next <= sustain {
			// Land on the sustain level unless it lies above us.
			if e.value > sustain {
				next = sustain
			} else {
				next = e.value
			}
			e.stage = StageSustain
		}
		e.value = next
	case StageSustain:
	case StageRelease, StageDead:
		if p.Release < epsilon {
			e.value = 0
			break
		}
		e.value -= dt / p.Release
		if e.value <= 0 {
			e.value = 0
		}
	}
	return e.value
}
