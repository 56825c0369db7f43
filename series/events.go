package series

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// EventKind is the type of a note event.
type EventKind uint8

const (
	NoteOn EventKind = iota + 1
	NoteOff
	PolyPressure
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case PolyPressure:
		return "PolyPressure"
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// Event is a note event scheduled at a sample offset within a block. Value is
// the velocity for NoteOn and the pressure for PolyPressure, both 0..1.
type Event struct {
	Offset int
	Kind   EventKind
	Note   int
	Value  float32
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOff:
		return fmt.Sprintf("@%d %s note=%d", e.Offset, e.Kind, e.Note)
	default:
		return fmt.Sprintf("@%d %s note=%d value=%.3f", e.Offset, e.Kind, e.Note, e.Value)
	}
}

// NoteOnAt builds a NoteOn event.
func NoteOnAt(offset, note int, velocity float32) Event {
	return Event{Offset: offset, Kind: NoteOn, Note: note, Value: velocity}
}

// NoteOffAt builds a NoteOff event.
func NoteOffAt(offset, note int) Event {
	return Event{Offset: offset, Kind: NoteOff, Note: note}
}

// PolyPressureAt builds a PolyPressure event.
func PolyPressureAt(offset, note int, pressure float32) Event {
	return Event{Offset: offset, Kind: PolyPressure, Note: note, Value: pressure}
}

// EventFromMIDI decodes a MIDI 1.0 channel message. Velocity and pressure are
// scaled from 0..127 to 0..1; a NoteOn with zero velocity is a NoteOff. Other
// message types are reported as not ok.
func EventFromMIDI(msg midi.Message, offset int) (Event, bool) {
	var channel, key, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		return NoteOnAt(offset, int(key), float32(value)/127.0), true
	case msg.GetNoteEnd(&channel, &key):
		return NoteOffAt(offset, int(key)), true
	case msg.GetPolyAfterTouch(&channel, &key, &value):
		return PolyPressureAt(offset, int(key), float32(value)/127.0), true
	}
	return Event{}, false
}
