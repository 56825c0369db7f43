package series

import (
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

func TestEventFromMIDI(t *testing.T) {
	tests := []struct {
		name string
		msg  midi.Message
		want Event
		ok   bool
	}{
		{"note on", midi.NoteOn(0, 60, 127), NoteOnAt(5, 60, 1), true},
		{"note on other channel", midi.NoteOn(9, 36, 0), NoteOffAt(5, 36), true},
		{"note off", midi.NoteOff(3, 72), NoteOffAt(5, 72), true},
		{"poly pressure", midi.PolyAfterTouch(0, 64, 0), PolyPressureAt(5, 64, 0), true},
		{"control change", midi.ControlChange(0, 64, 127), Event{}, false},
		{"pitch bend", midi.Pitchbend(0, 100), Event{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := EventFromMIDI(tc.msg, 5)
			if ok != tc.ok {
				t.Fatalf("ok: got=%v want=%v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("event: got=%s want=%s", got, tc.want)
			}
		})
	}
}

func TestEventFromMIDIScalesVelocity(t *testing.T) {
	ev, ok := EventFromMIDI(midi.NoteOn(0, 60, 64), 0)
	if !ok || ev.Kind != NoteOn {
		t.Fatalf("unexpected decode: %s ok=%v", ev, ok)
	}
	if want := float32(64) / 127; ev.Value != want {
		t.Fatalf("velocity: got=%f want=%f", ev.Value, want)
	}
}

func TestEventKindString(t *testing.T) {
	if got := PolyPressure.String(); got != "PolyPressure" {
		t.Fatalf("got=%q", got)
	}
	if got := EventKind(9).String(); got != "EventKind(9)" {
		t.Fatalf("got=%q", got)
	}
}
