// Package midifile turns Standard MIDI Files into sample-accurate note
// schedules for the series engine.
package midifile

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/cwbudde/algo-series/series"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultBPM = 120.0

// Schedule is a merged, time-sorted list of note events. Event offsets are
// absolute sample positions from the start of the file.
type Schedule struct {
	SampleRate int
	Events     []series.Event
}

// Load reads a MIDI file from disk.
func Load(path string, sampleRate int) (*Schedule, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi %s: %w", path, err)
	}
	return FromSMF(s, sampleRate)
}

// Read parses a MIDI file from r.
func Read(r io.Reader, sampleRate int) (*Schedule, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read midi: %w", err)
	}
	return FromSMF(s, sampleRate)
}

type tickEvent struct {
	tick  uint64
	order int
	msg   smf.Message
}

// FromSMF merges all tracks of s, follows tempo changes and converts note
// messages to events. Only metric (ticks per quarter) time formats are supported.
func FromSMF(s *smf.SMF, sampleRate int) (*Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("nil smf")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0")
	}
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported time format %v (need metric ticks)", s.TimeFormat)
	}

	var all []tickEvent
	for _, tr := range s.Tracks {
		var abs uint64
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			all = append(all, tickEvent{tick: abs, order: len(all), msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tick < all[j].tick
	})

	sched := &Schedule{SampleRate: sampleRate}
	bpm := defaultBPM
	var lastTick uint64
	var elapsed time.Duration
	for _, te := range all {
		elapsed += ticks.Duration(bpm, uint32(te.tick-lastTick))
		lastTick = te.tick

		var tempo float64
		if te.msg.GetMetaTempo(&tempo) {
			if tempo > 0 {
				bpm = tempo
			}
			continue
		}
		offset := int(math.Round(elapsed.Seconds() * float64(sampleRate)))
		if ev, ok := series.EventFromMIDI(midi.Message(te.msg), offset); ok {
			sched.Events = append(sched.Events, ev)
		}
	}
	return sched, nil
}

// Length returns the sample position of the last event.
func (s *Schedule) Length() int {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Offset
}

// Duration returns the time of the last event.
func (s *Schedule) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Length()) / float64(s.SampleRate) * float64(time.Second))
}

// Block appends to dst the events in [start, start+frames) with offsets
// relative to start.
func (s *Schedule) Block(start, frames int, dst []series.Event) []series.Event {
	i := sort.Search(len(s.Events), func(i int) bool { return s.Events[i].Offset >= start })
	for ; i < len(s.Events) && s.Events[i].Offset < start+frames; i++ {
		ev := s.Events[i]
		ev.Offset -= start
		dst = append(dst, ev)
	}
	return dst
}

// Cursor walks a schedule block by block without searching.
type Cursor struct {
	sched *Schedule
	pos   int
	next  int
}

// NewCursor starts a cursor at sample 0.
func NewCursor(s *Schedule) *Cursor {
	return &Cursor{sched: s}
}

// Next appends the events of the next frames samples to dst and advances.
func (c *Cursor) Next(frames int, dst []series.Event) []series.Event {
	end := c.pos + frames
	for c.next < len(c.sched.Events) && c.sched.Events[c.next].Offset < end {
		ev := c.sched.Events[c.next]
		ev.Offset -= c.pos
		dst = append(dst, ev)
		c.next++
	}
	c.pos = end
	return dst
}

// Position returns the sample position of the next block.
func (c *Cursor) Position() int {
	return c.pos
}

// Done reports whether every event has been delivered.
func (c *Cursor) Done() bool {
	return c.next >= len(c.sched.Events)
}
