package main

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-series/midifile"
	"github.com/cwbudde/algo-series/series"
)

const renderBlock = 256

// synthReader renders the engine on demand for the audio device. Read is the
// only place the engine is touched; control goroutines talk to it through the
// event queue and the params pointer.
type synthReader struct {
	engine   *series.Engine
	auto     *series.Automation
	channels int

	events *series.EventQueue
	pushMu sync.Mutex // serializes producers (REPL and MIDI input)

	params  atomic.Pointer[series.Params]
	current *series.Params
	voices  atomic.Int32
	frames  atomic.Int64
	done    atomic.Bool

	cursor *midifile.Cursor
	block  [][]float32
	evBuf  []series.Event
}

func newSynthReader(sampleRate float32, channels, maxVoices int, p *series.Params) *synthReader {
	r := &synthReader{
		engine:   series.NewEngine(sampleRate, maxVoices),
		auto:     series.NewAutomation(sampleRate, p),
		channels: channels,
		events:   series.NewEventQueue(1024),
		block:    make([][]float32, channels),
		evBuf:    make([]series.Event, 0, 512),
	}
	for c := range r.block {
		r.block[c] = make([]float32, renderBlock)
	}
	r.current = p
	r.params.Store(p)
	return r
}

// Send queues an event for the next rendered block. It reports false when
// the queue is full.
func (r *synthReader) Send(ev series.Event) bool {
	r.pushMu.Lock()
	defer r.pushMu.Unlock()
	ev.Offset = 0
	return r.events.TryPush(ev)
}

// SetParams publishes a new parameter target.
func (r *synthReader) SetParams(p *series.Params) {
	cp := *p
	r.params.Store(&cp)
}

// Params returns the most recently published parameters.
func (r *synthReader) Params() series.Params {
	return *r.params.Load()
}

func (r *synthReader) ActiveVoices() int {
	return int(r.voices.Load())
}

func (r *synthReader) Frames() int64 {
	return r.frames.Load()
}

// cursorDone reports whether the scheduled MIDI file has been fully consumed
// as of the last rendered buffer.
func (r *synthReader) cursorDone() bool {
	return r.done.Load()
}

func (r *synthReader) Read(p []byte) (int, error) {
	frameBytes := 4 * r.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	if next := r.params.Load(); next != r.current {
		r.current = next
		r.auto.SetTarget(next)
	}

	pos := 0
	for pos < frames {
		n := frames - pos
		if n > renderBlock {
			n = renderBlock
		}
		for c := range r.block {
			r.block[c] = r.block[c][:n]
		}
		r.evBuf = r.events.Drain(r.evBuf[:0])
		if r.cursor != nil {
			r.evBuf = r.cursor.Next(n, r.evBuf)
		}
		r.engine.ProcessBlock(r.block, r.evBuf, r.auto)

		for i := 0; i < n; i++ {
			base := (pos + i) * frameBytes
			for c := range r.block {
				binary.LittleEndian.PutUint32(p[base+4*c:], math.Float32bits(r.block[c][i]))
			}
		}
		pos += n
	}
	r.voices.Store(int32(r.engine.ActiveVoices()))
	r.frames.Add(int64(frames))
	r.done.Store(r.cursor == nil || r.cursor.Done())
	return frames * frameBytes, nil
}
