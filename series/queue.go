package series

import (
	"runtime"
	"sync/atomic"
)

// EventQueue is a lock-free single-producer/single-consumer ring used to hand
// live events from a control goroutine to the audio callback.
type EventQueue struct {
	events      []Event
	read, write atomic.Uint32
}

// NewEventQueue creates a queue. size must be a power of two.
func NewEventQueue(size int) *EventQueue {
	if size <= 0 || size&(size-1) != 0 {
		panic("event queue size must be a power of 2")
	}
	return &EventQueue{events: make([]Event, size)}
}

// TryPush enqueues ev, reporting false when the queue is full.
func (q *EventQueue) TryPush(ev Event) bool {
	write := q.write.Load()
	if write-q.read.Load() == uint32(len(q.events)) {
		return false
	}
	q.events[write%uint32(len(q.events))] = ev
	q.write.Store(write + 1)
	return true
}

// Push enqueues ev, yielding while the consumer catches up. Producer side only.
func (q *EventQueue) Push(ev Event) {
	for !q.TryPush(ev) {
		runtime.Gosched()
	}
}

// Drain appends queued events to dst without growing it past its capacity and
// returns the extended slice. Events that do not fit stay queued.
func (q *EventQueue) Drain(dst []Event) []Event {
	read := q.read.Load()
	write := q.write.Load()
	for read != write && len(dst) < cap(dst) {
		dst = append(dst, q.events[read%uint32(len(q.events))])
		read++
	}
	q.read.Store(read)
	return dst
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return int(q.write.Load() - q.read.Load())
}
