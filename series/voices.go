package series

// DefaultMaxVoices is the arena capacity used when none is given.
const DefaultMaxVoices = 64

// MaxNote is the highest valid MIDI note number.
const MaxNote = 127

// VoiceID addresses an arena slot. The generation makes stale IDs detectable
// once the slot has been recycled.
type VoiceID struct {
	Slot int32
	Gen  uint32
}

// VoiceManager owns a fixed-capacity arena of voices and the per-note voice
// lists. Nothing is allocated after construction.
type VoiceManager struct {
	sampleRate float32
	slots      []Voice
	free       []int32
	heads      [MaxNote + 1]int32
	count      int
	clock      uint64
}

// NewVoiceManager creates a manager with room for maxVoices simultaneous voices.
func NewVoiceManager(maxVoices int, sampleRate float32) *VoiceManager {
	if maxVoices < 1 {
		maxVoices = DefaultMaxVoices
	}
	m := &VoiceManager{
		sampleRate: sampleRate,
		slots:      make([]Voice, maxVoices),
		free:       make([]int32, 0, maxVoices),
	}
	m.Reset()
	return m
}

// Capacity returns the arena size.
func (m *VoiceManager) Capacity() int {
	return len(m.slots)
}

// Len returns the number of live voices.
func (m *VoiceManager) Len() int {
	return m.count
}

// SetSampleRate updates the rate used for new gain ramps.
func (m *VoiceManager) SetSampleRate(sampleRate float32) {
	m.sampleRate = sampleRate
}

// Reset destroys every voice immediately.
func (m *VoiceManager) Reset() {
	m.free = m.free[:0]
	for i := len(m.slots) - 1; i >= 0; i-- {
		v := &m.slots[i]
		if v.active {
			v.gen++
		}
		v.active = false
		v.newer = -1
		v.older = -1
		m.free = append(m.free, int32(i))
	}
	for n := range m.heads {
		m.heads[n] = -1
	}
	m.count = 0
}

// NoteOn starts a new voice for note. A voice already at the front of the
// note's list is forced into the dead stage and keeps sounding its release.
func (m *VoiceManager) NoteOn(note int, velocity float32) (VoiceID, bool) {
	if note < 0 || note > MaxNote {
		return VoiceID{}, false
	}
	if head := m.heads[note]; head >= 0 {
		m.slots[head].env.Kill()
	}

	slot := m.allocate()
	m.clock++
	v := &m.slots[slot]
	v.start(note, clampf(velocity, 0, 1), m.sampleRate, m.clock)

	head := m.heads[note]
	v.older = head
	if head >= 0 {
		m.slots[head].newer = slot
	}
	m.heads[note] = slot
	m.count++
	return VoiceID{Slot: slot, Gen: v.gen}, true
}

// NoteOff releases the most recent voice of note. Dead voices and unknown
// notes are left alone.
func (m *VoiceManager) NoteOff(note int) {
	v := m.front(note)
	if v == nil || v.env.Stage() == StageDead {
		return
	}
	v.env.Release()
}

// PolyPressure retargets the velocity follower of the most recent voice of note.
func (m *VoiceManager) PolyPressure(note int, pressure float32) {
	v := m.front(note)
	if v == nil || v.env.Stage() == StageDead {
		return
	}
	v.gain.SetTarget(m.sampleRate, clampf(pressure, 0, 1))
}

// Apply dispatches one event.
func (m *VoiceManager) Apply(ev Event) {
	switch ev.Kind {
	case NoteOn:
		m.NoteOn(ev.Note, ev.Value)
	case NoteOff:
		m.NoteOff(ev.Note)
	case PolyPressure:
		m.PolyPressure(ev.Note, ev.Value)
	}
}

// Cleanup frees every voice whose release has reached silence. It scans the
// whole arena, so a finished voice is freed even when it is not the oldest
// one of its note.
func (m *VoiceManager) Cleanup() {
	for i := range m.slots {
		v := &m.slots[i]
		if v.active && v.env.Finished() {
			m.release(int32(i))
		}
	}
}

// Lookup resolves a VoiceID. It fails once the voice has been destroyed.
func (m *VoiceManager) Lookup(id VoiceID) (*Voice, bool) {
	if id.Slot < 0 || int(id.Slot) >= len(m.slots) {
		return nil, false
	}
	v := &m.slots[id.Slot]
	if !v.active || v.gen != id.Gen {
		return nil, false
	}
	return v, true
}

// NoteVoices appends the voices of note to dst, newest first.
func (m *VoiceManager) NoteVoices(note int, dst []VoiceState) []VoiceState {
	if note < 0 || note > MaxNote {
		return dst
	}
	for s := m.heads[note]; s >= 0; s = m.slots[s].older {
		dst = append(dst, m.state(s))
	}
	return dst
}

// States appends every live voice to dst in slot order.
func (m *VoiceManager) States(dst []VoiceState) []VoiceState {
	for i := range m.slots {
		if m.slots[i].active {
			dst = append(dst, m.state(int32(i)))
		}
	}
	return dst
}

func (m *VoiceManager) state(slot int32) VoiceState {
	v := &m.slots[slot]
	return VoiceState{
		ID:       VoiceID{Slot: slot, Gen: v.gen},
		Note:     v.note,
		Stage:    v.env.Stage(),
		Envelope: v.env.Value(),
		Phase:    v.osc.Phase(),
		Gain:     v.gain.Value(),
	}
}

func (m *VoiceManager) front(note int) *Voice {
	if note < 0 || note > MaxNote {
		return nil
	}
	head := m.heads[note]
	if head < 0 {
		return nil
	}
	return &m.slots[head]
}

// allocate takes a free slot, stealing one when the arena is full: the oldest
// releasing voice goes first, then the oldest voice overall.
func (m *VoiceManager) allocate() int32 {
	if n := len(m.free); n > 0 {
		slot := m.free[n-1]
		m.free = m.free[:n-1]
		return slot
	}
	victim := int32(-1)
	releasing := false
	for i := range m.slots {
		v := &m.slots[i]
		if !v.active {
			continue
		}
		r := v.env.Stage().Releasing()
		switch {
		case victim < 0:
		case r && !releasing:
		case r == releasing && v.born < m.slots[victim].born:
		default:
			continue
		}
		victim = int32(i)
		releasing = r
	}
	m.release(victim)
	n := len(m.free)
	slot := m.free[n-1]
	m.free = m.free[:n-1]
	return slot
}

// release unlinks a voice from its note list and returns the slot to the free list.
func (m *VoiceManager) release(slot int32) {
	v := &m.slots[slot]
	if v.newer >= 0 {
		m.slots[v.newer].older = v.older
	} else {
		m.heads[v.note] = v.older
	}
	if v.older >= 0 {
		m.slots[v.older].newer = v.newer
	}
	v.active = false
	v.newer = -1
	v.older = -1
	v.gen++
	m.free = append(m.free, slot)
	m.count--
}
