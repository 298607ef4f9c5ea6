package handle

import (
	"sync"

	"github.com/wippyai/layout-host/errors"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotRetired
)

// slot is one table entry. A free slot links to the next free index through
// next (0 terminates the list); a live slot holds value. Slot 0 is never live:
// its next field is the free-list head. A retired slot has used up its
// generations and is never handed out again.
type slot struct {
	value any
	next  uint32
	gen   uint8
	state slotState
}

// Table maps registered objects to small integer handles and back.
// It holds non-owning references: callers release their handle before the
// object becomes unreachable.
type Table struct {
	slots     []slot
	observers []Observer
	live      int
	retired   int
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// New creates a table with the given initial slot count (slot 0 included).
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Table {
	switch {
	case capacity <= 0:
		capacity = DefaultCapacity
	case capacity < 2:
		capacity = 2
	case capacity > MaxCapacity:
		capacity = MaxCapacity
	}
	t := &Table{slots: make([]slot, capacity)}
	t.stitch(1, capacity)
	return t
}

// stitch links slots [from, to) in ascending order onto the front of the free list.
func (t *Table) stitch(from, to int) {
	head := t.slots[0].next
	for i := from; i < to-1; i++ {
		t.slots[i].next = uint32(i + 1)
	}
	t.slots[to-1].next = head
	t.slots[0].next = uint32(from)
}

// grow doubles the slot array. Existing indices never move.
func (t *Table) grow() error {
	old := len(t.slots)
	if old >= MaxCapacity {
		return errors.CapacityExhausted(MaxCapacity)
	}
	n := old * 2
	if n > MaxCapacity {
		n = MaxCapacity
	}
	slots := make([]slot, n)
	copy(slots, t.slots)
	t.slots = slots
	t.stitch(old, n)
	return nil
}

// Register stores v and returns its handle. Freed slots are reused (most
// recently released first) before the table grows.
func (t *Table) Register(v any) (Handle, error) {
	if v == nil {
		return 0, errors.NilObject()
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.AlreadyDisposed(errors.PhaseRegister, "handle table")
	}
	if t.slots[0].next == 0 {
		if err := t.grow(); err != nil {
			t.mu.Unlock()
			return 0, err
		}
	}

	idx := t.slots[0].next
	s := &t.slots[idx]
	t.slots[0].next = s.next
	s.next = 0
	s.value = v
	s.state = slotLive
	t.live++
	h := makeHandle(idx, s.gen)
	t.mu.Unlock()

	t.notify(Event{Type: EventRegistered, Handle: h, Value: v})
	return h, nil
}

// lookup bounds-checks h without touching the slot array for handle 0.
// Caller holds t.mu.
func (t *Table) lookup(phase errors.Phase, h Handle) (*slot, error) {
	idx := h.Index()
	if idx == 0 {
		return nil, errors.InvalidHandle(phase, uint32(h), "reserved slot")
	}
	if int(idx) >= len(t.slots) {
		return nil, errors.InvalidHandle(phase, uint32(h), "out of range")
	}
	return &t.slots[idx], nil
}

// Resolve returns the object registered under h.
func (t *Table) Resolve(h Handle) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, errors.AlreadyDisposed(errors.PhaseResolve, "handle table")
	}
	s, err := t.lookup(errors.PhaseResolve, h)
	if err != nil {
		return nil, err
	}
	if s.state != slotLive {
		return nil, errors.InvalidHandle(errors.PhaseResolve, uint32(h), "slot is free")
	}
	if s.gen != h.Generation() {
		return nil, errors.InvalidHandle(errors.PhaseResolve, uint32(h), "stale generation")
	}
	return s.value, nil
}

// IsLive reports whether h currently resolves. It never fails.
func (t *Table) IsLive(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	s, err := t.lookup(errors.PhaseResolve, h)
	if err != nil {
		return false
	}
	return s.state == slotLive && s.gen == h.Generation()
}

// Release frees the slot behind h and pushes it onto the free-list head.
// The slot generation advances so that h, and copies of it, no longer resolve.
// A slot whose generation would wrap is retired instead of reused.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.AlreadyDisposed(errors.PhaseRelease, "handle table")
	}
	s, err := t.lookup(errors.PhaseRelease, h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if s.state != slotLive {
		t.mu.Unlock()
		return errors.DoubleRelease(uint32(h))
	}
	if s.gen != h.Generation() {
		t.mu.Unlock()
		return errors.InvalidHandle(errors.PhaseRelease, uint32(h), "stale generation")
	}

	value := s.value
	s.value = nil
	t.live--
	if s.gen == maxGeneration {
		s.state = slotRetired
		t.retired++
	} else {
		s.state = slotFree
		s.gen++
		s.next = t.slots[0].next
		t.slots[0].next = h.Index()
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventReleased, Handle: h, Value: value})
	return nil
}

// Capacity returns the slot array length, slot 0 included. It never shrinks
// while the table is open and is 0 after Close.
func (t *Table) Capacity() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Retired returns the number of slots taken out of circulation because their
// generation is exhausted.
func (t *Table) Retired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retired
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Each iterates over a snapshot of the live handles.
func (t *Table) Each(fn func(Handle, any) bool) {
	type entry struct {
		value any
		h     Handle
	}

	t.mu.Lock()
	entries := make([]entry, 0, t.live)
	for i := 1; i < len(t.slots); i++ {
		if s := &t.slots[i]; s.state == slotLive {
			entries = append(entries, entry{h: makeHandle(uint32(i), s.gen), value: s.value})
		}
	}
	t.mu.Unlock()

	for _, e := range entries {
		if !fn(e.h, e.value) {
			return
		}
	}
}

// Close releases the backing slot array. Any handles still live are dropped
// without notification. Close is idempotent.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.slots = nil
	t.live = 0
	t.retired = 0
	return nil
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
