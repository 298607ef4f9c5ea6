package handle

import "fmt"

// Handle is an opaque reference to an object registered in a Table.
// The low IndexBits hold the slot index and the remaining high bits hold the
// slot generation at registration time. Handle 0 is reserved and always invalid.
type Handle uint32

const (
	IndexBits = 24
	indexMask = 1<<IndexBits - 1

	// MaxCapacity is the largest slot array a Table can grow to.
	MaxCapacity = 1 << IndexBits

	// DefaultCapacity is the initial slot count, slot 0 included.
	DefaultCapacity = 16

	maxGeneration = 1<<(32-IndexBits) - 1
)

func makeHandle(index uint32, gen uint8) Handle {
	return Handle(uint32(gen)<<IndexBits | index&indexMask)
}

// Index returns the slot index encoded in h.
func (h Handle) Index() uint32 {
	return uint32(h) & indexMask
}

// Generation returns the slot generation encoded in h.
func (h Handle) Generation() uint8 {
	return uint8(uint32(h) >> IndexBits)
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d@%d)", h.Index(), h.Generation())
}

// EventType identifies a table lifecycle notification.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventReleased
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}
