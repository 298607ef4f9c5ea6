package layoutctx

import (
	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/handle"
)

// EventType identifies a context lifecycle notification.
type EventType uint8

const (
	EventHandleRegistered EventType = iota
	EventHandleReleased
	EventResourceTracked
	EventResourceDestroyed
	EventDestroyFailed
	EventDeferredScheduled
	EventDeferredDropped
	EventDeferredExecuted
	EventDisposed
)

var eventNames = [...]string{
	EventHandleRegistered:  "handle_registered",
	EventHandleReleased:    "handle_released",
	EventResourceTracked:   "resource_tracked",
	EventResourceDestroyed: "resource_destroyed",
	EventDestroyFailed:     "destroy_failed",
	EventDeferredScheduled: "deferred_scheduled",
	EventDeferredDropped:   "deferred_dropped",
	EventDeferredExecuted:  "deferred_executed",
	EventDisposed:          "disposed",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event describes one lifecycle step of a context. Kind and Pointer are set
// for resource events, Handle for handle events, Err for failures.
type Event struct {
	Err     error
	Context string
	Pointer layouthost.Pointer
	Handle  handle.Handle
	Type    EventType
	Kind    layouthost.ResourceKind
}

// Observer receives context events. Observers are called synchronously on the
// goroutine that caused the event and must not call back into the context.
type Observer interface {
	OnContextEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnContextEvent implements Observer.
func (f ObserverFunc) OnContextEvent(e Event) { f(e) }

func (c *Context) emit(e Event) {
	e.Context = c.id
	for _, o := range c.observers {
		o.OnContextEvent(e)
	}
}

// handleEvents forwards handle table notifications as context events.
type handleEvents struct{ c *Context }

func (h handleEvents) OnHandleEvent(e handle.Event) {
	t := EventHandleRegistered
	if e.Type == handle.EventReleased {
		t = EventHandleReleased
	}
	h.c.emit(Event{Type: t, Handle: e.Handle})
}
