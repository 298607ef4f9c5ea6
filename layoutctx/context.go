package layoutctx

import (
	"sync/atomic"

	"github.com/pborman/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/layout-host/engine"
	"github.com/wippyai/layout-host/errors"
	"github.com/wippyai/layout-host/guard"
	"github.com/wippyai/layout-host/handle"
	"github.com/wippyai/layout-host/ledger"
)

// State is the lifecycle state of a Context.
type State int32

const (
	StateLive State = iota
	StateDisposing
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateDisposing:
		return "disposing"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Option configures a Context.
type Option func(*options)

type options struct {
	log       *zap.Logger
	id        string
	observers []Observer
	capacity  int
}

// WithInitialCapacity sets the initial handle table capacity.
func WithInitialCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithLogger sets the context logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithObserver adds an observer for context events.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithID sets the context id. Defaults to a random UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// Context is the layout host context of one document.
type Context struct {
	log       *zap.Logger
	engine    engine.Engine
	sched     Scheduler
	handles   *handle.Table
	guard     *guard.Guard
	ledger    *ledger.Ledger
	done      chan struct{}
	id        string
	observers []Observer
	state     atomic.Int32
}

// New creates a live context over eng. Engine calls are rooted at the context
// when eng implements guard.Rooter. Deferred destruction runs on sched.
func New(eng engine.Engine, sched Scheduler, opts ...Option) (*Context, error) {
	if eng == nil {
		return nil, errors.InvalidConfig("layout context requires an engine")
	}
	if sched == nil {
		return nil, errors.InvalidConfig("layout context requires a scheduler")
	}

	o := options{capacity: handle.DefaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.New()
	}
	if o.log == nil {
		o.log = Logger()
	}

	rooter, _ := eng.(guard.Rooter)

	c := &Context{
		log:       o.log.With(zap.String("context", o.id)),
		engine:    eng,
		sched:     sched,
		handles:   handle.New(o.capacity),
		guard:     guard.New(o.id, rooter),
		done:      make(chan struct{}),
		id:        o.id,
		observers: o.observers,
	}
	c.ledger = ledger.New(c.guard)
	if len(c.observers) > 0 {
		c.handles.Subscribe(handleEvents{c})
	}

	c.log.Debug("layout context created", zap.Int("capacity", c.handles.Capacity()))
	return c, nil
}

// ID returns the context id.
func (c *Context) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Context) State() State {
	return State(c.state.Load())
}

// IsDisposing reports whether disposal has been requested. It stays true
// once disposal completes.
func (c *Context) IsDisposing() bool {
	return c.State() != StateLive
}

// IsDisposed reports whether disposal has completed.
func (c *Context) IsDisposed() bool {
	return c.State() == StateDisposed
}

func (c *Context) what() string {
	return "context " + c.id
}

// checkLive refuses work that would add to what teardown must clean up.
func (c *Context) checkLive(phase errors.Phase) error {
	switch c.State() {
	case StateDisposing:
		return errors.Disposing(phase, c.what())
	case StateDisposed:
		return errors.AlreadyDisposed(phase, c.what())
	}
	return nil
}

// checkNotDisposed refuses work once teardown has completed.
func (c *Context) checkNotDisposed(phase errors.Phase) error {
	if c.IsDisposed() {
		return errors.AlreadyDisposed(phase, c.what())
	}
	return nil
}

// Register stores obj and returns a handle for it.
func (c *Context) Register(obj any) (handle.Handle, error) {
	if err := c.checkLive(errors.PhaseRegister); err != nil {
		return 0, err
	}
	return c.handles.Register(obj)
}

// Resolve returns the object registered under h.
func (c *Context) Resolve(h handle.Handle) (any, error) {
	if err := c.checkNotDisposed(errors.PhaseResolve); err != nil {
		return nil, err
	}
	return c.handles.Resolve(h)
}

// IsLive reports whether h currently resolves. It never fails.
func (c *Context) IsLive(h handle.Handle) bool {
	if c.IsDisposed() {
		return false
	}
	return c.handles.IsLive(h)
}

// Release frees h. Releasing is permitted while the context is disposing.
func (c *Context) Release(h handle.Handle) error {
	if err := c.checkNotDisposed(errors.PhaseRelease); err != nil {
		return err
	}
	return c.handles.Release(h)
}

// Enter opens a guarded section.
func (c *Context) Enter() error {
	return c.guard.Enter()
}

// Leave closes the innermost guarded section.
func (c *Context) Leave() error {
	return c.guard.Leave()
}

// Guarded runs fn inside a guarded section.
func (c *Context) Guarded(fn func() error) error {
	return c.guard.Do(fn)
}
