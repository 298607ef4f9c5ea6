// Package dispatch runs work on a single owner goroutine.
//
// A layout context is owned by one goroutine: every guarded engine call must be
// made there. The Dispatcher is that goroutine. Invoke marshals a synchronous
// call onto it, and ScheduleBackground queues low-priority fire-and-forget
// work such as deferred resource destruction. Synchronous calls always run
// before pending background tasks.
//
// Invoke must not be called from the owner goroutine itself.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrShutdown is returned by Invoke once Shutdown has been called.
var ErrShutdown = errors.New("dispatcher is shut down")

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueLimit bounds the number of pending background tasks. Zero means
// unbounded.
func WithQueueLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

// WithLogger sets the logger used for dropped tasks and recovered panics.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

type call struct {
	fn   func()
	done chan error
}

// Dispatcher owns one goroutine and the work queued for it.
type Dispatcher struct {
	log   *zap.Logger
	calls chan call
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}

	mu         sync.Mutex
	background []func()
	limit      int

	shutdown atomic.Bool
	executed atomic.Uint64
	dropped  atomic.Uint64
}

// New starts a dispatcher goroutine.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:   zap.NewNop(),
		calls: make(chan call),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case c := <-d.calls:
			c.done <- d.run(c.fn)
			continue
		case <-d.stop:
			return
		default:
		}

		if task, ok := d.pop(); ok {
			if err := d.run(task); err != nil {
				d.log.Error("background task failed", zap.Error(err))
			}
			d.executed.Add(1)
			continue
		}

		select {
		case c := <-d.calls:
			c.done <- d.run(c.fn)
		case <-d.wake:
		case <-d.stop:
			return
		}
	}
}

func (d *Dispatcher) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	fn()
	return nil
}

func (d *Dispatcher) pop() (func(), bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.background) == 0 {
		return nil, false
	}
	task := d.background[0]
	d.background[0] = nil
	d.background = d.background[1:]
	return task, true
}

// Invoke runs fn on the owner goroutine and waits for it to return. A panic
// in fn is recovered and returned as an error. If ctx ends before fn starts,
// fn is not run.
func (d *Dispatcher) Invoke(ctx context.Context, fn func()) error {
	if d.shutdown.Load() {
		return ErrShutdown
	}
	c := call{fn: fn, done: make(chan error, 1)}

	select {
	case d.calls <- c:
	case <-d.stop:
		return ErrShutdown
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-c.done:
		return err
	case <-d.done:
		select {
		case err := <-c.done:
			return err
		default:
			return ErrShutdown
		}
	}
}

// ScheduleBackground queues task to run on the owner goroutine after every
// pending synchronous call. It reports false if the task was rejected because
// shutdown has started or the queue is full.
func (d *Dispatcher) ScheduleBackground(task func()) bool {
	if task == nil || d.shutdown.Load() {
		return false
	}

	d.mu.Lock()
	if d.limit > 0 && len(d.background) >= d.limit {
		d.mu.Unlock()
		d.dropped.Add(1)
		d.log.Warn("background queue full, dropping task", zap.Int("limit", d.limit))
		return false
	}
	d.background = append(d.background, task)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// HasShutdownStarted reports whether Shutdown has been called.
func (d *Dispatcher) HasShutdownStarted() bool {
	return d.shutdown.Load()
}

// Pending returns the number of queued background tasks.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.background)
}

// Executed returns the number of background tasks that have run.
func (d *Dispatcher) Executed() uint64 {
	return d.executed.Load()
}

// Dropped returns the number of background tasks rejected or abandoned.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Shutdown stops accepting work and waits for the owner goroutine to exit.
// The call running at the time completes; pending background tasks are
// abandoned. Shutdown is idempotent.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	if d.shutdown.CompareAndSwap(false, true) {
		close(d.stop)
	}

	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	d.mu.Lock()
	abandoned := len(d.background)
	d.background = nil
	d.mu.Unlock()

	if abandoned > 0 {
		d.dropped.Add(uint64(abandoned))
		d.log.Debug("abandoned background tasks at shutdown", zap.Int("count", abandoned))
	}
	return nil
}
