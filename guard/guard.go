// Package guard brackets calls into the native layout engine.
//
// Every engine call made on behalf of a context runs between Enter and Leave.
// The outermost Enter roots the engine's internal cursor at the owning context
// and the matching Leave unroots it; nested brackets only adjust the depth.
// Use Do for scoped acquisition so that Leave runs on every exit path.
//
// A Guard has a single logical owner. Callers on other goroutines must marshal
// onto the owner before entering.
package guard

import (
	"sync/atomic"

	"github.com/wippyai/layout-host/errors"
)

// Rooter is implemented by engines whose internal cursor must be rooted at the
// calling context for the duration of a guarded section.
type Rooter interface {
	Root(owner string)
	Unroot()
}

// Guard is the enter/leave bracket of one context.
type Guard struct {
	rooter   Rooter
	owner    string
	depth    atomic.Int32
	orphaned atomic.Int32 // sections still open when Close ran
	closed   atomic.Bool
}

// New creates a guard for owner. rooter may be nil.
func New(owner string, rooter Rooter) *Guard {
	return &Guard{owner: owner, rooter: rooter}
}

// Enter opens a guarded section.
func (g *Guard) Enter() error {
	if g.closed.Load() {
		return errors.AlreadyDisposed(errors.PhaseGuard, "context "+g.owner)
	}
	if g.depth.Add(1) == 1 && g.rooter != nil {
		g.rooter.Root(g.owner)
	}
	return nil
}

// Leave closes the innermost guarded section. After Close, Leave succeeds
// once for every section that was open at the time.
func (g *Guard) Leave() error {
	if g.closed.Load() {
		if g.orphaned.Add(-1) >= 0 {
			return nil
		}
		g.orphaned.Add(1)
		return errors.AlreadyDisposed(errors.PhaseGuard, "context "+g.owner)
	}
	d := g.depth.Add(-1)
	if d < 0 {
		g.depth.Add(1)
		return errors.GuardImbalance()
	}
	if d == 0 && g.rooter != nil {
		g.rooter.Unroot()
	}
	return nil
}

// Do runs fn inside a guarded section. Leave runs even if fn panics.
func (g *Guard) Do(fn func() error) (err error) {
	if err := g.Enter(); err != nil {
		return err
	}
	defer func() {
		if leaveErr := g.Leave(); leaveErr != nil && err == nil {
			err = leaveErr
		}
	}()
	return fn()
}

// Held reports whether a guarded section is open.
func (g *Guard) Held() bool {
	return g.depth.Load() > 0
}

// Depth returns the current nesting depth.
func (g *Guard) Depth() int {
	return int(g.depth.Load())
}

// Owner returns the id of the owning context.
func (g *Guard) Owner() string {
	return g.owner
}

// Close marks the guard torn down. Later Enter calls fail. If sections are
// still open the engine is unrooted at once and the depth drops to zero.
func (g *Guard) Close() {
	if !g.closed.CompareAndSwap(false, true) {
		return
	}
	if d := g.depth.Swap(0); d > 0 {
		g.orphaned.Store(d)
		if g.rooter != nil {
			g.rooter.Unroot()
		}
	}
}

// Closed reports whether Close has been called.
func (g *Guard) Closed() bool {
	return g.closed.Load()
}
