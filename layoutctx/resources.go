package layoutctx

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/errors"
	"github.com/wippyai/layout-host/ledger"
)

// TrackPage records a page allocated by the engine on behalf of this context.
func (c *Context) TrackPage(ptr layouthost.Pointer) error {
	return c.track(layouthost.KindPage, ptr)
}

// TrackBreakRecord records a break record allocated by the engine on behalf
// of this context.
func (c *Context) TrackBreakRecord(ptr layouthost.Pointer) error {
	return c.track(layouthost.KindBreakRecord, ptr)
}

func (c *Context) track(kind layouthost.ResourceKind, ptr layouthost.Pointer) error {
	if err := c.checkLive(errors.PhaseTrack); err != nil {
		return err
	}
	if err := c.ledger.Track(kind, ptr); err != nil {
		return err
	}
	c.emit(Event{Type: EventResourceTracked, Kind: kind, Pointer: ptr})
	return nil
}

// CreatePage allocates a page through the engine and tracks it.
func (c *Context) CreatePage(ctx context.Context) (layouthost.Pointer, error) {
	return c.create(ctx, layouthost.KindPage)
}

// CreateBreakRecord allocates a break record through the engine and tracks it.
func (c *Context) CreateBreakRecord(ctx context.Context) (layouthost.Pointer, error) {
	return c.create(ctx, layouthost.KindBreakRecord)
}

func (c *Context) create(ctx context.Context, kind layouthost.ResourceKind) (layouthost.Pointer, error) {
	if err := c.checkLive(errors.PhaseTrack); err != nil {
		return 0, err
	}

	var ptr layouthost.Pointer
	err := c.guard.Do(func() error {
		var p layouthost.Pointer
		var err error
		if kind == layouthost.KindPage {
			p, err = c.engine.CreatePage(ctx)
		} else {
			p, err = c.engine.CreateBreakRecord(ctx)
		}
		if err != nil {
			return errors.EngineFailure("create "+kind.String(), err)
		}

		if err := c.track(kind, p); err != nil {
			// A duplicate address is still owned by its first entry.
			if errors.KindOf(err) != errors.KindDuplicateResource && p != 0 {
				if derr := c.destroyFunc(ctx, kind)(p); derr != nil {
					err = multierr.Append(err, errors.EngineDestroyFailed(kind.String(), uintptr(p), derr))
				}
			}
			return err
		}
		ptr = p
		return nil
	})
	return ptr, err
}

// destroyFunc returns the engine destroy call for kind, reporting the outcome
// to observers.
func (c *Context) destroyFunc(ctx context.Context, kind layouthost.ResourceKind) ledger.DestroyFunc {
	return func(ptr layouthost.Pointer) error {
		var err error
		if kind == layouthost.KindPage {
			err = c.engine.DestroyPage(ctx, ptr)
		} else {
			err = c.engine.DestroyBreakRecord(ctx, ptr)
		}
		if err != nil {
			c.log.Warn("engine failed to destroy resource",
				zap.Stringer("kind", kind),
				zap.Stringer("pointer", ptr),
				zap.Error(err))
			c.emit(Event{Type: EventDestroyFailed, Kind: kind, Pointer: ptr, Err: err})
			return err
		}
		c.emit(Event{Type: EventResourceDestroyed, Kind: kind, Pointer: ptr})
		return nil
	}
}

// PageDisposed releases a tracked page. With explicit set the page is
// destroyed now. Otherwise the page's owner was collected and destruction is
// deferred to the scheduler.
func (c *Context) PageDisposed(ctx context.Context, ptr layouthost.Pointer, explicit bool) error {
	return c.resourceDisposed(ctx, layouthost.KindPage, ptr, explicit)
}

// BreakRecordDisposed releases a tracked break record. See PageDisposed.
func (c *Context) BreakRecordDisposed(ctx context.Context, ptr layouthost.Pointer, explicit bool) error {
	return c.resourceDisposed(ctx, layouthost.KindBreakRecord, ptr, explicit)
}

// DestroyPageInCallback destroys a tracked page from inside a native
// callback, where the guard is already held.
func (c *Context) DestroyPageInCallback(ctx context.Context, ptr layouthost.Pointer) error {
	return c.destroyInCallback(ctx, layouthost.KindPage, ptr)
}

// DestroyBreakRecordInCallback destroys a tracked break record from inside a
// native callback, where the guard is already held.
func (c *Context) DestroyBreakRecordInCallback(ctx context.Context, ptr layouthost.Pointer) error {
	return c.destroyInCallback(ctx, layouthost.KindBreakRecord, ptr)
}

func (c *Context) destroyInCallback(ctx context.Context, kind layouthost.ResourceKind, ptr layouthost.Pointer) error {
	if err := c.checkNotDisposed(errors.PhaseDestroy); err != nil {
		return err
	}
	if !c.guard.Held() {
		return errors.New(errors.PhaseDestroy, errors.KindGuardImbalance).
			Detail("%s %v destroyed in callback outside a guarded section", kind, ptr).
			Build()
	}
	return c.ledger.UntrackAndDestroy(kind, ptr, c.destroyFunc(ctx, kind), true)
}

func (c *Context) resourceDisposed(ctx context.Context, kind layouthost.ResourceKind, ptr layouthost.Pointer, explicit bool) error {
	if explicit {
		if err := c.checkNotDisposed(errors.PhaseDestroy); err != nil {
			return err
		}
		return c.ledger.UntrackAndDestroy(kind, ptr, c.destroyFunc(ctx, kind), false)
	}

	if c.IsDisposing() || c.sched.HasShutdownStarted() {
		// Teardown owns every remaining resource.
		c.emit(Event{Type: EventDeferredDropped, Kind: kind, Pointer: ptr})
		return nil
	}

	bg := context.WithoutCancel(ctx)
	scheduled := c.sched.ScheduleBackground(func() {
		c.runDeferred(bg, kind, ptr)
	})
	if !scheduled {
		c.log.Debug("deferred destroy rejected by scheduler",
			zap.Stringer("kind", kind),
			zap.Stringer("pointer", ptr))
		c.emit(Event{Type: EventDeferredDropped, Kind: kind, Pointer: ptr})
		return nil
	}
	c.emit(Event{Type: EventDeferredScheduled, Kind: kind, Pointer: ptr})
	return nil
}

// runDeferred is the background half of the finalizer path. The context may
// have started teardown since the task was queued, in which case the sweep
// has taken over the resource.
func (c *Context) runDeferred(ctx context.Context, kind layouthost.ResourceKind, ptr layouthost.Pointer) {
	if c.IsDisposing() {
		c.emit(Event{Type: EventDeferredDropped, Kind: kind, Pointer: ptr})
		return
	}

	err := c.ledger.UntrackAndDestroy(kind, ptr, c.destroyFunc(ctx, kind), false)
	if err != nil {
		c.log.Error("deferred destroy failed",
			zap.Stringer("kind", kind),
			zap.Stringer("pointer", ptr),
			zap.Error(err))
	}
	c.emit(Event{Type: EventDeferredExecuted, Kind: kind, Pointer: ptr, Err: err})
}
