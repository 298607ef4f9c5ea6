package layoutctx

import (
	"context"
	"time"

	"go.uber.org/zap"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/ledger"
)

// Dispose tears the context down. The first caller destroys every
// outstanding resource, releases the handle table and closes the guard;
// everyone else returns nil at once. Engine failures during the sweep are
// returned together, after all bookkeeping has completed. The context ends up
// Disposed even if a destroy callback panics.
func (c *Context) Dispose(ctx context.Context) (err error) {
	if !c.state.CompareAndSwap(int32(StateLive), int32(StateDisposing)) {
		return nil
	}
	start := time.Now()
	pages := c.ledger.Len(layouthost.KindPage)
	breaks := c.ledger.Len(layouthost.KindBreakRecord)

	defer func() {
		_ = c.handles.Close()
		c.guard.Close()
		c.state.Store(int32(StateDisposed))
		close(c.done)

		c.emit(Event{Type: EventDisposed, Err: err})
		c.log.Debug("layout context disposed",
			zap.Int("pages", pages),
			zap.Int("break_records", breaks),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	}()

	return c.ledger.Sweep(map[layouthost.ResourceKind]ledger.DestroyFunc{
		layouthost.KindPage:        c.destroyFunc(ctx, layouthost.KindPage),
		layouthost.KindBreakRecord: c.destroyFunc(ctx, layouthost.KindBreakRecord),
	})
}

// Close disposes the context with a background context.
func (c *Context) Close() error {
	return c.Dispose(context.Background())
}

// Done is closed once disposal has completed.
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Stats is a point-in-time view of a context.
type Stats struct {
	ID             string `json:"id"`
	State          State  `json:"state"`
	Handles        int    `json:"handles"`
	HandleCapacity int    `json:"handle_capacity"`
	Pages          int    `json:"pages"`
	BreakRecords   int    `json:"break_records"`
	GuardDepth     int    `json:"guard_depth"`
}

// Stats returns a snapshot of the context.
func (c *Context) Stats() Stats {
	return Stats{
		ID:             c.id,
		State:          c.State(),
		Handles:        c.handles.Len(),
		HandleCapacity: c.handles.Capacity(),
		Pages:          c.ledger.Len(layouthost.KindPage),
		BreakRecords:   c.ledger.Len(layouthost.KindBreakRecord),
		GuardDepth:     c.guard.Depth(),
	}
}
