// Package layoutctx implements the per-document layout host context.
//
// A Context ties together the pieces that keep native layout resources safe
// while they are shared with managed code:
//
//   - a handle.Table mapping opaque handles to managed objects
//   - a ledger.Ledger of every page and break record the engine handed out
//   - a guard.Guard bracketing every engine call
//   - a Scheduler owning the goroutine that engine calls must run on
//
// # Lifecycle
//
// A context is Live until Dispose is called. The first Dispose moves it to
// Disposing, destroys every outstanding resource inside one guarded section
// (break records first, then pages), releases the handle table and closes the
// guard. The context is then Disposed and Done is closed. Concurrent and
// repeated Dispose calls return immediately.
//
// While Disposing, new registrations and new resources are refused, but
// explicit destruction and handle release are still accepted so that native
// callbacks running during teardown can clean up after themselves.
//
// # Resource disposal
//
// Resources are released on one of two paths. The explicit path
// (PageDisposed with explicit set, or the InCallback variants) destroys
// synchronously. The finalizer path is taken when the owning managed object
// was collected: it never touches the engine directly and instead schedules a
// background task on the owner goroutine, and does nothing at all once the
// context or the scheduler is shutting down.
package layoutctx
