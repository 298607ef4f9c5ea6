// Package workload drives layout contexts the way a document renderer would:
// paragraphs register themselves, format into pages, and either close their
// pages explicitly or drop them and leave cleanup to the garbage collector.
package workload

import (
	"context"
	"runtime"
	"sync/atomic"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/layoutctx"
)

// Page owns one engine page. A Page that becomes unreachable without being
// closed is released through the context's finalizer path.
type Page struct {
	lc      *layoutctx.Context
	cleanup runtime.Cleanup
	ptr     layouthost.Pointer
	closed  atomic.Bool
}

type leakedPage struct {
	lc  *layoutctx.Context
	ptr layouthost.Pointer
}

func newPage(lc *layoutctx.Context, ptr layouthost.Pointer) *Page {
	p := &Page{lc: lc, ptr: ptr}
	p.cleanup = runtime.AddCleanup(p, pageLeaked, leakedPage{lc: lc, ptr: ptr})
	return p
}

// pageLeaked runs on the runtime's cleanup goroutine.
func pageLeaked(l leakedPage) {
	_ = l.lc.PageDisposed(context.Background(), l.ptr, false)
}

// Pointer returns the engine address of the page.
func (p *Page) Pointer() layouthost.Pointer {
	return p.ptr
}

// Close destroys the page now. Close is idempotent.
func (p *Page) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.cleanup.Stop()
	return p.lc.PageDisposed(ctx, p.ptr, true)
}
