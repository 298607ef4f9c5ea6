package workload

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/dispatch"
	"github.com/wippyai/layout-host/engine"
	lherrors "github.com/wippyai/layout-host/errors"
	"github.com/wippyai/layout-host/layoutctx"
)

type harness struct {
	d   *dispatch.Dispatcher
	eng *engine.WasmEngine
	lc  *layoutctx.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.NewWasmEngine(ctx, engine.ReferenceModule(), nil)
	require.NoError(t, err)
	d := dispatch.New()
	lc, err := layoutctx.New(eng, d)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = d.Invoke(ctx, func() { _ = lc.Dispose(ctx) })
		_ = d.Shutdown(ctx)
		_ = eng.Close(ctx)
	})
	return &harness{d: d, eng: eng, lc: lc}
}

// owner runs fn on the dispatcher goroutine.
func (h *harness) owner(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, h.d.Invoke(context.Background(), fn))
}

func TestParagraph_FormatAndClose(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.owner(t, func() {
		p, err := NewParagraph(h.lc, "hello")
		assert.NoError(t, err)
		assert.NoError(t, p.Format(ctx, 3))

		assert.Len(t, p.Pages(), 3)
		stats := h.lc.Stats()
		assert.Equal(t, 3, stats.Pages)
		assert.Equal(t, 1, stats.BreakRecords, "only the latest resume point is kept")
		assert.Equal(t, 1, stats.Handles)

		assert.NoError(t, p.Close(ctx))
		stats = h.lc.Stats()
		assert.Zero(t, stats.Pages)
		assert.Zero(t, stats.BreakRecords)
		assert.Zero(t, stats.Handles)
		assert.False(t, h.lc.IsLive(p.Handle()))
	})

	assert.Zero(t, h.eng.Live(layouthost.KindPage))
	assert.Zero(t, h.eng.Live(layouthost.KindBreakRecord))
}

func TestPage_CloseIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.owner(t, func() {
		ptr, err := h.lc.CreatePage(ctx)
		assert.NoError(t, err)
		page := newPage(h.lc, ptr)

		assert.NoError(t, page.Close(ctx))
		assert.NoError(t, page.Close(ctx))
		assert.Zero(t, h.lc.Stats().Pages)
	})
}

func TestRun_Explicit(t *testing.T) {
	h := newHarness(t)

	var rep Report
	h.owner(t, func() {
		var err error
		rep, err = Run(context.Background(), h.lc, Options{Paragraphs: 4, PagesPerParagraph: 2, ExplicitRatio: 1})
		assert.NoError(t, err)
	})

	assert.Equal(t, 4, rep.Paragraphs)
	assert.Equal(t, 8, rep.Pages)
	assert.Equal(t, 8, rep.ExplicitPages)
	assert.Zero(t, rep.AbandonedPages)
	assert.Zero(t, rep.After.Pages)
	assert.Zero(t, rep.After.Handles)
}

func TestRun_AbandonedPagesAreCollected(t *testing.T) {
	h := newHarness(t)

	var rep Report
	h.owner(t, func() {
		var err error
		rep, err = Run(context.Background(), h.lc, Options{Paragraphs: 2, PagesPerParagraph: 3, ExplicitRatio: 0})
		assert.NoError(t, err)
	})
	assert.Equal(t, 6, rep.AbandonedPages)
	assert.Equal(t, 6, rep.After.Pages)

	require.Eventually(t, func() bool {
		runtime.GC()
		return h.lc.Stats().Pages == 0
	}, 5*time.Second, 10*time.Millisecond, "leaked pages are destroyed on the owner goroutine")

	// resume points are left for teardown
	assert.Equal(t, 2, h.lc.Stats().BreakRecords)
	h.owner(t, func() { assert.NoError(t, h.lc.Dispose(context.Background())) })
	assert.Zero(t, h.eng.Live(layouthost.KindBreakRecord))
	assert.Zero(t, h.eng.Live(layouthost.KindPage))
}

func TestRun_DisposedContext(t *testing.T) {
	h := newHarness(t)

	h.owner(t, func() {
		assert.NoError(t, h.lc.Close())
		_, err := Run(context.Background(), h.lc, Options{Paragraphs: 1, PagesPerParagraph: 1})
		assert.ErrorIs(t, err, lherrors.ErrAlreadyDisposed)
	})
}

func TestRun_Canceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.owner(t, func() {
		rep, err := Run(ctx, h.lc, Options{Paragraphs: 3, PagesPerParagraph: 1})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, rep.Paragraphs)
	})
}
