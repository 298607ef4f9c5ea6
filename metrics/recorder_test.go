package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/engine"
	"github.com/wippyai/layout-host/layoutctx"
)

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestRecorder_Events(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventHandleRegistered})
	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventHandleRegistered})
	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventHandleReleased})
	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventResourceTracked, Kind: layouthost.KindPage})
	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventResourceTracked, Kind: layouthost.KindPage})
	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventDestroyFailed, Kind: layouthost.KindPage})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.liveHandles))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.liveContexts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.liveResources.WithLabelValues("page")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.destroyFailed.WithLabelValues("page")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.events.WithLabelValues("handle_registered")))

	r.OnContextEvent(layoutctx.Event{Context: "a", Type: layoutctx.EventDisposed})
	assert.Zero(t, testutil.ToFloat64(r.liveHandles), "disposal drops leftover handles")
	assert.Zero(t, testutil.ToFloat64(r.liveContexts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.disposed))
}

func TestRecorder_ObservesContext(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	eng := engine.NewMockEngine(ctrl)
	sched := layoutctx.NewMockScheduler(ctrl)

	c, err := layoutctx.New(eng, sched, layoutctx.WithObserver(r))
	require.NoError(t, err)
	r.Attach(c.ID())
	assert.Equal(t, 1.0, testutil.ToFloat64(r.liveContexts))

	_, err = c.Register("paragraph")
	require.NoError(t, err)
	require.NoError(t, c.TrackPage(0x1000))
	require.NoError(t, c.TrackBreakRecord(0x10))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.liveResources.WithLabelValues("break-record")))

	eng.EXPECT().DestroyBreakRecord(gomock.Any(), layouthost.Pointer(0x10)).Return(nil)
	eng.EXPECT().DestroyPage(gomock.Any(), layouthost.Pointer(0x1000)).Return(nil)
	require.NoError(t, c.Dispose(context.Background()))

	assert.Zero(t, testutil.ToFloat64(r.liveResources.WithLabelValues("page")))
	assert.Zero(t, testutil.ToFloat64(r.liveResources.WithLabelValues("break-record")))
	assert.Zero(t, testutil.ToFloat64(r.liveHandles))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.disposed))

	count, err := testutil.GatherAndCount(reg, "layouthost_context_events_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}
