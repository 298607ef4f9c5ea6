// Package metrics exports layout context activity as prometheus metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/layout-host/layoutctx"
)

const namespace = "layouthost"

// Recorder is a layoutctx.Observer that turns context events into metrics.
// One Recorder may observe any number of contexts.
type Recorder struct {
	events         *prometheus.CounterVec
	destroyFailed  *prometheus.CounterVec
	liveResources  *prometheus.GaugeVec
	liveHandles    prometheus.Gauge
	liveContexts   prometheus.Gauge
	disposed       prometheus.Counter
	handlesByOwner map[string]int
	mu             sync.Mutex
}

var _ layoutctx.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "context",
				Name:      "events_total",
				Help:      "Layout context lifecycle events.",
			},
			[]string{"event"},
		),
		destroyFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "destroy_failures_total",
				Help:      "Resource destroy calls the engine reported as failed.",
			},
			[]string{"kind"},
		),
		liveResources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "live_resources",
				Help:      "Engine resources currently tracked.",
			},
			[]string{"kind"},
		),
		liveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "handles",
			Name:      "live",
			Help:      "Handles currently registered.",
		}),
		liveContexts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "context",
			Name:      "live",
			Help:      "Observed contexts not yet disposed.",
		}),
		disposed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "context",
			Name:      "disposed_total",
			Help:      "Contexts that completed teardown.",
		}),
		handlesByOwner: make(map[string]int),
	}

	for _, c := range []prometheus.Collector{
		r.events, r.destroyFailed, r.liveResources, r.liveHandles, r.liveContexts, r.disposed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Attach counts the context id as live before it has emitted any event.
func (r *Recorder) Attach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlesByOwner[id]; ok {
		return
	}
	r.handlesByOwner[id] = 0
	r.liveContexts.Inc()
}

// OnContextEvent implements layoutctx.Observer.
func (r *Recorder) OnContextEvent(e layoutctx.Event) {
	r.events.WithLabelValues(e.Type.String()).Inc()

	switch e.Type {
	case layoutctx.EventHandleRegistered:
		r.adjustHandles(e.Context, 1)
	case layoutctx.EventHandleReleased:
		r.adjustHandles(e.Context, -1)
	case layoutctx.EventResourceTracked:
		r.liveResources.WithLabelValues(e.Kind.String()).Inc()
	case layoutctx.EventResourceDestroyed:
		r.liveResources.WithLabelValues(e.Kind.String()).Dec()
	case layoutctx.EventDestroyFailed:
		// the ledger drops the entry either way
		r.liveResources.WithLabelValues(e.Kind.String()).Dec()
		r.destroyFailed.WithLabelValues(e.Kind.String()).Inc()
	case layoutctx.EventDisposed:
		r.contextDisposed(e.Context)
	}
}

func (r *Recorder) adjustHandles(id string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlesByOwner[id]; !ok {
		r.liveContexts.Inc()
	}
	r.handlesByOwner[id] += delta
	r.liveHandles.Add(float64(delta))
}

// contextDisposed drops the handles a disposed table released in bulk.
func (r *Recorder) contextDisposed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.handlesByOwner[id]; ok {
		r.liveHandles.Sub(float64(n))
		delete(r.handlesByOwner, id)
		r.liveContexts.Dec()
	}
	r.disposed.Inc()
}
