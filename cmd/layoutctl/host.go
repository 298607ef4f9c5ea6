package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/layout-host/config"
	"github.com/wippyai/layout-host/dispatch"
	"github.com/wippyai/layout-host/engine"
	"github.com/wippyai/layout-host/layoutctx"
	"github.com/wippyai/layout-host/metrics"
	"github.com/wippyai/layout-host/workload"
)

// host owns the engine, the owner goroutine and the metrics shared by every
// context a command creates.
type host struct {
	cfg      config.Config
	log      *zap.Logger
	eng      engine.Engine
	d        *dispatch.Dispatcher
	registry *prometheus.Registry
	recorder *metrics.Recorder

	mu      sync.Mutex
	live    map[string]*layoutctx.Context
	reports []workload.Report
}

// Summary is the outcome of one batch of workload runs.
type Summary struct {
	Reports          []workload.Report `json:"reports"`
	Engine           string            `json:"engine"`
	DeferredExecuted uint64            `json:"deferred_executed"`
	DeferredDropped  uint64            `json:"deferred_dropped"`
	Elapsed          time.Duration     `json:"elapsed"`
}

func newHost(ctx context.Context, cfg config.Config, log *zap.Logger) (*host, error) {
	eng, err := newEngine(ctx, cfg.Engine)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	recorder, err := metrics.NewRecorder(registry)
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	return &host{
		cfg:      cfg,
		log:      log,
		eng:      eng,
		d:        dispatch.New(dispatch.WithQueueLimit(cfg.Dispatcher.QueueLimit), dispatch.WithLogger(log.Named("dispatch"))),
		registry: registry,
		recorder: recorder,
		live:     make(map[string]*layoutctx.Context),
	}, nil
}

func newEngine(ctx context.Context, cfg config.Engine) (engine.Engine, error) {
	switch cfg.Kind {
	case config.EngineMmap:
		eng, err := engine.NewMmapEngine(&engine.MmapConfig{
			PageSize:        cfg.PageSize,
			BreakRecordSize: cfg.BreakRecordSize,
		})
		if err != nil {
			return nil, err
		}
		return eng, nil
	default:
		module := engine.ReferenceModule()
		if cfg.ModulePath != "" {
			data, err := os.ReadFile(cfg.ModulePath)
			if err != nil {
				return nil, fmt.Errorf("read engine module: %w", err)
			}
			module = data
		}
		eng, err := engine.NewWasmEngine(ctx, module, &engine.WasmConfig{MemoryLimitPages: cfg.MemoryLimitPages})
		if err != nil {
			return nil, err
		}
		return eng, nil
	}
}

// runBatch runs the configured workload once per context, one context at a
// time, and disposes each context when its run is done.
func (h *host) runBatch(ctx context.Context, opts workload.Options) (Summary, error) {
	start := time.Now()
	executed, dropped := h.d.Executed(), h.d.Dropped()
	sum := Summary{Engine: h.cfg.Engine.Kind}

	for i := 0; i < h.cfg.Workload.Contexts; i++ {
		rep, err := h.runOne(ctx, opts)
		if err != nil {
			return sum, err
		}
		sum.Reports = append(sum.Reports, rep)
	}

	sum.DeferredExecuted = h.d.Executed() - executed
	sum.DeferredDropped = h.d.Dropped() - dropped
	sum.Elapsed = time.Since(start)
	return sum, nil
}

func (h *host) runOne(ctx context.Context, opts workload.Options) (workload.Report, error) {
	lc, err := layoutctx.New(h.eng, h.d,
		layoutctx.WithInitialCapacity(h.cfg.Context.InitialCapacity),
		layoutctx.WithObserver(h.recorder),
		layoutctx.WithLogger(h.log.Named("layoutctx")))
	if err != nil {
		return workload.Report{}, err
	}
	h.recorder.Attach(lc.ID())
	h.track(lc)
	defer h.untrack(lc)

	var rep workload.Report
	var runErr error
	if err := h.d.Invoke(ctx, func() { rep, runErr = workload.Run(ctx, lc, opts) }); err != nil {
		return rep, err
	}

	// Give collected pages a chance to take the deferred path before teardown.
	if runErr == nil {
		h.settle(ctx, lc)
	}

	var disposeErr error
	if err := h.d.Invoke(ctx, func() { disposeErr = lc.Dispose(ctx) }); err != nil {
		return rep, err
	}
	if runErr != nil {
		return rep, runErr
	}
	if disposeErr != nil {
		h.log.Warn("context teardown reported engine failures", zap.Error(disposeErr))
	}

	h.mu.Lock()
	h.reports = append(h.reports, rep)
	h.mu.Unlock()
	return rep, nil
}

func (h *host) settle(ctx context.Context, lc *layoutctx.Context) {
	deadline := time.Now().Add(h.cfg.Workload.Settle)
	for lc.Stats().Pages > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
}

func (h *host) track(lc *layoutctx.Context) {
	h.mu.Lock()
	h.live[lc.ID()] = lc
	h.mu.Unlock()
}

func (h *host) untrack(lc *layoutctx.Context) {
	h.mu.Lock()
	delete(h.live, lc.ID())
	h.mu.Unlock()
}

// stats returns a snapshot of every live context.
func (h *host) stats() []layoutctx.Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]layoutctx.Stats, 0, len(h.live))
	for _, lc := range h.live {
		out = append(out, lc.Stats())
	}
	return out
}

// lastReports returns up to n of the most recent reports, newest last.
func (h *host) lastReports(n int) []workload.Report {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.reports) > n {
		return append([]workload.Report(nil), h.reports[len(h.reports)-n:]...)
	}
	return append([]workload.Report(nil), h.reports...)
}

func (h *host) workloadOptions() workload.Options {
	return workload.Options{
		Paragraphs:        h.cfg.Workload.Paragraphs,
		PagesPerParagraph: h.cfg.Workload.PagesPerParagraph,
		ExplicitRatio:     h.cfg.Workload.ExplicitRatio,
	}
}

func (h *host) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Dispatcher.ShutdownTimeout)
	defer cancel()

	if err := h.d.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown dispatcher: %w", err)
	}
	return h.eng.Close(ctx)
}
