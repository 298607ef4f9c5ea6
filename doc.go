// Package layouthost is the resource-identity and lifecycle layer of a host that
// drives an opaque native layout engine.
//
// The layout algorithms themselves live in the engine and are reached only
// through a narrow call surface. This module owns what the host needs around
// that surface: small integer handles for managed objects that cross into the
// engine, tracked ownership of the pages and break records the engine
// allocates, the enter/leave bracket around every engine call, and disposal
// that is safe whether it is requested explicitly or by a garbage-collector
// cleanup running on another goroutine.
//
// # Architecture Overview
//
//	layouthost/          Pointer and ResourceKind vocabulary
//	├── handle/          Generational slot map (object <-> handle)
//	├── ledger/          Live pages and break records, guarded destroy, sweep
//	├── guard/           Enter/leave bracket around engine calls
//	├── layoutctx/       Per-document Context and its disposal state machine
//	├── dispatch/        Owner goroutine work queue for deferred destruction
//	├── engine/          Engine interface, wazero-hosted and mmap-backed engines
//	├── metrics/         Prometheus recorder for context events
//	├── config/          TOML configuration
//	├── logging/         zap logger construction
//	├── workload/        Paragraph and page collaborators
//	└── errors/          Structured error types
//
// # Quick Start
//
//	d := dispatch.New()
//	defer d.Shutdown(ctx)
//
//	eng, err := engine.NewMmapEngine(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close(ctx)
//
//	lc, err := layoutctx.New(eng, d)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lc.Dispose(ctx)
//
//	h, _ := lc.Register(para)
//	page, _ := lc.CreatePage(ctx)
//	...
//	_ = lc.PageDisposed(ctx, page, true)
//	_ = lc.Release(h)
//
// # Thread Safety
//
// A Context has a single logical owner goroutine. Only Dispose and the
// finalizer-driven disposal path may be called from other goroutines; the
// latter marshals the actual destruction onto the owner's work queue.
package layouthost
