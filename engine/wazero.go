package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/errors"
)

// Guest export names.
const (
	ExportCreatePage         = "create_page"
	ExportDestroyPage        = "destroy_page"
	ExportCreateBreakRecord  = "create_break_record"
	ExportDestroyBreakRecord = "destroy_break_record"
)

// WasmConfig holds configuration for a wazero-hosted engine
type WasmConfig struct {
	// MemoryLimitPages caps guest memory in 64KB pages. 0 means the wazero default.
	MemoryLimitPages uint32

	// ModuleName is the guest instance name. Defaults to "layout-engine".
	ModuleName string
}

// WasmEngine runs the layout engine as a wazero guest module.
type WasmEngine struct {
	rootState
	runtime wazero.Runtime
	module  api.Module
	live    map[layouthost.ResourceKind]map[layouthost.Pointer]struct{}
	fns     struct {
		createPage, destroyPage, createBreak, destroyBreak api.Function
	}
	mu     sync.Mutex
	closed bool
}

var _ Engine = (*WasmEngine)(nil)

// NewWasmEngine compiles and instantiates wasmBytes, which must export the
// guest ABI described in the package documentation.
func NewWasmEngine(ctx context.Context, wasmBytes []byte, cfg *WasmConfig) (*WasmEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	name := "layout-engine"
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.ModuleName != "" {
			name = cfg.ModuleName
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.EngineFailure("compile engine module", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.EngineFailure("instantiate engine module", err)
	}

	e := &WasmEngine{
		runtime: rt,
		module:  mod,
		live: map[layouthost.ResourceKind]map[layouthost.Pointer]struct{}{
			layouthost.KindPage:        {},
			layouthost.KindBreakRecord: {},
		},
	}

	bind := []struct {
		dst    *api.Function
		name   string
		params int
	}{
		{&e.fns.createPage, ExportCreatePage, 0},
		{&e.fns.destroyPage, ExportDestroyPage, 1},
		{&e.fns.createBreak, ExportCreateBreakRecord, 0},
		{&e.fns.destroyBreak, ExportDestroyBreakRecord, 1},
	}
	for _, b := range bind {
		fn, err := lookupExport(mod, b.name, b.params)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
		*b.dst = fn
	}

	Logger().Debug("wasm engine ready", zap.String("module", name))
	return e, nil
}

func lookupExport(mod api.Module, name string, params int) (api.Function, error) {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.EngineFailure(fmt.Sprintf("engine module does not export %q", name), nil)
	}
	def := fn.Definition()
	if len(def.ParamTypes()) != params || len(def.ResultTypes()) != 1 ||
		def.ResultTypes()[0] != api.ValueTypeI32 {
		return nil, errors.EngineFailure(
			fmt.Sprintf("export %q has signature %v -> %v", name, def.ParamTypes(), def.ResultTypes()), nil)
	}
	for _, p := range def.ParamTypes() {
		if p != api.ValueTypeI32 {
			return nil, errors.EngineFailure(fmt.Sprintf("export %q takes non-i32 parameter", name), nil)
		}
	}
	return fn, nil
}

// call invokes a guest export and returns its i32 result.
func (e *WasmEngine) call(ctx context.Context, fn api.Function, args ...uint64) (uint32, error) {
	if err := e.checkRooted(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errors.EngineClosed()
	}
	res, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, errors.EngineFailure("call "+fn.Definition().DebugName(), err)
	}
	return api.DecodeU32(res[0]), nil
}

func (e *WasmEngine) create(ctx context.Context, kind layouthost.ResourceKind, fn api.Function) (layouthost.Pointer, error) {
	addr, err := e.call(ctx, fn)
	if err != nil {
		return 0, err
	}
	if addr == 0 {
		return 0, errors.EngineFailure("create "+kind.String()+": guest returned null", nil)
	}
	ptr := layouthost.Pointer(addr)

	e.mu.Lock()
	e.live[kind][ptr] = struct{}{}
	e.mu.Unlock()
	return ptr, nil
}

func (e *WasmEngine) destroy(ctx context.Context, kind layouthost.ResourceKind, fn api.Function, ptr layouthost.Pointer) error {
	e.mu.Lock()
	_, ok := e.live[kind][ptr]
	e.mu.Unlock()
	if !ok {
		return errors.UnknownResource(errors.PhaseEngine, kind.String(), uintptr(ptr))
	}

	status, err := e.call(ctx, fn, api.EncodeU32(uint32(ptr)))
	if err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.live[kind], ptr)
	e.mu.Unlock()

	if status != 0 {
		return errors.New(errors.PhaseEngine, errors.KindEngineFailure).
			Value(status).
			Detail("destroy %s %v returned status %d", kind, ptr, status).
			Build()
	}
	return nil
}

// CreatePage implements Engine.
func (e *WasmEngine) CreatePage(ctx context.Context) (layouthost.Pointer, error) {
	return e.create(ctx, layouthost.KindPage, e.fns.createPage)
}

// DestroyPage implements Engine.
func (e *WasmEngine) DestroyPage(ctx context.Context, page layouthost.Pointer) error {
	return e.destroy(ctx, layouthost.KindPage, e.fns.destroyPage, page)
}

// CreateBreakRecord implements Engine.
func (e *WasmEngine) CreateBreakRecord(ctx context.Context) (layouthost.Pointer, error) {
	return e.create(ctx, layouthost.KindBreakRecord, e.fns.createBreak)
}

// DestroyBreakRecord implements Engine.
func (e *WasmEngine) DestroyBreakRecord(ctx context.Context, br layouthost.Pointer) error {
	return e.destroy(ctx, layouthost.KindBreakRecord, e.fns.destroyBreak, br)
}

// Live returns the number of outstanding resources of kind.
func (e *WasmEngine) Live(kind layouthost.ResourceKind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live[kind])
}

// Close closes the guest module and the wazero runtime. Resources still
// outstanding are reported and dropped with the guest memory.
func (e *WasmEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pages, breaks := len(e.live[layouthost.KindPage]), len(e.live[layouthost.KindBreakRecord])
	e.mu.Unlock()

	if pages+breaks > 0 {
		Logger().Warn("closing wasm engine with live resources",
			zap.Int("pages", pages),
			zap.Int("break_records", breaks))
	}
	return e.runtime.Close(ctx)
}
