package engine

import (
	"context"
	"errors"
	"testing"

	layouthost "github.com/wippyai/layout-host"
	lherrors "github.com/wippyai/layout-host/errors"
)

func newReferenceEngine(t *testing.T, cfg *WasmConfig) *WasmEngine {
	t.Helper()
	ctx := context.Background()
	e, err := NewWasmEngine(ctx, ReferenceModule(), cfg)
	if err != nil {
		t.Fatalf("NewWasmEngine failed: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func TestNewWasmEngine(t *testing.T) {
	tests := []struct {
		cfg  *WasmConfig
		name string
	}{
		{nil, "nil config"},
		{&WasmConfig{}, "default config"},
		{&WasmConfig{MemoryLimitPages: 16}, "1MB limit"},
		{&WasmConfig{ModuleName: "custom"}, "named module"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newReferenceEngine(t, tc.cfg)
			if e.runtime == nil {
				t.Error("engine runtime should not be nil")
			}
		})
	}
}

func TestNewWasmEngine_InvalidModule(t *testing.T) {
	_, err := NewWasmEngine(context.Background(), []byte{0x00, 0x61, 0x73}, nil)
	if !errors.Is(err, lherrors.ErrEngineFailure) {
		t.Fatalf("expected engine failure, got %v", err)
	}
}

func TestNewWasmEngine_MissingExport(t *testing.T) {
	// empty module: magic + version only
	empty := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	_, err := NewWasmEngine(context.Background(), empty, nil)
	if !errors.Is(err, lherrors.ErrEngineFailure) {
		t.Fatalf("expected engine failure, got %v", err)
	}
}

func TestReferenceModule_ReturnsCopy(t *testing.T) {
	a := ReferenceModule()
	a[0] = 0xff
	if ReferenceModule()[0] != 0x00 {
		t.Fatal("ReferenceModule must return a fresh copy")
	}
}

func TestWasmEngine_RequiresRoot(t *testing.T) {
	e := newReferenceEngine(t, nil)

	_, err := e.CreatePage(context.Background())
	if !errors.Is(err, ErrNotRooted) {
		t.Fatalf("expected ErrNotRooted, got %v", err)
	}
	if kind := lherrors.KindOf(err); kind != lherrors.KindNotRooted {
		t.Errorf("kind = %q, want %q", kind, lherrors.KindNotRooted)
	}
}

func TestWasmEngine_CreateDestroy(t *testing.T) {
	ctx := context.Background()
	e := newReferenceEngine(t, nil)
	e.Root("test")
	defer e.Unroot()

	p1, err := e.CreatePage(ctx)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	p2, err := e.CreatePage(ctx)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if p1 != 4096 || p2 != 8192 {
		t.Errorf("pages = %v, %v; want 0x1000, 0x2000", p1, p2)
	}

	br, err := e.CreateBreakRecord(ctx)
	if err != nil {
		t.Fatalf("CreateBreakRecord: %v", err)
	}
	if br != 16 {
		t.Errorf("break record = %v, want 0x10", br)
	}

	if got := e.Live(layouthost.KindPage); got != 2 {
		t.Errorf("live pages = %d, want 2", got)
	}

	if err := e.DestroyPage(ctx, p1); err != nil {
		t.Errorf("DestroyPage: %v", err)
	}
	if err := e.DestroyBreakRecord(ctx, br); err != nil {
		t.Errorf("DestroyBreakRecord: %v", err)
	}
	if got := e.Live(layouthost.KindPage); got != 1 {
		t.Errorf("live pages = %d, want 1", got)
	}
	if got := e.Live(layouthost.KindBreakRecord); got != 0 {
		t.Errorf("live break records = %d, want 0", got)
	}
}

func TestWasmEngine_DestroyUnknown(t *testing.T) {
	ctx := context.Background()
	e := newReferenceEngine(t, nil)
	e.Root("test")
	defer e.Unroot()

	err := e.DestroyPage(ctx, 0x1000)
	if !errors.Is(err, lherrors.ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource for an unallocated page, got %v", err)
	}

	p, err := e.CreatePage(ctx)
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	// a page address is not a break record
	if err := e.DestroyBreakRecord(ctx, p); err == nil {
		t.Fatal("destroying a page as a break record should fail")
	}
	if err := e.DestroyPage(ctx, p); err != nil {
		t.Fatalf("DestroyPage: %v", err)
	}
	if err := e.DestroyPage(ctx, p); lherrors.KindOf(err) != lherrors.KindUnknownResource {
		t.Fatalf("second destroy: kind %q, want %q", lherrors.KindOf(err), lherrors.KindUnknownResource)
	}
}

func TestWasmEngine_Close(t *testing.T) {
	ctx := context.Background()
	e, err := NewWasmEngine(ctx, ReferenceModule(), nil)
	if err != nil {
		t.Fatalf("NewWasmEngine: %v", err)
	}
	e.Root("test")
	defer e.Unroot()

	if _, err := e.CreatePage(ctx); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := e.CreatePage(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestRootState_Nesting(t *testing.T) {
	var r rootState
	if _, ok := r.RootedAt(); ok {
		t.Fatal("fresh state should not be rooted")
	}
	r.Root("a")
	r.Root("b")
	if owner, _ := r.RootedAt(); owner != "b" {
		t.Errorf("rooted at %q, want b", owner)
	}
	r.Unroot()
	if owner, _ := r.RootedAt(); owner != "a" {
		t.Errorf("rooted at %q, want a", owner)
	}
	r.Unroot()
	r.Unroot() // extra unroot is harmless
	if err := r.checkRooted(); !errors.Is(err, ErrNotRooted) {
		t.Errorf("expected ErrNotRooted, got %v", err)
	}
}
