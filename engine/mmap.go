package engine

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/errors"
)

// MmapConfig sizes the regions backing each resource kind.
type MmapConfig struct {
	// PageSize is the size of one page region. Defaults to the OS page size.
	PageSize int

	// BreakRecordSize is the size of one break record region. Rounded up to
	// the OS page size. Defaults to the OS page size.
	BreakRecordSize int
}

// MmapEngine backs every resource with its own anonymous mapping. The
// resource pointer is the mapping address and destroy unmaps it.
type MmapEngine struct {
	rootState
	regions map[layouthost.Pointer]region
	sizes   [2]int
	mu      sync.Mutex
	closed  bool
}

type region struct {
	mem  []byte
	kind layouthost.ResourceKind
}

var _ Engine = (*MmapEngine)(nil)

// NewMmapEngine creates an mmap-backed engine.
func NewMmapEngine(cfg *MmapConfig) (*MmapEngine, error) {
	osPage := os.Getpagesize()
	pageSize, brSize := osPage, osPage
	if cfg != nil {
		if cfg.PageSize < 0 || cfg.BreakRecordSize < 0 {
			return nil, errors.InvalidConfig("mmap sizes must not be negative")
		}
		if cfg.PageSize > 0 {
			pageSize = roundUp(cfg.PageSize, osPage)
		}
		if cfg.BreakRecordSize > 0 {
			brSize = roundUp(cfg.BreakRecordSize, osPage)
		}
	}

	e := &MmapEngine{regions: make(map[layouthost.Pointer]region)}
	e.sizes[layouthost.KindPage] = pageSize
	e.sizes[layouthost.KindBreakRecord] = brSize
	return e, nil
}

func roundUp(n, to int) int {
	return (n + to - 1) / to * to
}

func (e *MmapEngine) create(kind layouthost.ResourceKind) (layouthost.Pointer, error) {
	if err := e.checkRooted(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errors.EngineClosed()
	}

	mem, err := mapRegion(e.sizes[kind])
	if err != nil {
		return 0, errors.EngineFailure("create "+kind.String(), err)
	}
	ptr := regionAddr(mem)
	e.regions[ptr] = region{mem: mem, kind: kind}
	return ptr, nil
}

func (e *MmapEngine) destroy(kind layouthost.ResourceKind, ptr layouthost.Pointer) error {
	if err := e.checkRooted(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errors.EngineClosed()
	}

	r, ok := e.regions[ptr]
	if !ok || r.kind != kind {
		return errors.UnknownResource(errors.PhaseEngine, kind.String(), uintptr(ptr))
	}
	delete(e.regions, ptr)
	if err := unmapRegion(r.mem); err != nil {
		return errors.EngineFailure("unmap "+kind.String(), err)
	}
	return nil
}

// CreatePage implements Engine.
func (e *MmapEngine) CreatePage(_ context.Context) (layouthost.Pointer, error) {
	return e.create(layouthost.KindPage)
}

// DestroyPage implements Engine.
func (e *MmapEngine) DestroyPage(_ context.Context, page layouthost.Pointer) error {
	return e.destroy(layouthost.KindPage, page)
}

// CreateBreakRecord implements Engine.
func (e *MmapEngine) CreateBreakRecord(_ context.Context) (layouthost.Pointer, error) {
	return e.create(layouthost.KindBreakRecord)
}

// DestroyBreakRecord implements Engine.
func (e *MmapEngine) DestroyBreakRecord(_ context.Context, br layouthost.Pointer) error {
	return e.destroy(layouthost.KindBreakRecord, br)
}

// Bytes returns the memory backing ptr, or nil if ptr is not mapped.
func (e *MmapEngine) Bytes(ptr layouthost.Pointer) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regions[ptr].mem
}

// Live returns the number of mapped regions of kind.
func (e *MmapEngine) Live(kind layouthost.ResourceKind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, r := range e.regions {
		if r.kind == kind {
			n++
		}
	}
	return n
}

// Close unmaps every region still outstanding.
func (e *MmapEngine) Close(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if len(e.regions) > 0 {
		Logger().Warn("closing mmap engine with live regions", zap.Int("regions", len(e.regions)))
	}
	var firstErr error
	for ptr, r := range e.regions {
		if err := unmapRegion(r.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.regions, ptr)
	}
	return firstErr
}
