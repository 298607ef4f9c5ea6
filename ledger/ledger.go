// Package ledger tracks the engine-allocated resources owned by one context so
// that every page and break record is destroyed exactly once.
//
// Destruction is bracketed by the context guard unless the caller already holds
// it, and bookkeeping completes even when the engine reports a failure: the
// pointer is removed from the ledger and the failure is returned.
package ledger

import (
	"sync"

	"go.uber.org/multierr"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/errors"
)

// DestroyFunc is the native destruction call for one resource.
type DestroyFunc func(layouthost.Pointer) error

// Bracket is the enter/leave pair that must surround engine calls.
type Bracket interface {
	Enter() error
	Leave() error
}

type entryState uint8

const (
	entryTracked entryState = iota
	entryDestroying
)

// Ledger holds one set of live pointers per resource kind.
type Ledger struct {
	bracket Bracket
	sets    map[layouthost.ResourceKind]map[layouthost.Pointer]entryState
	mu      sync.Mutex
	closed  bool
}

// New creates an empty ledger whose destroys are bracketed by b.
func New(b Bracket) *Ledger {
	l := &Ledger{
		bracket: b,
		sets:    make(map[layouthost.ResourceKind]map[layouthost.Pointer]entryState, len(layouthost.ResourceKinds)),
	}
	for _, kind := range layouthost.ResourceKinds {
		l.sets[kind] = make(map[layouthost.Pointer]entryState)
	}
	return l
}

// Track records ptr as a live resource of the given kind. Tracking a pointer
// that is already present means the engine handed back an address it still
// owns, and is reported as a duplicate.
func (l *Ledger) Track(kind layouthost.ResourceKind, ptr layouthost.Pointer) error {
	if ptr == 0 {
		return errors.NilPointer(errors.PhaseTrack, kind.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.AlreadyDisposed(errors.PhaseTrack, "resource ledger")
	}
	set, ok := l.sets[kind]
	if !ok {
		return errors.UnknownResource(errors.PhaseTrack, kind.String(), uintptr(ptr))
	}
	if _, dup := set[ptr]; dup {
		return errors.DuplicateResource(kind.String(), uintptr(ptr))
	}
	set[ptr] = entryTracked
	return nil
}

// Contains reports whether ptr is tracked and not yet being destroyed.
func (l *Ledger) Contains(kind layouthost.ResourceKind, ptr layouthost.Pointer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.sets[kind][ptr]
	return ok && st == entryTracked
}

// Len returns the number of entries of the given kind, including entries
// whose destruction is in progress.
func (l *Ledger) Len(kind layouthost.ResourceKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sets[kind])
}

// Pointers returns a snapshot of the tracked pointers of the given kind.
func (l *Ledger) Pointers(kind layouthost.ResourceKind) []layouthost.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]layouthost.Pointer, 0, len(l.sets[kind]))
	for ptr, st := range l.sets[kind] {
		if st == entryTracked {
			out = append(out, ptr)
		}
	}
	return out
}

// Closed reports whether the ledger has been swept.
func (l *Ledger) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// UntrackAndDestroy destroys a tracked resource and removes it from the
// ledger. Unless guardHeld is set, destroy runs inside Enter/Leave. The entry
// is removed after destroy returns, whether or not it succeeded.
func (l *Ledger) UntrackAndDestroy(kind layouthost.ResourceKind, ptr layouthost.Pointer, destroy DestroyFunc, guardHeld bool) (err error) {
	if ptr == 0 {
		return errors.NilPointer(errors.PhaseDestroy, kind.String())
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.AlreadyDisposed(errors.PhaseDestroy, "resource ledger")
	}
	set := l.sets[kind]
	if st, ok := set[ptr]; !ok || st != entryTracked {
		l.mu.Unlock()
		return errors.UnknownResource(errors.PhaseDestroy, kind.String(), uintptr(ptr))
	}
	set[ptr] = entryDestroying
	l.mu.Unlock()

	if !guardHeld {
		if err := l.bracket.Enter(); err != nil {
			l.mu.Lock()
			set[ptr] = entryTracked
			l.mu.Unlock()
			return err
		}
		defer func() {
			if leaveErr := l.bracket.Leave(); leaveErr != nil && err == nil {
				err = leaveErr
			}
		}()
	}

	return l.destroy(kind, ptr, destroy)
}

// destroy invokes fn for an entry already marked destroying and removes it.
func (l *Ledger) destroy(kind layouthost.ResourceKind, ptr layouthost.Pointer, fn DestroyFunc) error {
	defer func() {
		l.mu.Lock()
		delete(l.sets[kind], ptr)
		l.mu.Unlock()
	}()

	if err := fn(ptr); err != nil {
		return errors.EngineDestroyFailed(kind.String(), uintptr(ptr), err)
	}
	return nil
}

// claim picks any tracked entry of kind and marks it destroying.
func (l *Ledger) claim(kind layouthost.ResourceKind) (layouthost.Pointer, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := l.sets[kind]
	for ptr, st := range set {
		if st == entryTracked {
			set[ptr] = entryDestroying
			return ptr, true
		}
	}
	return 0, false
}

// Sweep destroys every tracked resource inside a single guarded section,
// break records before pages, and closes the ledger. Entries are claimed one
// at a time, so a destroy callback may itself destroy other tracked entries.
// Engine failures are collected; every entry is removed regardless.
func (l *Ledger) Sweep(destroyers map[layouthost.ResourceKind]DestroyFunc) (err error) {
	for _, kind := range layouthost.ResourceKinds {
		if destroyers[kind] == nil {
			return errors.New(errors.PhaseTeardown, errors.KindEngineFailure).
				Detail("no destroy function for %s", kind).
				Build()
		}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	if err := l.bracket.Enter(); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, l.bracket.Leave())
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
	}()

	for _, kind := range layouthost.ResourceKinds {
		fn := destroyers[kind]
		for {
			ptr, ok := l.claim(kind)
			if !ok {
				break
			}
			err = multierr.Append(err, l.destroy(kind, ptr, fn))
		}
	}
	return err
}
