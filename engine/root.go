package engine

import (
	"sync"

	"github.com/wippyai/layout-host/errors"
)

// Kind sentinels for errors returned by every engine.
var (
	ErrNotRooted = errors.ErrNotRooted
	ErrClosed    = errors.ErrEngineClosed
)

// rootState tracks which contexts have rooted the engine cursor. Roots nest:
// a context entering while another is rooted pushes onto the stack.
type rootState struct {
	owners []string
	mu     sync.Mutex
}

// Root implements guard.Rooter.
func (r *rootState) Root(owner string) {
	r.mu.Lock()
	r.owners = append(r.owners, owner)
	r.mu.Unlock()
}

// Unroot implements guard.Rooter.
func (r *rootState) Unroot() {
	r.mu.Lock()
	if n := len(r.owners); n > 0 {
		r.owners = r.owners[:n-1]
	}
	r.mu.Unlock()
}

// RootedAt returns the owner the cursor is currently rooted at.
func (r *rootState) RootedAt() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.owners) == 0 {
		return "", false
	}
	return r.owners[len(r.owners)-1], true
}

func (r *rootState) checkRooted() error {
	if _, ok := r.RootedAt(); !ok {
		return errors.NotRooted()
	}
	return nil
}
