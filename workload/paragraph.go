package workload

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	layouthost "github.com/wippyai/layout-host"
	"github.com/wippyai/layout-host/handle"
	"github.com/wippyai/layout-host/layoutctx"
)

// Paragraph is a managed object formatted by the engine into pages. The
// engine refers to it only by handle.
type Paragraph struct {
	lc     *layoutctx.Context
	text   string
	pages  []*Page
	handle handle.Handle
	resume layouthost.Pointer
}

// NewParagraph registers a paragraph with lc.
func NewParagraph(lc *layoutctx.Context, text string) (*Paragraph, error) {
	p := &Paragraph{lc: lc, text: text}
	h, err := lc.Register(p)
	if err != nil {
		return nil, err
	}
	p.handle = h
	return p, nil
}

// Handle returns the paragraph's handle.
func (p *Paragraph) Handle() handle.Handle {
	return p.handle
}

// Pages returns the pages formatted so far.
func (p *Paragraph) Pages() []*Page {
	return p.pages
}

// Format lays out n more pages. Each step allocates a break record to resume
// from and a page, then runs the engine's layout callback, which resolves
// the paragraph by handle and frees the previous resume point.
func (p *Paragraph) Format(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		br, err := p.lc.CreateBreakRecord(ctx)
		if err != nil {
			return err
		}
		ptr, err := p.lc.CreatePage(ctx)
		if err != nil {
			return err
		}
		p.pages = append(p.pages, newPage(p.lc, ptr))

		prev := p.resume
		p.resume = br
		if err := p.lc.Guarded(func() error { return p.layoutCallback(ctx, prev) }); err != nil {
			return err
		}
	}
	return nil
}

// layoutCallback is what the engine calls back into while formatting.
func (p *Paragraph) layoutCallback(ctx context.Context, prev layouthost.Pointer) error {
	v, err := p.lc.Resolve(p.handle)
	if err != nil {
		return err
	}
	if v != p {
		return fmt.Errorf("handle %v resolved to %T, not this paragraph", p.handle, v)
	}
	if prev == 0 {
		return nil
	}
	return p.lc.DestroyBreakRecordInCallback(ctx, prev)
}

// Close destroys every page and the resume point, then releases the handle.
func (p *Paragraph) Close(ctx context.Context) error {
	var err error
	for _, page := range p.pages {
		err = multierr.Append(err, page.Close(ctx))
	}
	p.pages = nil
	if p.resume != 0 {
		err = multierr.Append(err, p.lc.BreakRecordDisposed(ctx, p.resume, true))
		p.resume = 0
	}
	return multierr.Append(err, p.lc.Release(p.handle))
}

// Abandon releases the handle and drops the pages without closing them. The
// resume point stays with the context until teardown.
func (p *Paragraph) Abandon() (int, error) {
	n := len(p.pages)
	p.pages = nil
	return n, p.lc.Release(p.handle)
}
