package workload

import (
	"context"
	"fmt"

	"github.com/wippyai/layout-host/layoutctx"
)

// Options sizes a workload run.
type Options struct {
	Paragraphs        int
	PagesPerParagraph int

	// ExplicitRatio is the share of paragraphs closed explicitly. The rest
	// are abandoned.
	ExplicitRatio float64
}

// Report summarises a workload run.
type Report struct {
	Context        string          `json:"context"`
	Paragraphs     int             `json:"paragraphs"`
	Pages          int             `json:"pages"`
	ExplicitPages  int             `json:"explicit_pages"`
	AbandonedPages int             `json:"abandoned_pages"`
	After          layoutctx.Stats `json:"after"`
}

// Run formats opts.Paragraphs paragraphs on lc, closes the first share of
// them explicitly and abandons the rest. Run must be called on lc's owner
// goroutine and does not dispose lc.
func Run(ctx context.Context, lc *layoutctx.Context, opts Options) (Report, error) {
	rep := Report{Context: lc.ID()}
	explicit := int(float64(opts.Paragraphs)*opts.ExplicitRatio + 0.5)

	for i := 0; i < opts.Paragraphs; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		p, err := NewParagraph(lc, fmt.Sprintf("paragraph %d", i))
		if err != nil {
			return rep, err
		}
		if err := p.Format(ctx, opts.PagesPerParagraph); err != nil {
			return rep, err
		}
		rep.Paragraphs++
		rep.Pages += len(p.Pages())

		if i < explicit {
			n := len(p.Pages())
			if err := p.Close(ctx); err != nil {
				return rep, err
			}
			rep.ExplicitPages += n
			continue
		}
		n, err := p.Abandon()
		if err != nil {
			return rep, err
		}
		rep.AbandonedPages += n
	}

	rep.After = lc.Stats()
	return rep, nil
}
