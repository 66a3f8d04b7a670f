package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/terra-clan/domain-lists/internal/analytics"
	"github.com/terra-clan/domain-lists/internal/models"
)

// Presenter binds views to a concrete UI. Calls are serialised by the
// controller; seq is the sequence number of the request that produced v.
type Presenter interface {
	Present(ctx context.Context, seq uint64, v models.View) error
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(ctx context.Context, seq uint64, v models.View) error

// Present calls f
func (f PresenterFunc) Present(ctx context.Context, seq uint64, v models.View) error {
	return f(ctx, seq, v)
}

// Controller owns the state of one board: the last requested invocation and
// the request sequence. Only the most recently issued request may paint.
type Controller struct {
	pipeline  *Pipeline
	presenter Presenter
	reporter  analytics.Reporter

	// mu guards last and the issuing of sequence numbers. presentMu only
	// serialises painting, so a slow presenter never delays issuing.
	mu        sync.Mutex
	seq       atomic.Uint64
	last      models.Invocation
	hasLast   bool
	presentMu sync.Mutex
}

// NewController creates a controller presenting through p
func NewController(pipeline *Pipeline, p Presenter) *Controller {
	return &Controller{
		pipeline:  pipeline,
		presenter: p,
		reporter:  pipeline.reporter,
	}
}

// Apply runs a new selection starting from page 1
func (c *Controller) Apply(ctx context.Context, sel models.FilterSelection) error {
	c.report(ctx, analytics.NewEvent("filter", "apply", string(sel.Type), int64(sel.Limit)))
	return c.run(ctx, models.Invocation{Selection: sel, Page: 1})
}

// GoTo moves to another page of the current selection
func (c *Controller) GoTo(ctx context.Context, page int) error {
	c.mu.Lock()
	if !c.hasLast {
		c.mu.Unlock()
		return ErrNoSelection
	}
	sel := c.last.Selection
	c.mu.Unlock()

	c.report(ctx, analytics.NewEvent("pagination", "page", "", int64(page)))
	return c.run(ctx, models.Invocation{Selection: sel, Page: page})
}

// Retry re-runs the last invocation unchanged
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if !c.hasLast {
		c.mu.Unlock()
		return ErrNoSelection
	}
	inv := c.last
	c.mu.Unlock()

	c.report(ctx, analytics.NewEvent("filter", "retry", "", int64(inv.Page)))
	return c.run(ctx, inv)
}

// Last returns the most recently issued invocation
func (c *Controller) Last() (models.Invocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// run issues inv under a new sequence number and presents its view if no
// newer request was issued in the meantime
func (c *Controller) run(ctx context.Context, inv models.Invocation) error {
	c.mu.Lock()
	seq := c.seq.Add(1)
	c.last = inv
	c.hasLast = true
	c.mu.Unlock()

	v, runErr := c.pipeline.Run(ctx, inv)
	if runErr != nil && v.State != models.ViewError {
		return runErr
	}

	c.presentMu.Lock()
	defer c.presentMu.Unlock()

	if latest := c.seq.Load(); seq != latest {
		slog.Debug("discarding stale view", "seq", seq, "latest", latest, "page", inv.Page)
		return ErrStale
	}

	if err := c.presenter.Present(ctx, seq, v); err != nil {
		return fmt.Errorf("failed to present view: %w", err)
	}
	return runErr
}

func (c *Controller) report(ctx context.Context, ev analytics.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analytics reporter panicked", "panic", rec, "category", ev.Category)
		}
	}()
	c.reporter.Report(ctx, ev)
}
