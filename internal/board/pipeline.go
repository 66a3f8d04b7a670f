package board

import (
	"context"
	"errors"
	"log/slog"

	"github.com/terra-clan/domain-lists/internal/analytics"
	"github.com/terra-clan/domain-lists/internal/lists"
	"github.com/terra-clan/domain-lists/internal/models"
	"github.com/terra-clan/domain-lists/internal/pagination"
	"github.com/terra-clan/domain-lists/internal/resolver"
	"github.com/terra-clan/domain-lists/internal/view"
)

// Common errors
var (
	ErrStale       = errors.New("superseded by a newer request")
	ErrGated       = errors.New("page blocked by gate")
	ErrNoSelection = errors.New("no filters applied yet")
)

// Resolver maps a selection to a list file
type Resolver interface {
	Resolve(sel models.FilterSelection) (resolver.ResourceID, error)
}

// Gate may block pages beyond the first pending some user action
type Gate interface {
	Allow(ctx context.Context, inv models.Invocation) bool
}

// AllowAll never blocks
type AllowAll struct{}

// Allow always returns true
func (AllowAll) Allow(context.Context, models.Invocation) bool { return true }

// Pipeline resolves, loads and renders one invocation. It holds no
// per-user state and is safe for concurrent use.
type Pipeline struct {
	resolver Resolver
	loader   lists.Loader
	gate     Gate
	reporter analytics.Reporter
	radius   int
}

// PipelineOption configures a pipeline
type PipelineOption func(*Pipeline)

// WithGate installs a gate for pages beyond the first
func WithGate(g Gate) PipelineOption {
	return func(p *Pipeline) {
		p.gate = g
	}
}

// WithReporter sets the analytics reporter
func WithReporter(r analytics.Reporter) PipelineOption {
	return func(p *Pipeline) {
		p.reporter = r
	}
}

// WithRadius sets the pagination window radius
func WithRadius(radius int) PipelineOption {
	return func(p *Pipeline) {
		p.radius = radius
	}
}

// NewPipeline creates a pipeline
func NewPipeline(res Resolver, loader lists.Loader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		resolver: res,
		loader:   loader,
		gate:     AllowAll{},
		reporter: analytics.Nop{},
		radius:   pagination.DefaultRadius,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one invocation.
//
// An unmapped selection returns resolver.ErrUnknownSelection and no view.
// A load failure returns an error view together with the error; the view is
// meant to be shown. A gated page returns ErrGated and no view.
func (p *Pipeline) Run(ctx context.Context, inv models.Invocation) (models.View, error) {
	if inv.Page < 1 {
		inv.Page = 1
	}

	id, err := p.resolver.Resolve(inv.Selection)
	if err != nil {
		slog.Error("filter selection has no mapping",
			"error", err,
			"type", inv.Selection.Type,
			"sort", inv.Selection.Sort,
			"date", inv.Selection.Date,
		)
		return models.View{}, err
	}

	if inv.Page > 1 && !p.allow(ctx, inv) {
		slog.Info("page gated", "file", id.Filename, "page", inv.Page)
		return models.View{}, ErrGated
	}

	results, err := p.loader.Load(ctx, id)
	if err != nil {
		slog.Warn("failed to load list", "error", err, "file", id.Filename, "page", inv.Page)
		p.report(ctx, analytics.NewEvent("load", "error", id.Filename, int64(inv.Page)))
		return view.Error(inv, lists.Reason(err)), err
	}

	v := view.Build(inv, results, p.radius)
	p.report(ctx, analytics.NewEvent("list", "view", id.Filename, int64(v.Page.CurrentPage)))
	return v, nil
}

// allow consults the gate. A panicking gate does not block the page.
func (p *Pipeline) allow(ctx context.Context, inv models.Invocation) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("gate panicked, allowing page", "panic", rec, "page", inv.Page)
			ok = true
		}
	}()
	return p.gate.Allow(ctx, inv)
}

func (p *Pipeline) report(ctx context.Context, ev analytics.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analytics reporter panicked", "panic", rec, "category", ev.Category)
		}
	}()
	p.reporter.Report(ctx, ev)
}
