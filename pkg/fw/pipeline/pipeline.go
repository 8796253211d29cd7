// Package pipeline loads the watchlist, refreshes it and renders the result.
package pipeline

import (
	"context"
	"io"
	"sync"

	"github.com/komsit37/fundwl/pkg/fw/columns"
	"github.com/komsit37/fundwl/pkg/fw/filter"
	"github.com/komsit37/fundwl/pkg/fw/render"
	"github.com/komsit37/fundwl/pkg/fw/source"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Refresher fills rows with market data; prev holds the rows of the last run.
type Refresher interface {
	Refresh(ctx context.Context, entries []types.WatchlistEntry, prev []types.Row) []types.Row
}

// Runner remembers the rows of its last run, so repeated Execute calls (as in
// watch mode) keep the last good values of funds whose refresh fails.
type Runner struct {
	Source    source.Source
	Refresher Refresher
	Renderer  render.Renderer
	Writer    io.Writer

	mu   sync.Mutex
	prev map[string]types.Row
}

type ExecuteOptions struct {
	Columns     []string
	Filter      filter.Filter
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

func (r *Runner) Execute(ctx context.Context, spec any, opts ExecuteOptions) error {
	groups, err := r.Source.Load(ctx, spec)
	if err != nil {
		return err
	}

	if opts.Filter != nil {
		filtered := make([]source.Group, 0, len(groups))
		for _, g := range groups {
			g.Entries = filter.Entries(opts.Filter, g.Entries)
			if len(g.Entries) > 0 {
				filtered = append(filtered, g)
			}
		}
		groups = filtered
	}

	var all []types.WatchlistEntry
	for _, g := range groups {
		all = append(all, g.Entries...)
	}
	rows := r.refresh(ctx, all)

	sections := make([]render.Section, 0, len(groups))
	i := 0
	for _, g := range groups {
		sec := render.Section{Name: g.Name, Rows: rows[i : i+len(g.Entries)]}
		i += len(g.Entries)
		cols := g.Columns
		if len(opts.Columns) > 0 {
			cols = opts.Columns
		}
		sec.Columns = columns.Compute(cols, sec.Rows)
		sections = append(sections, sec)
	}

	return r.Renderer.Render(r.Writer, sections, render.RenderOptions{
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
	})
}

func (r *Runner) refresh(ctx context.Context, entries []types.WatchlistEntry) []types.Row {
	r.mu.Lock()
	prev := make([]types.Row, 0, len(r.prev))
	for _, p := range r.prev {
		prev = append(prev, p)
	}
	r.mu.Unlock()

	var rows []types.Row
	if r.Refresher != nil {
		rows = r.Refresher.Refresh(ctx, entries, prev)
	} else {
		rows = make([]types.Row, len(entries))
		for i, e := range entries {
			rows[i] = types.Row{Entry: e}
		}
	}

	r.mu.Lock()
	if r.prev == nil {
		r.prev = map[string]types.Row{}
	}
	for _, row := range rows {
		r.prev[row.Entry.FundCode] = row
	}
	r.mu.Unlock()
	return rows
}

// Rows returns the last known row of every fund seen so far.
func (r *Runner) Rows() map[string]types.Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]types.Row, len(r.prev))
	for k, v := range r.prev {
		out[k] = v
	}
	return out
}
