// Package enrich fills watchlist rows and index quotes with live market data.
package enrich

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/komsit37/fundwl/pkg/fw/eligibility"
	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/merge"
	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// DefaultConcurrency bounds parallel fund fetches.
const DefaultConcurrency = 8

// Invalidator drops cached history for a fund.
type Invalidator interface {
	Invalidate(ctx context.Context, code string) error
}

// Refresher updates rows for a watchlist. Each fund is fetched independently;
// a failing fund keeps its previous values and gets an error marker.
type Refresher struct {
	merger      *merge.Merger
	estimates   merge.EstimateSource
	cache       Invalidator
	clock       session.Clock
	concurrency int
}

// NewRefresher builds a refresher. cache may be nil.
func NewRefresher(m *merge.Merger, estimates merge.EstimateSource, cache Invalidator, clock session.Clock, concurrency int) *Refresher {
	if clock == nil {
		clock = session.SystemClock{}
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Refresher{merger: m, estimates: estimates, cache: cache, clock: clock, concurrency: concurrency}
}

// Refresh returns one row per entry, in entry order. prev holds the rows from
// the last refresh, matched by fund code.
func (r *Refresher) Refresh(ctx context.Context, entries []types.WatchlistEntry, prev []types.Row) []types.Row {
	byCode := make(map[string]types.Row, len(prev))
	for _, p := range prev {
		byCode[p.Entry.FundCode] = p
	}
	out := make([]types.Row, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			out[i] = r.refresh(gctx, e, byCode[e.FundCode])
			return nil
		})
	}
	g.Wait()
	return out
}

// RefreshOne drops cached history for e and refreshes it alone.
func (r *Refresher) RefreshOne(ctx context.Context, e types.WatchlistEntry, prev types.Row) types.Row {
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, e.FundCode); err != nil {
			logging.L().Warn("invalidate history failed", zap.String("fund", e.FundCode), zap.Error(err))
		}
	}
	return r.refresh(ctx, e, prev)
}

func (r *Refresher) refresh(ctx context.Context, e types.WatchlistEntry, prev types.Row) types.Row {
	row := prev
	row.Entry = e
	row.Err = ""

	in := merge.Input{Code: e.FundCode, TypeCode: e.TypeCode, TypeLabel: e.TypeLabel, Name: e.Name}
	var est types.Estimate
	if session.EstimateWindow(r.clock.Now()) && eligibility.SupportsRealtimeEstimate(e.TypeCode, e.TypeLabel, e.Name) {
		res := r.fetchEstimate(ctx, e.FundCode)
		in.Estimate = &res
		if res.OK() {
			est = res.Value
		} else {
			row.Err = res.Err.Error()
		}
	}

	d, ok := r.merger.Merge(ctx, in)
	if !ok {
		if row.Err == "" && prev.Display == nil {
			row.Err = "no data"
		}
		return row
	}
	row.Display = &d
	if row.Err != "" {
		// keep the previous estimate figures; only the fallback display changes
		return row
	}

	if est.EstimateNav > 0 {
		row.EstimateNav = est.EstimateNav
		row.EstimateGrowth = est.EstimateGrowth
		row.ValuationTime = est.ValuationTime
	}
	switch {
	case d.IsRealtime && d.PreviousNav > 0:
		row.Nav = d.PreviousNav
	case !d.IsRealtime:
		row.Nav = d.NetValue
	}
	return row
}

func (r *Refresher) fetchEstimate(ctx context.Context, code string) types.Result[types.Estimate] {
	if r.estimates == nil {
		return types.Fail[types.Estimate](errNoEstimates)
	}
	est, err := r.estimates.FetchEstimate(ctx, code)
	if err != nil {
		return types.Fail[types.Estimate](err)
	}
	return types.Ok(est)
}
