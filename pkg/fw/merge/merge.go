// Package merge decides which value to display for a fund: the vendor's
// real-time estimate, the latest official NAV, or nothing at all. It never
// produces a zero value in place of a missing one.
package merge

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/eligibility"
	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

var errNoEstimateSource = errors.New("merge: no estimate source configured")

// HistorySource loads official NAV history, typically through the cache.
type HistorySource interface {
	FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error)
}

// EstimateSource loads a real-time estimate.
type EstimateSource interface {
	FetchEstimate(ctx context.Context, code string) (types.Estimate, error)
}

// Input describes one fund to merge.
type Input struct {
	Code string
	// History is the caller-supplied series. nil means not supplied and the
	// history source is consulted; an empty non-nil slice means no history.
	History []types.NavPoint

	TypeCode  string
	TypeLabel string
	Name      string

	// Estimate is an already fetched estimate. When nil and an estimate is
	// needed, the estimate source is called.
	Estimate *types.Result[types.Estimate]
}

// Merger is safe for concurrent use when its sources are.
type Merger struct {
	history   HistorySource
	estimates EstimateSource
	clock     session.Clock
}

func New(history HistorySource, estimates EstimateSource, clock session.Clock) *Merger {
	if clock == nil {
		clock = session.SystemClock{}
	}
	return &Merger{history: history, estimates: estimates, clock: clock}
}

// Merge returns the record to display and true, or false when neither an
// estimate nor official history is available. Callers keep their previous
// value on false.
func (m *Merger) Merge(ctx context.Context, in Input) (types.DisplayRecord, bool) {
	log := logging.L().With(zap.String("fund", in.Code))

	history := m.resolveHistory(ctx, in, log)
	latest, prevNav, hasOfficial := types.LatestAndPrevious(history)

	now := m.clock.Now()
	if session.EstimateWindow(now) && eligibility.SupportsRealtimeEstimate(in.TypeCode, in.TypeLabel, in.Name) {
		res := m.estimate(ctx, in)
		switch est, err := res.Get(); {
		case err != nil:
			log.Warn("estimate unavailable", zap.Error(err))
		case est.EstimateNav <= 0:
			log.Debug("vendor returned no estimate")
		default:
			prev := est.Nav
			if prev <= 0 {
				prev = prevNav
			}
			return types.DisplayRecord{
				NetValue:      est.EstimateNav,
				ChangePercent: est.EstimateGrowth,
				PreviousNav:   prev,
				IsRealtime:    true,
				DataSource:    types.SourceRealtime,
				UpdateTime:    est.ValuationTime,
				StatusLabel:   session.StatusLabel(now, true, est.ValuationTime),
			}, true
		}
	}

	if hasOfficial {
		return types.DisplayRecord{
			NetValue:      latest.Nav,
			ChangePercent: latest.DailyGrowthPct,
			PreviousNav:   prevNav,
			DataSource:    types.SourceOfficial,
			UpdateTime:    latest.Date,
			StatusLabel:   session.StatusLabel(now, false, latest.Date),
		}, true
	}
	log.Debug("no value to display")
	return types.DisplayRecord{}, false
}

func (m *Merger) resolveHistory(ctx context.Context, in Input, log *zap.Logger) []types.NavPoint {
	if in.History != nil || m.history == nil {
		return in.History
	}
	h, err := m.history.FetchHistory(ctx, in.Code)
	if err != nil {
		log.Warn("history unavailable", zap.Error(err))
		return nil
	}
	return h
}

func (m *Merger) estimate(ctx context.Context, in Input) types.Result[types.Estimate] {
	if in.Estimate != nil {
		return *in.Estimate
	}
	if m.estimates == nil {
		return types.Fail[types.Estimate](errNoEstimateSource)
	}
	est, err := m.estimates.FetchEstimate(ctx, in.Code)
	if err != nil {
		return types.Fail[types.Estimate](err)
	}
	return types.Ok(est)
}
