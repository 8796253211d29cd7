// Package watchlist manages the funds a user follows: adding with validation,
// removal, holdings, ordering and fund type enrichment.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/komsit37/fundwl/pkg/fw/holding"
	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/store"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

var (
	ErrInvalidCode = errors.New("基金代码格式错误（应为6位数字）")
	ErrDuplicate   = errors.New("该基金已在自选列表中")
	ErrNotFound    = errors.New("基金代码不存在或无法访问")
)

// DefaultTypeDelay spaces fund lookups during RefreshTypes.
const DefaultTypeDelay = 600 * time.Millisecond

var codeRe = regexp.MustCompile(`^\d{6}$`)

// FundLookup confirms a fund exists and returns its type.
type FundLookup interface {
	Lookup(ctx context.Context, code string) (types.FundInfo, error)
}

// HistorySource loads official NAV history.
type HistorySource interface {
	FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error)
}

// EstimateSource loads a fund's real-time quote.
type EstimateSource interface {
	FetchEstimate(ctx context.Context, code string) (types.Estimate, error)
}

// AddResult reports the outcome of Add. Validation failures are results,
// not errors: Success is false and Message is fit for the user.
type AddResult struct {
	Success bool
	Message string
	Entry   types.WatchlistEntry
	// Err is the sentinel behind a failure, for errors.Is.
	Err error
}

func failed(err error) AddResult {
	return AddResult{Message: err.Error(), Err: err}
}

// AddOptions carries an optional holding for Add.
type AddOptions struct {
	Amount float64
	// Cost per share; 0 uses the quote's NAV, then its estimate, then the
	// latest official NAV.
	Cost float64
}

// Service implements watchlist operations over a store. A negative typeDelay
// passed to NewService uses DefaultTypeDelay.
type Service struct {
	store     store.Store
	funds     FundLookup
	history   HistorySource
	estimates EstimateSource
	clock     session.Clock
	typeDelay time.Duration
}

// NewService builds a Service. estimates may be nil; default costs then come
// from history alone.
func NewService(s store.Store, funds FundLookup, history HistorySource, estimates EstimateSource, clock session.Clock, typeDelay time.Duration) *Service {
	if clock == nil {
		clock = session.SystemClock{}
	}
	if typeDelay < 0 {
		typeDelay = DefaultTypeDelay
	}
	return &Service{store: s, funds: funds, history: history, estimates: estimates, clock: clock, typeDelay: typeDelay}
}

// Category is the part of a type label before the first "-", e.g. "混合型"
// for "混合型-偏股".
func Category(typeLabel string) string {
	c, _, _ := strings.Cut(typeLabel, "-")
	return strings.TrimSpace(c)
}

// Entries returns the watchlist in display order.
func (s *Service) Entries(ctx context.Context) ([]types.WatchlistEntry, error) {
	return s.store.Watchlist(ctx)
}

// Add validates code, confirms it exists upstream and appends it to the end of
// the watchlist. Its history is fetched once so it is persisted right away.
func (s *Service) Add(ctx context.Context, code string, opts AddOptions) AddResult {
	code = strings.TrimSpace(code)
	if !codeRe.MatchString(code) {
		return failed(ErrInvalidCode)
	}
	if _, err := s.store.GetEntry(ctx, code); err == nil {
		return failed(ErrDuplicate)
	} else if !errors.Is(err, store.ErrNotFound) {
		return AddResult{Message: err.Error(), Err: err}
	}
	info, err := s.funds.Lookup(ctx, code)
	if err != nil {
		logging.L().Info("fund lookup failed", zap.String("fund", code), zap.Error(err))
		return failed(ErrNotFound)
	}

	entries, err := s.store.Watchlist(ctx)
	if err != nil {
		return AddResult{Message: err.Error(), Err: err}
	}
	e := types.WatchlistEntry{
		FundCode:  code,
		Name:      info.Name,
		AddedAt:   s.clock.Now(),
		SortOrder: nextSortOrder(entries),
		Category:  Category(info.TypeLabel),
		TypeLabel: info.TypeLabel,
		TypeCode:  info.TypeCode,
	}

	var history []types.NavPoint
	if s.history != nil {
		if history, err = s.history.FetchHistory(ctx, code); err != nil {
			logging.L().Warn("initial history fetch failed", zap.String("fund", code), zap.Error(err))
		}
	}
	if opts.Amount > 0 {
		cost := opts.Cost
		if cost <= 0 {
			cost = s.defaultCost(ctx, code, func() []types.NavPoint { return history })
		}
		applyHolding(&e, opts.Amount, cost)
	}

	if err := s.store.UpsertEntry(ctx, e); err != nil {
		return AddResult{Message: err.Error(), Err: err}
	}
	return AddResult{Success: true, Message: fmt.Sprintf("已添加 %s %s", e.FundCode, e.Name), Entry: e}
}

func nextSortOrder(entries []types.WatchlistEntry) int {
	hi := 0
	for _, e := range entries {
		if e.SortOrder > hi {
			hi = e.SortOrder
		}
	}
	return hi + 1
}

// defaultCost prices a holding entered without a cost: the quote's last NAV,
// else its estimate, else the latest official NAV in history. 0 when none is
// known.
func (s *Service) defaultCost(ctx context.Context, code string, history func() []types.NavPoint) float64 {
	if s.estimates != nil {
		est, err := s.estimates.FetchEstimate(ctx, code)
		switch {
		case err != nil:
			logging.L().Info("no quote for default cost", zap.String("fund", code), zap.Error(err))
		case est.Nav > 0:
			return est.Nav
		case est.EstimateNav > 0:
			return est.EstimateNav
		}
	}
	if latest, _, ok := types.LatestAndPrevious(history()); ok {
		return latest.Nav
	}
	return 0
}

func (s *Service) loadHistory(ctx context.Context, code string) []types.NavPoint {
	if s.history == nil {
		return nil
	}
	h, err := s.history.FetchHistory(ctx, code)
	if err != nil {
		logging.L().Warn("no nav for default cost", zap.String("fund", code), zap.Error(err))
	}
	return h
}

func applyHolding(e *types.WatchlistEntry, amount, cost float64) {
	h := holding.FromAmount(amount, cost)
	e.Amount = amount
	e.Cost = h.Cost
	e.Shares = h.Shares
}

// Remove drops code from the watchlist. Its NAV history stays in the store
// unless purge is set.
func (s *Service) Remove(ctx context.Context, code string, purge bool) error {
	if err := s.store.DeleteEntry(ctx, code); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%s: %w", code, ErrNotFound)
		}
		return err
	}
	if purge {
		return s.store.DeleteNav(ctx, code)
	}
	return nil
}

// UpdateHolding replaces the holding of code. amount 0 clears it.
func (s *Service) UpdateHolding(ctx context.Context, code string, amount, cost float64) (types.WatchlistEntry, error) {
	e, err := s.store.GetEntry(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.WatchlistEntry{}, fmt.Errorf("%s: %w", code, ErrNotFound)
		}
		return types.WatchlistEntry{}, err
	}
	if amount <= 0 {
		e.Amount, e.Cost, e.Shares = 0, 0, 0
	} else {
		if cost <= 0 {
			cost = s.defaultCost(ctx, code, func() []types.NavPoint { return s.loadHistory(ctx, code) })
		}
		applyHolding(&e, amount, cost)
	}
	if err := s.store.UpsertEntry(ctx, e); err != nil {
		return types.WatchlistEntry{}, err
	}
	return e, nil
}

// Reorder moves codes to the front in the given order; the other entries keep
// their relative order after them. Sort orders are rewritten as 1..n.
func (s *Service) Reorder(ctx context.Context, codes []string) error {
	entries, err := s.store.Watchlist(ctx)
	if err != nil {
		return err
	}
	byCode := make(map[string]types.WatchlistEntry, len(entries))
	for _, e := range entries {
		byCode[e.FundCode] = e
	}
	ordered := make([]types.WatchlistEntry, 0, len(entries))
	placed := map[string]bool{}
	for _, c := range codes {
		e, ok := byCode[c]
		if !ok {
			return fmt.Errorf("%s: %w", c, ErrNotFound)
		}
		if placed[c] {
			continue
		}
		placed[c] = true
		ordered = append(ordered, e)
	}
	for _, e := range entries {
		if !placed[e.FundCode] {
			ordered = append(ordered, e)
		}
	}
	for i, e := range ordered {
		if e.SortOrder == i+1 {
			continue
		}
		e.SortOrder = i + 1
		if err := s.store.UpsertEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// RefreshTypes looks every entry up again, one at a time with typeDelay
// between requests, and stores changed type labels. Lookup failures are logged
// and skipped. It returns how many entries changed.
func (s *Service) RefreshTypes(ctx context.Context) (int, error) {
	entries, err := s.store.Watchlist(ctx)
	if err != nil {
		return 0, err
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if s.typeDelay > 0 {
		lim = rate.NewLimiter(rate.Every(s.typeDelay), 1)
	}
	changed := 0
	for _, e := range entries {
		if err := lim.Wait(ctx); err != nil {
			return changed, err
		}
		info, err := s.funds.Lookup(ctx, e.FundCode)
		if err != nil {
			logging.L().Warn("type refresh failed", zap.String("fund", e.FundCode), zap.Error(err))
			continue
		}
		if info.TypeLabel == e.TypeLabel && info.TypeCode == e.TypeCode && (info.Name == "" || info.Name == e.Name) {
			continue
		}
		e.TypeLabel, e.TypeCode = info.TypeLabel, info.TypeCode
		e.Category = Category(info.TypeLabel)
		if info.Name != "" {
			e.Name = info.Name
		}
		if err := s.store.UpsertEntry(ctx, e); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
