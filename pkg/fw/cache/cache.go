// Package cache keeps fund NAV history in front of a slower history source.
// Entries never expire from the backend; freshness is judged against the TTL
// so an expired entry can still serve as a stale fallback.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// DefaultTTL is how long a fetched history counts as fresh.
const DefaultTTL = 5 * time.Minute

// fetchTimeout bounds a shared fetch once it no longer follows the caller's
// cancellation.
const fetchTimeout = 30 * time.Second

// ErrNoHistory is returned when the source fails and nothing is cached.
var ErrNoHistory = errors.New("cache: no history")

// Entry is one cached history with the time it was fetched.
type Entry struct {
	Points    []types.NavPoint `json:"points"`
	FetchedAt time.Time        `json:"fetchedAt"`
}

// Backend stores entries by fund code.
type Backend interface {
	Get(ctx context.Context, code string) (Entry, bool, error)
	Set(ctx context.Context, code string, e Entry) error
	Delete(ctx context.Context, code string) error
}

// Source loads a fund's history.
type Source interface {
	FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, code string) ([]types.NavPoint, error)

func (f SourceFunc) FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error) {
	return f(ctx, code)
}

// HistoryCache decorates a Source with a TTL cache. Concurrent misses for the
// same fund share one fetch.
type HistoryCache struct {
	next    Source
	backend Backend
	ttl     time.Duration
	clock   session.Clock

	group singleflight.Group
}

// New builds a cache over next. A nil backend uses an in-memory one, a
// non-positive ttl uses DefaultTTL and a nil clock uses the system clock.
func New(next Source, backend Backend, ttl time.Duration, clock session.Clock) *HistoryCache {
	if backend == nil {
		backend = NewMemory()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = session.SystemClock{}
	}
	return &HistoryCache{next: next, backend: backend, ttl: ttl, clock: clock}
}

func (c *HistoryCache) fresh(e Entry) bool {
	return c.clock.Now().Sub(e.FetchedAt) < c.ttl
}

func (c *HistoryCache) lookup(ctx context.Context, code string) (Entry, bool) {
	e, ok, err := c.backend.Get(ctx, code)
	if err != nil {
		logging.L().Warn("history cache read failed", zap.String("fund", code), zap.Error(err))
		return Entry{}, false
	}
	return e, ok
}

// FetchHistory returns the cached history for code when fresh. Otherwise it
// fetches from the source and stores the result. When that fetch fails, an
// expired entry is returned instead; with no entry at all the error wraps
// ErrNoHistory.
func (c *HistoryCache) FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error) {
	cached, ok := c.lookup(ctx, code)
	if ok && c.fresh(cached) {
		return cached.Points, nil
	}

	ch := c.group.DoChan(code, func() (any, error) {
		// detached from the first caller so its cancellation does not fail the others
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		// another caller may have refilled the entry while we waited
		if e, ok := c.lookup(fctx, code); ok && c.fresh(e) {
			return e.Points, nil
		}
		pts, err := c.next.FetchHistory(fctx, code)
		if err != nil {
			return nil, err
		}
		if err := c.backend.Set(fctx, code, Entry{Points: pts, FetchedAt: c.clock.Now()}); err != nil {
			logging.L().Warn("history cache write failed", zap.String("fund", code), zap.Error(err))
		}
		return pts, nil
	})
	var err error
	select {
	case r := <-ch:
		if r.Err == nil {
			return r.Val.([]types.NavPoint), nil
		}
		err = r.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	if ok {
		logging.L().Warn("serving stale history", zap.String("fund", code),
			zap.Time("fetchedAt", cached.FetchedAt), zap.Error(err))
		return cached.Points, nil
	}
	return nil, fmt.Errorf("%s: %w: %w", code, ErrNoHistory, err)
}

// Invalidate drops the entry for code.
func (c *HistoryCache) Invalidate(ctx context.Context, code string) error {
	return c.backend.Delete(ctx, code)
}
