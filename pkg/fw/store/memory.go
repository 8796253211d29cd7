package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Memory is a Store held in process memory, used in tests and as a fallback
// when no database is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]types.WatchlistEntry
	navs    map[string]map[string]types.NavPoint
	indices map[string]types.Quote
}

func NewMemory() *Memory {
	return &Memory{
		entries: map[string]types.WatchlistEntry{},
		navs:    map[string]map[string]types.NavPoint{},
		indices: map[string]types.Quote{},
	}
}

func (m *Memory) Watchlist(context.Context) ([]types.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.WatchlistEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, nil
}

func (m *Memory) GetEntry(_ context.Context, code string) (types.WatchlistEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[code]
	if !ok {
		return types.WatchlistEntry{}, fmt.Errorf("%s: %w", code, ErrNotFound)
	}
	return e, nil
}

func (m *Memory) UpsertEntry(_ context.Context, e types.WatchlistEntry) error {
	if err := Validate(e); err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[e.FundCode] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeleteEntry(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[code]; !ok {
		return fmt.Errorf("%s: %w", code, ErrNotFound)
	}
	delete(m.entries, code)
	return nil
}

func (m *Memory) UpsertNav(_ context.Context, p types.NavPoint) error {
	if err := Validate(p); err != nil {
		return err
	}
	m.mu.Lock()
	m.putLocked(p)
	m.mu.Unlock()
	return nil
}

func (m *Memory) putLocked(p types.NavPoint) {
	byDate, ok := m.navs[p.FundCode]
	if !ok {
		byDate = map[string]types.NavPoint{}
		m.navs[p.FundCode] = byDate
	}
	byDate[p.Date] = p
}

func (m *Memory) BulkUpsertNav(_ context.Context, pts []types.NavPoint) error {
	ok, bad := validPoints(pts)
	if len(bad) > 0 {
		logging.L().Warn("skipping invalid nav points", zap.Int("count", len(bad)), zap.Error(bad[0]))
	}
	m.mu.Lock()
	for _, p := range ok {
		m.putLocked(p)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) NavRange(_ context.Context, code, from, to string) ([]types.NavPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.NavPoint
	for _, p := range m.navs[code] {
		if inRange(p.Date, from, to) {
			out = append(out, p)
		}
	}
	types.SortHistory(out)
	return out, nil
}

func (m *Memory) DeleteNav(_ context.Context, code string) error {
	m.mu.Lock()
	delete(m.navs, code)
	m.mu.Unlock()
	return nil
}

func (m *Memory) SaveIndices(_ context.Context, qs []types.Quote) error {
	m.mu.Lock()
	for _, q := range qs {
		m.indices[q.Key()] = q
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Indices(context.Context) ([]types.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Quote, 0, len(m.indices))
	for _, q := range m.indices {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (m *Memory) Close() error { return nil }
