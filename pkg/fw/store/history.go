package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// HistoryFetcher loads a fund's NAV series from a remote vendor.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error)
}

// WriteThrough persists every successful remote history fetch and answers
// from the store when the remote fails.
type WriteThrough struct {
	remote HistoryFetcher
	store  Store
}

func NewWriteThrough(remote HistoryFetcher, s Store) *WriteThrough {
	return &WriteThrough{remote: remote, store: s}
}

func (w *WriteThrough) FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error) {
	pts, err := w.remote.FetchHistory(ctx, code)
	if err == nil {
		if err := w.store.BulkUpsertNav(ctx, pts); err != nil {
			logging.L().Warn("persist history failed", zap.String("fund", code), zap.Error(err))
		}
		return pts, nil
	}
	persisted, perr := w.store.NavRange(ctx, code, "", "")
	if perr != nil || len(persisted) == 0 {
		return nil, err
	}
	logging.L().Warn("remote history failed, using persisted rows",
		zap.String("fund", code), zap.Int("points", len(persisted)), zap.Error(err))
	return persisted, nil
}
