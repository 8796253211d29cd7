// Package store persists the watchlist, official NAV history and the last
// good index quotes.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// ErrNotFound is returned for a missing watchlist entry.
var ErrNotFound = errors.New("store: not found")

// Store is the persisted side of the application. NAV points are unique per
// (fund code, date); upserting the same key twice leaves one row.
type Store interface {
	// Watchlist returns all entries ordered by sort order.
	Watchlist(ctx context.Context) ([]types.WatchlistEntry, error)
	GetEntry(ctx context.Context, code string) (types.WatchlistEntry, error)
	UpsertEntry(ctx context.Context, e types.WatchlistEntry) error
	DeleteEntry(ctx context.Context, code string) error

	UpsertNav(ctx context.Context, p types.NavPoint) error
	BulkUpsertNav(ctx context.Context, pts []types.NavPoint) error
	// NavRange returns points for code with from <= date <= to, ascending.
	// Empty bounds are open.
	NavRange(ctx context.Context, code, from, to string) ([]types.NavPoint, error)
	DeleteNav(ctx context.Context, code string) error

	SaveIndices(ctx context.Context, qs []types.Quote) error
	Indices(ctx context.Context) ([]types.Quote, error)

	Close() error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of an entry or NAV point.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %T: %w", v, err)
	}
	return nil
}

// validPoints drops points that fail validation and returns them separately.
func validPoints(pts []types.NavPoint) (ok []types.NavPoint, bad []error) {
	ok = make([]types.NavPoint, 0, len(pts))
	for _, p := range pts {
		if err := Validate(p); err != nil {
			bad = append(bad, err)
			continue
		}
		ok = append(ok, p)
	}
	return ok, bad
}

func inRange(date, from, to string) bool {
	return (from == "" || date >= from) && (to == "" || date <= to)
}
