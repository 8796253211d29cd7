// Package source loads fund watchlists, either from YAML files for import or
// from the store for display.
package source

import (
	"context"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Group is a named list of funds. Columns, when set, overrides the default
// column selection for the group.
type Group struct {
	Name    string
	Columns []string
	Entries []types.WatchlistEntry
}

// Source loads groups from a specification (e.g., a file path or a grouping).
type Source interface {
	Load(ctx context.Context, spec any) ([]Group, error)
}
