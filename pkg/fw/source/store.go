package source

import (
	"context"
	"fmt"

	"github.com/komsit37/fundwl/pkg/fw/store"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// GroupBy selects how StoreSource splits the watchlist.
type GroupBy string

const (
	// GroupNone returns the whole watchlist as one group.
	GroupNone GroupBy = ""
	// GroupCategory returns one group per fund category, in order of first
	// appearance.
	GroupCategory GroupBy = "category"
)

// DefaultGroupName names the single group of GroupNone and funds without a
// category.
const DefaultGroupName = "自选"

// StoreSource loads the persisted watchlist.
type StoreSource struct {
	Store store.Store
}

// Load expects spec to be a GroupBy, a string naming one, or nil.
func (s StoreSource) Load(ctx context.Context, spec any) ([]Group, error) {
	var by GroupBy
	switch v := spec.(type) {
	case nil:
	case GroupBy:
		by = v
	case string:
		by = GroupBy(v)
	default:
		return nil, fmt.Errorf("store source: unsupported spec %T", spec)
	}

	entries, err := s.Store.Watchlist(ctx)
	if err != nil {
		return nil, err
	}
	switch by {
	case GroupNone:
		return []Group{{Name: DefaultGroupName, Entries: entries}}, nil
	case GroupCategory:
		return byCategory(entries), nil
	default:
		return nil, fmt.Errorf("store source: unknown grouping %q", by)
	}
}

func byCategory(entries []types.WatchlistEntry) []Group {
	var groups []Group
	idx := map[string]int{}
	for _, e := range entries {
		name := e.Category
		if name == "" {
			name = DefaultGroupName
		}
		i, ok := idx[name]
		if !ok {
			i = len(groups)
			idx[name] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}
