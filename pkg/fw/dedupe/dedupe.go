// Package dedupe collapses quotes that describe the same instrument.
package dedupe

import (
	"github.com/komsit37/fundwl/pkg/fw/names"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Quotes keeps one quote per Quote.Key, in first-seen order. A later duplicate
// replaces the kept one only when its name has CJK text and the kept name does
// not.
func Quotes(in []types.Quote) []types.Quote {
	out := make([]types.Quote, 0, len(in))
	idx := make(map[string]int, len(in))
	for _, q := range in {
		k := q.Key()
		i, seen := idx[k]
		if !seen {
			idx[k] = len(out)
			out = append(out, q)
			continue
		}
		if names.HasCJK(q.Name) && !names.HasCJK(out[i].Name) {
			out[i] = q
		}
	}
	return out
}
