package source

import (
	"context"

	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/watchlist"
)

// Adder adds one fund to the watchlist.
type Adder interface {
	Add(ctx context.Context, code string, opts watchlist.AddOptions) watchlist.AddResult
}

// Import adds every fund in groups, in order. A failed fund does not stop the
// import; its result says why. Results are in input order.
func Import(ctx context.Context, a Adder, groups []Group) []watchlist.AddResult {
	var out []watchlist.AddResult
	for _, g := range groups {
		for _, e := range g.Entries {
			if ctx.Err() != nil {
				return out
			}
			r := a.Add(ctx, e.FundCode, watchlist.AddOptions{Amount: e.Amount, Cost: e.Cost})
			if !r.Success {
				logging.L().Info("import skipped fund",
					zap.String("group", g.Name), zap.String("fund", e.FundCode), zap.String("reason", r.Message))
			}
			out = append(out, r)
		}
	}
	return out
}
