// Package yahoo fills overseas index quotes from Yahoo Finance when the
// primary batch feed leaves them out.
package yahoo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Symbols maps batch-feed codes to Yahoo tickers.
var Symbols = map[string]string{
	"usIXIC":  "^IXIC",
	"usDJI":   "^DJI",
	"usINX":   "^GSPC",
	"hkHSI":   "^HSI",
	"hkHSCEI": "^HSCE",
}

// Symbol returns the Yahoo ticker for code.
func Symbol(code string) (string, bool) {
	s, ok := Symbols[code]
	return s, ok
}

// Service fetches single quotes through yf-go.
type Service struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewService(timeout time.Duration) *Service {
	return &Service{client: yfgo.NewClient(), timeout: timeout}
}

// Quote returns the quote for a batch-feed code such as "hkHSI".
func (s *Service) Quote(ctx context.Context, code string) (types.Quote, error) {
	sym, ok := Symbol(code)
	if !ok {
		return types.Quote{}, fmt.Errorf("yahoo: no ticker for %s", code)
	}
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, sym, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
	if err != nil {
		return types.Quote{}, fmt.Errorf("yahoo %s: %w", sym, err)
	}
	if res.Price == nil {
		return types.Quote{}, fmt.Errorf("no price for %s", sym)
	}

	q := types.Quote{Identifier: code, Symbol: sym, CanonicalCode: code}
	p := res.Price.RegularMarketPrice
	if p.Raw != nil {
		q.Price = *p.Raw
	} else {
		q.Price = parseFmt(p.Fmt)
	}
	cp := res.Price.RegularMarketChangePercent
	if cp.Fmt != "" {
		q.ChangePercent = parseFmt(cp.Fmt)
	} else if cp.Raw != nil {
		q.ChangePercent = *cp.Raw * 100
	}
	q.PrevClose, q.Change = back(q.Price, q.ChangePercent)

	if res.Price.ShortName != "" {
		q.Name = res.Price.ShortName
	} else {
		q.Name = res.Price.LongName
	}
	return q, nil
}

// back derives the previous close and change from price and change percent.
func back(price, cp float64) (prev, change float64) {
	if price == 0 || cp <= -100 {
		return 0, 0
	}
	prev = price / (1 + cp/100)
	return prev, price - prev
}

// parseFmt reads Yahoo formatted numbers such as "1.23%" or "16,190.02".
func parseFmt(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
