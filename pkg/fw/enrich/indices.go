package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/komsit37/fundwl/pkg/fw/dedupe"
	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// DefaultIndexDelay spaces serial index requests.
const DefaultIndexDelay = 100 * time.Millisecond

var (
	errNoEstimates = errors.New("enrich: no estimate source configured")

	// ErrNoIndices means no live source answered and nothing was saved before.
	ErrNoIndices = errors.New("enrich: no index quotes available")
)

// BatchQuotes fetches many instruments in one request.
type BatchQuotes interface {
	Quotes(ctx context.Context, codes []string) ([]types.Quote, error)
}

// SingleQuote fetches one instrument by batch-feed code, e.g. "hkHSI".
type SingleQuote interface {
	Quote(ctx context.Context, code string) (types.Quote, error)
}

// KeyedIndex fetches one index by canonical key, e.g. "SH000001".
type KeyedIndex interface {
	FetchIndex(ctx context.Context, key string) (types.Quote, error)
}

// IndexCache stores the last good quotes.
type IndexCache interface {
	SaveIndices(ctx context.Context, qs []types.Quote) error
	Indices(ctx context.Context) ([]types.Quote, error)
}

// Indices assembles the index marquee. The batch feed answers first; codes it
// misses are tried on the per-index sources, one request at a time with a
// fixed delay between them. When nothing live is available the last saved
// quotes are returned.
type Indices struct {
	Batch    BatchQuotes
	Overseas SingleQuote
	Domestic KeyedIndex
	Cache    IndexCache
	Delay    time.Duration
}

// DomesticKey maps a batch-feed code such as "sh000001" to its canonical
// key "SH000001". Other markets have no key.
func DomesticKey(code string) (string, bool) {
	if strings.HasPrefix(code, "sh") || strings.HasPrefix(code, "sz") {
		return strings.ToUpper(code), true
	}
	return "", false
}

func (ix *Indices) Fetch(ctx context.Context, codes []string) ([]types.Quote, error) {
	log := logging.L()
	got := map[string]types.Quote{}
	if ix.Batch != nil {
		qs, err := ix.Batch.Quotes(ctx, codes)
		if err != nil {
			log.Warn("index batch failed", zap.Error(err))
		}
		for _, q := range qs {
			got[q.Identifier] = q
		}
	}

	var missing []string
	for _, c := range codes {
		if _, ok := got[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		for c, q := range ix.Serial(ctx, missing) {
			got[c] = q
		}
	}

	out := make([]types.Quote, 0, len(codes))
	for _, c := range codes {
		if q, ok := got[c]; ok {
			out = append(out, q)
		}
	}
	out = dedupe.Quotes(out)

	if ix.Cache == nil {
		if len(out) == 0 {
			return nil, ErrNoIndices
		}
		return out, nil
	}
	if len(out) > 0 {
		if err := ix.Cache.SaveIndices(ctx, out); err != nil {
			log.Warn("save indices failed", zap.Error(err))
		}
		if len(out) == len(codes) {
			return out, nil
		}
	}
	return ix.fillFromCache(ctx, codes, out)
}

// Serial fetches codes one by one with Delay between requests and returns the
// quotes that succeeded, keyed by code.
func (ix *Indices) Serial(ctx context.Context, codes []string) map[string]types.Quote {
	delay := ix.Delay
	if delay <= 0 {
		delay = DefaultIndexDelay
	}
	lim := rate.NewLimiter(rate.Every(delay), 1)
	out := map[string]types.Quote{}
	for _, c := range codes {
		if err := lim.Wait(ctx); err != nil {
			return out
		}
		q, err := ix.one(ctx, c)
		if err != nil {
			logging.L().Debug("index fetch failed", zap.String("index", c), zap.Error(err))
			continue
		}
		q.Identifier = c
		out[c] = q
	}
	return out
}

func (ix *Indices) one(ctx context.Context, code string) (types.Quote, error) {
	if key, ok := DomesticKey(code); ok && ix.Domestic != nil {
		return ix.Domestic.FetchIndex(ctx, key)
	}
	if ix.Overseas != nil {
		return ix.Overseas.Quote(ctx, code)
	}
	return types.Quote{}, fmt.Errorf("no source for %s", code)
}

// fillFromCache adds saved quotes for codes missing from live.
func (ix *Indices) fillFromCache(ctx context.Context, codes []string, live []types.Quote) ([]types.Quote, error) {
	saved, err := ix.Cache.Indices(ctx)
	if err != nil {
		logging.L().Warn("read saved indices failed", zap.Error(err))
	}
	have := map[string]types.Quote{}
	for _, q := range saved {
		have[q.Key()] = q
	}
	for _, q := range live {
		have[q.Key()] = q
	}
	out := make([]types.Quote, 0, len(codes))
	for _, c := range codes {
		if q, ok := have[c]; ok {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoIndices
	}
	return out, nil
}
