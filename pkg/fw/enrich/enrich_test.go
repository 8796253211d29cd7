package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/komsit37/fundwl/pkg/fw/merge"
	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/store"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

var tuesday1000 = session.Fixed(time.Date(2024, 1, 9, 10, 0, 0, 0, time.Local))

type estimates map[string]types.Estimate

func (e estimates) FetchEstimate(_ context.Context, code string) (types.Estimate, error) {
	est, ok := e[code]
	if !ok {
		return types.Estimate{}, errors.New("dial tcp: i/o timeout")
	}
	return est, nil
}

type noHistory struct{}

func (noHistory) FetchHistory(context.Context, string) ([]types.NavPoint, error) {
	return nil, errors.New("no history")
}

func entry(code string) types.WatchlistEntry {
	return types.WatchlistEntry{FundCode: code, Name: "某混合基金" + code, TypeCode: "002", TypeLabel: "混合型-偏股"}
}

func TestRefreshKeepsFailedFund(t *testing.T) {
	est := estimates{
		"000001": {FundCode: "000001", Nav: 1.2, EstimateNav: 1.2345, EstimateGrowth: 2.88, ValuationTime: "2024-01-09 09:58"},
		"161725": {FundCode: "161725", Nav: 0.9, EstimateNav: 0.91, EstimateGrowth: 1.11, ValuationTime: "2024-01-09 09:58"},
	}
	m := merge.New(noHistory{}, nil, tuesday1000)
	r := NewRefresher(m, est, nil, tuesday1000, 2)

	entries := []types.WatchlistEntry{entry("000001"), entry("110022"), entry("161725")}
	prevDisplay := &types.DisplayRecord{NetValue: 1.52, IsRealtime: true, DataSource: types.SourceRealtime}
	prev := []types.Row{{Entry: entry("110022"), Nav: 1.5, EstimateNav: 1.52, Display: prevDisplay}}

	rows := r.Refresh(context.Background(), entries, prev)
	if len(rows) != 3 {
		t.Fatalf("len(Refresh()) = %d, want 3", len(rows))
	}
	for i, want := range []string{"000001", "110022", "161725"} {
		if rows[i].Entry.FundCode != want {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].Entry.FundCode, want)
		}
	}

	ok := rows[0]
	if ok.Err != "" || ok.Nav != 1.2 || ok.EstimateNav != 1.2345 || ok.Display == nil || ok.Display.NetValue != 1.2345 {
		t.Errorf("rows[0] = %+v", ok)
	}
	failed := rows[1]
	if failed.Err == "" {
		t.Error("failed fund has no error marker")
	}
	if failed.Nav != 1.5 || failed.EstimateNav != 1.52 || failed.Display != prevDisplay {
		t.Errorf("failed fund lost its previous values: %+v", failed)
	}
	if rows[2].Err != "" || rows[2].Nav != 0.9 {
		t.Errorf("rows[2] = %+v", rows[2])
	}
}

func TestRefreshNewFundWithoutData(t *testing.T) {
	m := merge.New(noHistory{}, nil, tuesday1000)
	r := NewRefresher(m, estimates{}, nil, tuesday1000, 0)
	rows := r.Refresh(context.Background(), []types.WatchlistEntry{entry("000001")}, nil)
	if rows[0].Err == "" || rows[0].Display != nil || rows[0].Nav != 0 {
		t.Errorf("row = %+v, want error marker and no display", rows[0])
	}
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context, string) error { c.n++; return nil }

func TestRefreshOneInvalidates(t *testing.T) {
	c := &countingCache{}
	m := merge.New(noHistory{}, nil, tuesday1000)
	est := estimates{"000001": {EstimateNav: 1.3, Nav: 1.2}}
	r := NewRefresher(m, est, c, tuesday1000, 0)
	row := r.RefreshOne(context.Background(), entry("000001"), types.Row{})
	if c.n != 1 || row.Display == nil || row.Display.NetValue != 1.3 {
		t.Errorf("RefreshOne() = %+v, invalidations = %d", row, c.n)
	}
}

type batch struct{ qs []types.Quote }

func (b batch) Quotes(context.Context, []string) ([]types.Quote, error) { return b.qs, nil }

type failingBatch struct{}

func (failingBatch) Quotes(context.Context, []string) ([]types.Quote, error) {
	return nil, errors.New("502")
}

type recorder struct {
	mu    sync.Mutex
	keys  []string
	times []time.Time
	fail  map[string]bool
}

func (r *recorder) record(k string) {
	r.mu.Lock()
	r.keys = append(r.keys, k)
	r.times = append(r.times, time.Now())
	r.mu.Unlock()
}

func (r *recorder) FetchIndex(_ context.Context, key string) (types.Quote, error) {
	r.record(key)
	if r.fail[key] {
		return types.Quote{}, errors.New("timeout")
	}
	return types.Quote{Identifier: "secid", CanonicalCode: key, Name: key, Price: 1}, nil
}

func (r *recorder) Quote(_ context.Context, code string) (types.Quote, error) {
	r.record(code)
	if r.fail[code] {
		return types.Quote{}, errors.New("timeout")
	}
	return types.Quote{Identifier: code, CanonicalCode: code, Name: code, Price: 2}, nil
}

func TestIndicesSerialOrderAndDelay(t *testing.T) {
	rec := &recorder{}
	delay := 20 * time.Millisecond
	ix := &Indices{Batch: failingBatch{}, Domestic: rec, Overseas: rec, Delay: delay}
	codes := []string{"sh000001", "sz399001", "hkHSI", "usIXIC"}

	qs, err := ix.Fetch(context.Background(), codes)
	if err != nil {
		t.Fatal(err)
	}
	wantKeys := []string{"SH000001", "SZ399001", "hkHSI", "usIXIC"}
	if len(rec.keys) != len(wantKeys) {
		t.Fatalf("requests = %v, want %v", rec.keys, wantKeys)
	}
	for i := range wantKeys {
		if rec.keys[i] != wantKeys[i] {
			t.Errorf("request %d = %s, want %s", i, rec.keys[i], wantKeys[i])
		}
		if i > 0 {
			if gap := rec.times[i].Sub(rec.times[i-1]); gap < delay-5*time.Millisecond {
				t.Errorf("gap before request %d = %v, want >= %v", i, gap, delay)
			}
		}
	}
	for i, q := range qs {
		if q.Identifier != codes[i] {
			t.Errorf("quote %d identifier = %s, want %s", i, q.Identifier, codes[i])
		}
	}
}

func TestIndicesBatchThenFallback(t *testing.T) {
	rec := &recorder{}
	ix := &Indices{
		Batch: batch{qs: []types.Quote{
			{Identifier: "sh000001", CanonicalCode: "000001", Name: "上证指数"},
			{Identifier: "sz399001", CanonicalCode: "399001", Name: "深证成指"},
		}},
		Domestic: rec, Overseas: rec, Delay: time.Millisecond,
	}
	qs, err := ix.Fetch(context.Background(), []string{"sh000001", "sz399001", "usDJI"})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 3 || qs[2].Identifier != "usDJI" {
		t.Errorf("Fetch() = %+v", qs)
	}
	if len(rec.keys) != 1 || rec.keys[0] != "usDJI" {
		t.Errorf("fallback requests = %v, want [usDJI]", rec.keys)
	}
}

func TestIndicesSavedFallback(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	s.SaveIndices(ctx, []types.Quote{{Identifier: "hkHSI", CanonicalCode: "hkHSI", Name: "恒生指数", Price: 16000}})

	rec := &recorder{fail: map[string]bool{"hkHSI": true}}
	ix := &Indices{
		Batch:    batch{qs: []types.Quote{{Identifier: "sh000001", CanonicalCode: "000001", Name: "上证指数", Price: 3000}}},
		Overseas: rec, Cache: s, Delay: time.Millisecond,
	}
	qs, err := ix.Fetch(ctx, []string{"sh000001", "hkHSI"})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 || qs[1].Price != 16000 {
		t.Errorf("Fetch() = %+v, want saved hkHSI", qs)
	}
	saved, _ := s.Indices(ctx)
	if len(saved) != 2 {
		t.Errorf("saved = %d quotes, want 2", len(saved))
	}

	empty := &Indices{Batch: failingBatch{}, Overseas: &recorder{fail: map[string]bool{"usDJI": true}}, Cache: store.NewMemory(), Delay: time.Millisecond}
	if _, err := empty.Fetch(ctx, []string{"usDJI"}); !errors.Is(err, ErrNoIndices) {
		t.Errorf("Fetch() error = %v, want ErrNoIndices", err)
	}
}
