package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/komsit37/fundwl/pkg/fw/session"
	"github.com/komsit37/fundwl/pkg/fw/store"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

type funds map[string]types.FundInfo

func (f funds) Lookup(_ context.Context, code string) (types.FundInfo, error) {
	info, ok := f[code]
	if !ok {
		return types.FundInfo{}, errors.New("not found upstream")
	}
	return info, nil
}

type fakeHistory struct {
	pts   map[string][]types.NavPoint
	calls int
}

func (h *fakeHistory) FetchHistory(_ context.Context, code string) ([]types.NavPoint, error) {
	h.calls++
	p, ok := h.pts[code]
	if !ok {
		return nil, errors.New("no history")
	}
	return p, nil
}

type fakeEstimates map[string]types.Estimate

func (f fakeEstimates) FetchEstimate(_ context.Context, code string) (types.Estimate, error) {
	e, ok := f[code]
	if !ok {
		return types.Estimate{}, errors.New("estimate unavailable")
	}
	return e, nil
}

var now = session.Fixed(time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC))

func newService(t *testing.T) (*Service, *store.Memory, *fakeHistory) {
	return newServiceWithEstimates(t, nil)
}

func newServiceWithEstimates(t *testing.T, est EstimateSource) (*Service, *store.Memory, *fakeHistory) {
	t.Helper()
	s := store.NewMemory()
	h := &fakeHistory{pts: map[string][]types.NavPoint{
		"000001": {{FundCode: "000001", Date: "2024-01-08", Nav: 1.25}},
	}}
	f := funds{
		"000001": {Code: "000001", Name: "华夏成长混合", TypeLabel: "混合型-偏股", TypeCode: "002"},
		"110022": {Code: "110022", Name: "易方达消费行业", TypeLabel: "股票型", TypeCode: "001"},
		"161725": {Code: "161725", Name: "招商中证白酒", TypeLabel: "指数型-股票", TypeCode: "003"},
	}
	return NewService(s, f, h, est, now, 0), s, h
}

func TestAddValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		code string
		want error
	}{
		{"12345", ErrInvalidCode},
		{"abcdef", ErrInvalidCode},
		{"1234567", ErrInvalidCode},
		{"999999", ErrNotFound},
	}
	for _, tt := range tests {
		r := svc.Add(ctx, tt.code, AddOptions{})
		if r.Success || !errors.Is(r.Err, tt.want) || r.Message != tt.want.Error() {
			t.Errorf("Add(%q) = %+v, want failure %v", tt.code, r, tt.want)
		}
	}

	if r := svc.Add(ctx, "000001", AddOptions{}); !r.Success {
		t.Fatalf("Add(000001) = %+v", r)
	}
	if r := svc.Add(ctx, "000001", AddOptions{}); r.Success || !errors.Is(r.Err, ErrDuplicate) {
		t.Errorf("Add(duplicate) = %+v, want ErrDuplicate", r)
	}
}

func TestAddEntry(t *testing.T) {
	svc, s, h := newService(t)
	ctx := context.Background()

	r := svc.Add(ctx, "000001", AddOptions{Amount: 10000})
	if !r.Success {
		t.Fatalf("Add() = %+v", r)
	}
	e := r.Entry
	if e.Name != "华夏成长混合" || e.Category != "混合型" || e.TypeCode != "002" || e.SortOrder != 1 {
		t.Errorf("entry = %+v", e)
	}
	if e.Cost != 1.25 || e.Shares != 8000 || e.Amount != 10000 {
		t.Errorf("holding = cost %v shares %v amount %v, want 1.25 8000 10000", e.Cost, e.Shares, e.Amount)
	}
	if !e.AddedAt.Equal(time.Time(now)) {
		t.Errorf("AddedAt = %v", e.AddedAt)
	}
	if h.calls != 1 {
		t.Errorf("history calls = %d, want 1", h.calls)
	}

	r = svc.Add(ctx, "110022", AddOptions{Amount: 1000, Cost: 2})
	if r.Entry.SortOrder != 2 || r.Entry.Shares != 500 {
		t.Errorf("second entry = %+v", r.Entry)
	}
	if got, _ := s.Watchlist(ctx); len(got) != 2 {
		t.Errorf("len(Watchlist()) = %d, want 2", len(got))
	}
}

func TestDefaultCostFromQuote(t *testing.T) {
	svc, _, _ := newServiceWithEstimates(t, fakeEstimates{
		"000001": {FundCode: "000001", EstimateNav: 1.6},
		"110022": {FundCode: "110022", Nav: 2, EstimateNav: 2.1},
	})
	ctx := context.Background()

	tests := []struct {
		code       string
		amount     float64
		wantCost   float64
		wantShares float64
	}{
		{"000001", 8000, 1.6, 5000}, // no last NAV on the quote, estimate used
		{"110022", 1000, 2, 500},    // last NAV preferred over the estimate
	}
	for _, tt := range tests {
		r := svc.Add(ctx, tt.code, AddOptions{Amount: tt.amount})
		if !r.Success {
			t.Fatalf("Add(%s) = %+v", tt.code, r)
		}
		if r.Entry.Cost != tt.wantCost || r.Entry.Shares != tt.wantShares {
			t.Errorf("Add(%s) holding = cost %v shares %v, want %v %v",
				tt.code, r.Entry.Cost, r.Entry.Shares, tt.wantCost, tt.wantShares)
		}
	}
}

func TestDefaultCostFallsBackToHistory(t *testing.T) {
	svc, _, h := newServiceWithEstimates(t, fakeEstimates{})
	ctx := context.Background()
	svc.Add(ctx, "000001", AddOptions{})

	e, err := svc.UpdateHolding(ctx, "000001", 5000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Cost != 1.25 || e.Shares != 4000 {
		t.Errorf("UpdateHolding() = cost %v shares %v, want 1.25 4000", e.Cost, e.Shares)
	}
	if h.calls != 2 {
		t.Errorf("history calls = %d, want 2", h.calls)
	}
}

func TestRemove(t *testing.T) {
	svc, s, _ := newService(t)
	ctx := context.Background()
	svc.Add(ctx, "000001", AddOptions{})
	s.UpsertNav(ctx, types.NavPoint{FundCode: "000001", Date: "2024-01-08", Nav: 1.25})

	if err := svc.Remove(ctx, "000001", false); err != nil {
		t.Fatal(err)
	}
	if pts, _ := s.NavRange(ctx, "000001", "", ""); len(pts) != 1 {
		t.Errorf("history removed without purge")
	}
	if err := svc.Remove(ctx, "000001", false); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(missing) error = %v, want ErrNotFound", err)
	}

	svc.Add(ctx, "000001", AddOptions{})
	if err := svc.Remove(ctx, "000001", true); err != nil {
		t.Fatal(err)
	}
	if pts, _ := s.NavRange(ctx, "000001", "", ""); len(pts) != 0 {
		t.Errorf("history kept after purge")
	}
}

func TestUpdateHolding(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	svc.Add(ctx, "000001", AddOptions{})

	e, err := svc.UpdateHolding(ctx, "000001", 5000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if e.Cost != 1.25 || e.Shares != 4000 {
		t.Errorf("UpdateHolding(default cost) = %+v", e)
	}
	e, _ = svc.UpdateHolding(ctx, "000001", 5000, 2.5)
	if e.Cost != 2.5 || e.Shares != 2000 {
		t.Errorf("UpdateHolding(cost) = %+v", e)
	}
	e, _ = svc.UpdateHolding(ctx, "000001", 0, 0)
	if e.Amount != 0 || e.Shares != 0 || e.Cost != 0 {
		t.Errorf("UpdateHolding(clear) = %+v", e)
	}
	if _, err := svc.UpdateHolding(ctx, "110022", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateHolding(missing) error = %v", err)
	}
}

func TestReorder(t *testing.T) {
	svc, s, _ := newService(t)
	ctx := context.Background()
	for _, c := range []string{"000001", "110022", "161725"} {
		svc.Add(ctx, c, AddOptions{})
	}
	if err := svc.Reorder(ctx, []string{"161725"}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Watchlist(ctx)
	want := []string{"161725", "000001", "110022"}
	for i, e := range got {
		if e.FundCode != want[i] || e.SortOrder != i+1 {
			t.Errorf("Watchlist()[%d] = %s/%d, want %s/%d", i, e.FundCode, e.SortOrder, want[i], i+1)
		}
	}
	if err := svc.Reorder(ctx, []string{"999999"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Reorder(unknown) error = %v", err)
	}
}

func TestRefreshTypes(t *testing.T) {
	svc, s, _ := newService(t)
	ctx := context.Background()
	svc.Add(ctx, "000001", AddOptions{})
	svc.Add(ctx, "110022", AddOptions{})

	f := svc.funds.(funds)
	f["000001"] = types.FundInfo{Code: "000001", Name: "华夏成长混合", TypeLabel: "混合型-灵活", TypeCode: "002"}
	delete(f, "110022")

	n, err := svc.RefreshTypes(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RefreshTypes() = %d, %v, want 1", n, err)
	}
	e, _ := s.GetEntry(ctx, "000001")
	if e.TypeLabel != "混合型-灵活" || e.Category != "混合型" {
		t.Errorf("entry = %+v", e)
	}
}

func TestCategory(t *testing.T) {
	for in, want := range map[string]string{"混合型-偏股": "混合型", "股票型": "股票型", "": ""} {
		if got := Category(in); got != want {
			t.Errorf("Category(%q) = %q, want %q", in, got, want)
		}
	}
}
