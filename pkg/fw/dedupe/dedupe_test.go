package dedupe

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

func TestQuotesPrefersCJKName(t *testing.T) {
	in := []types.Quote{
		{Identifier: "hkHSI", CanonicalCode: "hkHSI", Name: "HSI", Price: 1},
		{Identifier: "sh000001", CanonicalCode: "000001", Name: "上证指数"},
		{Identifier: "hkHSI", CanonicalCode: "hkHSI", Name: "恒生指数", Price: 2},
	}
	got := Quotes(in)
	want := []types.Quote{
		{Identifier: "hkHSI", CanonicalCode: "hkHSI", Name: "恒生指数", Price: 2},
		{Identifier: "sh000001", CanonicalCode: "000001", Name: "上证指数"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Quotes() mismatch (-want +got):\n%s", diff)
	}
}

func TestQuotesKeepsFirstWhenNotBetter(t *testing.T) {
	in := []types.Quote{
		{CanonicalCode: "000300", Name: "沪深300", Price: 1},
		{CanonicalCode: "000300", Name: "CSI 300", Price: 2},
		{CanonicalCode: "000300", Name: "沪深三百", Price: 3},
	}
	got := Quotes(in)
	if len(got) != 1 || got[0].Price != 1 {
		t.Errorf("Quotes() = %+v, want the first record kept", got)
	}
}

func TestQuotesKeyFallsBackToCanonical(t *testing.T) {
	in := []types.Quote{
		{CanonicalCode: "399001", Name: "399001"},
		{Identifier: "sz399001", CanonicalCode: "399001", Name: "深证成指"},
	}
	if got := Quotes(in); len(got) != 2 {
		t.Errorf("len(Quotes()) = %d, want 2 (different keys)", len(got))
	}
}
