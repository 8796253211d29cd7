package filter

import (
	"testing"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr  string
		in    string
		match bool
	}{
		{"", "anything", true},
		{"000001,110022", "110022", true},
		{"000001,110022", "11002", false},
		{"16*", "161725", true},
		{"16*", "000016", false},
		{"/^00/", "000001", true},
		{"/^00/", "100001", false},
		{"白酒", "招商中证白酒指数", true},
		{"etf", "沪深300ETF联接", true},
		{"债", "混合型", false},
	}
	for _, tt := range tests {
		f, err := Parse(tt.expr)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tt.expr, err)
		}
		if got := f.Match(tt.in); got != tt.match {
			t.Errorf("Parse(%q).Match(%q) = %v, want %v", tt.expr, tt.in, got, tt.match)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, expr := range []string{"/(/", "[a"} {
		if _, err := Parse(expr); err == nil {
			t.Errorf("Parse(%q) error = nil", expr)
		}
	}
}

func TestEntries(t *testing.T) {
	in := []types.WatchlistEntry{
		{FundCode: "000001", Name: "华夏成长混合", Category: "混合型"},
		{FundCode: "161725", Name: "招商中证白酒指数", Category: "指数型"},
		{FundCode: "110022", Name: "易方达消费行业", Category: "股票型"},
	}
	f, _ := Parse("指数")
	got := Entries(f, in)
	if len(got) != 1 || got[0].FundCode != "161725" {
		t.Errorf("Entries(指数) = %+v", got)
	}
	f, _ = Parse("000001,110022")
	if got := Entries(f, in); len(got) != 2 {
		t.Errorf("Entries(set) = %d entries, want 2", len(got))
	}
	if got := Entries(nil, in); len(got) != 3 {
		t.Errorf("Entries(nil) = %d entries, want 3", len(got))
	}
}
