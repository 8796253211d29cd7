// Package filter selects funds by code, name or category.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Filter matches a single string.
type Filter interface {
	Match(s string) bool
}

// Parse builds a filter from an expression:
// - Comma-separated exact values: "000001,110022"
// - Glob: "16*"
// - Regex: "/^00/"
// - anything else: case-insensitive substring, e.g. "白酒"
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			if p = strings.TrimSpace(p); p != "" {
				set[p] = struct{}{}
			}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		if _, err := filepath.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		return Glob{pattern: expr}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Entry reports whether f matches the fund code, name or category of e.
func Entry(f Filter, e types.WatchlistEntry) bool {
	if f == nil {
		return true
	}
	return f.Match(e.FundCode) || f.Match(e.Name) || (e.Category != "" && f.Match(e.Category))
}

// Entries keeps the entries matching f, in order.
func Entries(f Filter, in []types.WatchlistEntry) []types.WatchlistEntry {
	if f == nil {
		return in
	}
	out := make([]types.WatchlistEntry, 0, len(in))
	for _, e := range in {
		if Entry(f, e) {
			out = append(out, e)
		}
	}
	return out
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(s string) bool {
	_, ok := e.set[s]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(s string) bool {
	ok, _ := filepath.Match(g.pattern, s)
	return ok
}

func (g Glob) String() string { return fmt.Sprintf("glob:%s", g.pattern) }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(s string) bool { return r.re.MatchString(s) }

// SubstrCI matches if s contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (sc SubstrCI) Match(s string) bool {
	if sc.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sc.needle))
}

func (sc SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", sc.needle) }
