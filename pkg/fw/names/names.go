// Package names resolves vendor index codes to display names and detects
// names that were mangled by a wrong character decoding.
package names

import (
	"regexp"
	"strings"
)

// Known is one entry of the static index table.
type Known struct {
	SecID  string // eastmoney secid, e.g. "1.000001"; empty for overseas indices
	Name   string
	Market string
}

// Indices is keyed by canonical code.
var Indices = map[string]Known{
	"SH000001": {SecID: "1.000001", Name: "上证指数", Market: "m:1"},
	"SZ399001": {SecID: "0.399001", Name: "深证成指", Market: "m:0"},
	"SZ399006": {SecID: "0.399006", Name: "创业板指", Market: "m:0"},
	"SH000300": {SecID: "1.000300", Name: "沪深300", Market: "m:1"},
	"HSI":      {Name: "恒生指数"},
	"HSCEI":    {Name: "恒生国企"},
	"IXIC":     {Name: "纳斯达克"},
	"DJI":      {Name: "道琼斯"},
	"SPX":      {Name: "标普500"},
	"INX":      {Name: "标普500"},
}

var (
	leadingZeros = regexp.MustCompile(`^0{3,}`)
	englishTitle = regexp.MustCompile(`^[A-Z][a-zA-Z\s]+$`)
	tickerToken  = regexp.MustCompile(`^[A-Z]+$`)
)

// Resolver looks names up in a code table.
type Resolver struct {
	table map[string]Known
	secID map[string]string
}

// NewResolver builds a resolver over table; nil uses Indices.
func NewResolver(table map[string]Known) *Resolver {
	if table == nil {
		table = Indices
	}
	r := &Resolver{table: table, secID: make(map[string]string, len(table))}
	for _, k := range table {
		if k.SecID != "" {
			r.secID[k.SecID] = k.Name
		}
	}
	return r
}

func (r *Resolver) lookup(code string) (string, bool) {
	k, ok := r.table[code]
	return k.Name, ok
}

// Resolve returns the display name for vendorCode. It tries, in order: an exact
// secid match, a market-specific transform of hint (or vendorCode), and rawName
// when it is readable CJK text. It returns "" when nothing qualifies.
func (r *Resolver) Resolve(vendorCode, rawName, hint string) string {
	if n, ok := r.secID[vendorCode]; ok && vendorCode != "" {
		return n
	}
	code := hint
	if code == "" {
		code = vendorCode
	}
	if code != "" {
		up := strings.ToUpper(code)
		switch {
		case strings.HasPrefix(vendorCode, "sh") || leadingZeros.MatchString(up):
			if n, ok := r.lookup("SH" + strings.TrimPrefix(up, "SH")); ok {
				return n
			}
		case strings.HasPrefix(vendorCode, "sz") || strings.HasPrefix(up, "399"):
			if n, ok := r.lookup("SZ" + strings.TrimPrefix(up, "SZ")); ok {
				return n
			}
		case strings.HasPrefix(vendorCode, "hk"):
			if n, ok := r.lookup(strings.ToUpper(vendorCode[2:])); ok {
				return n
			}
			if hint != "" {
				if n, ok := r.lookup(strings.ToUpper(hint)); ok {
					return n
				}
			}
		case strings.HasPrefix(vendorCode, "us"):
			if n, ok := r.lookup(strings.ToUpper(vendorCode[2:])); ok {
				return n
			}
			if hint != "" {
				h := strings.ToUpper(hint)
				if n, ok := r.lookup(h); ok {
					return n
				}
				if n, ok := r.lookup(strings.TrimPrefix(h, ".")); ok && strings.HasPrefix(h, ".") {
					return n
				}
			}
		default:
			if n, ok := r.lookup(up); ok {
				return n
			}
			if strings.HasPrefix(up, ".") {
				if n, ok := r.lookup(up[1:]); ok {
					return n
				}
			}
		}
		if n, ok := r.lookup(up); ok {
			return n
		}
	}
	if Readable(rawName) {
		return strings.TrimSpace(rawName)
	}
	return ""
}

// Readable reports a non-empty name that has CJK text and no replacement
// markers.
func Readable(name string) bool {
	return name != "" && HasCJK(name) && !strings.ContainsAny(name, "�?")
}

// HasCJK reports whether s contains a CJK unified ideograph (U+4E00..U+9FA5).
func HasCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fa5 {
			return true
		}
	}
	return false
}

// IsGarbled reports a name that looks like mis-decoded text: it holds a
// replacement character or '?', or it has no CJK and is neither an English
// title nor an all-caps ticker.
func IsGarbled(name string) bool {
	if strings.ContainsAny(name, "�?") {
		return true
	}
	return !HasCJK(name) && !englishTitle.MatchString(name) && !tickerToken.MatchString(name)
}

// IsEnglishTitle reports a plain English name such as "Hang Seng Index".
func IsEnglishTitle(name string) bool { return englishTitle.MatchString(name) }
