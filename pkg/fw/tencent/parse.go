// Package tencent reads index quotes from the qt.gtimg.cn text feed.
//
// A payload is a run of records `v_<code>="f0~f1~...";`. Field positions are
// the vendor's undocumented layout and are identical across domestic, Hong
// Kong and US records.
package tencent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

const (
	minFields = 35

	fieldMarket    = 0
	fieldName      = 1
	fieldSymbol    = 2
	fieldPrice     = 3
	fieldPrevClose = 4
	fieldOpen      = 5
	fieldVolume    = 6

	fieldChange        = 31
	fieldChangePercent = 32
	fieldHigh          = 33
	fieldLow           = 34

	// update time sits somewhere in [timeScanFrom, timeScanTo)
	timeScanFrom = 25
	timeScanTo   = 35

	// domestic PE is fixed; elsewhere the tail is scanned
	fieldDomesticPE = 39
	peScanWindow    = 10
	peScanMin       = 1
	peScanMax       = 50
	peMax           = 1000

	// domestic turnover amount is searched between len-5 and len-9
	amountScanStart = 5
	amountScanEnd   = 10

	// change percent at or above this is taken to be a misplaced field
	changePercentSuspect = 100
	changePercentClamp   = 1000
)

// Market type codes in field 0.
const (
	MarketSH = "1"
	MarketSZ = "51"
	MarketHK = "100"
	MarketUS = "200"
)

var (
	recordSep   = regexp.MustCompile(`;?\s*v_`)
	codeRe      = regexp.MustCompile(`^v_(\w+)=`)
	prefixRe    = regexp.MustCompile(`^[^=]+="`)
	timeRe      = regexp.MustCompile(`\d{4}[/-]?\d{2}[/-]?\d{2}`)
	stamp14Re   = regexp.MustCompile(`^\d{14}$`)
	yearLikeRe  = regexp.MustCompile(`^\d{4}`)
	bigNumberRe = regexp.MustCompile(`^\d{5,}$`)
	leadingNum  = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseBatch splits a multi-record payload and parses each record, dropping
// the ones that fail.
func ParseBatch(payload string) []types.Quote {
	var out []types.Quote
	for _, part := range recordSep.Split(payload, -1) {
		if !strings.Contains(part, "=") || !strings.Contains(part, "~") {
			continue
		}
		if !strings.HasPrefix(part, "v_") {
			part = "v_" + part
		}
		if q, ok := ParseLine(part); ok {
			out = append(out, q)
		}
	}
	return out
}

// ParseLine parses one `v_<code>="..."` record. It never panics; malformed
// input reports ok=false. Name is the raw vendor name; see Names to resolve it.
func ParseLine(line string) (q types.Quote, ok bool) {
	defer func() {
		if recover() != nil {
			q, ok = types.Quote{}, false
		}
	}()

	var vendorCode string
	if m := codeRe.FindStringSubmatch(line); m != nil {
		vendorCode = m[1]
	}
	content := strings.TrimSpace(prefixRe.ReplaceAllString(line, ""))
	content = strings.TrimSpace(strings.TrimSuffix(content, ";"))
	content = strings.TrimSpace(strings.TrimSuffix(content, `"`))
	if content == "" {
		return types.Quote{}, false
	}
	f := strings.Split(content, "~")
	if len(f) < minFields {
		return types.Quote{}, false
	}

	q = types.Quote{
		Identifier: vendorCode,
		MarketType: f[fieldMarket],
		Name:       strings.TrimSpace(f[fieldName]),
		Symbol:     f[fieldSymbol],
		Price:      num(f[fieldPrice]),
		PrevClose:  num(f[fieldPrevClose]),
		Open:       num(f[fieldOpen]),
		Volume:     f[fieldVolume],
		High:       num(f[fieldHigh]),
		Low:        num(f[fieldLow]),
	}

	change, okChange := parseFloat(f[fieldChange])
	if !okChange || (change == 0 && q.Price != 0 && q.PrevClose != 0) {
		change = q.Price - q.PrevClose
	}
	cp, okCP := parseFloat(f[fieldChangePercent])
	if !okCP || cp == 0 {
		cp = pct(change, q.PrevClose)
	}
	if abs(cp) >= changePercentSuspect {
		cp = pct(change, q.PrevClose)
	}
	if abs(cp) >= changePercentClamp {
		cp = 0
	}
	q.Change = change
	q.ChangePercent = cp

	for i := timeScanFrom; i < timeScanTo && i < len(f); i++ {
		if v := f[i]; v != "" && (timeRe.MatchString(v) || stamp14Re.MatchString(v)) {
			q.UpdateTime = v
			break
		}
	}

	domestic := q.MarketType == MarketSH || q.MarketType == MarketSZ
	q.PE = extractPE(f, domestic)
	if domestic {
		for i := len(f) - amountScanStart; i > len(f)-amountScanEnd; i-- {
			if bigNumberRe.MatchString(f[i]) {
				q.Amount = f[i]
				break
			}
		}
	}

	q.CanonicalCode = q.Symbol
	if isOverseas(vendorCode) || q.CanonicalCode == "" {
		q.CanonicalCode = vendorCode
	}
	return q, true
}

// extractPE reads the domestic fixed field when present, otherwise scans the
// last peScanWindow fields from the end for the first value in
// [peScanMin, peScanMax]. The scan is an approximation and can pick a
// neighbouring field on some markets.
func extractPE(f []string, domestic bool) float64 {
	var pe float64
	if domestic && len(f) > fieldDomesticPE && f[fieldDomesticPE] != "" {
		if v, ok := parseFloat(f[fieldDomesticPE]); ok && v > 0 && v < peMax {
			pe = v
		}
	} else {
		start := len(f) - peScanWindow
		if start < 0 {
			start = 0
		}
		for i := len(f) - 1; i >= start; i-- {
			s := f[i]
			if s == "" {
				continue
			}
			v, ok := parseFloat(s)
			if ok && v > 0 && v < 100 && !yearLikeRe.MatchString(s) && v >= peScanMin && v <= peScanMax {
				pe = v
				break
			}
		}
	}
	if pe > 0 && pe < peMax {
		return pe
	}
	return 0
}

func isOverseas(vendorCode string) bool {
	return strings.HasPrefix(vendorCode, "hk") || strings.HasPrefix(vendorCode, "us")
}

// parseFloat reads the longest numeric prefix of s, so "12.5%" is 12.5 and
// "2026-01-30" is 2026.
func parseFloat(s string) (float64, bool) {
	m := leadingNum.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func num(s string) float64 {
	v, _ := parseFloat(s)
	return v
}

func pct(change, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return change / prev * 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
