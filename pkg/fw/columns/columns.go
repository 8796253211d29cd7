// Package columns turns watchlist rows into display cells.
package columns

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/komsit37/fundwl/pkg/fw/holding"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Cell is one rendered value. Sign is the direction of the fund's move and
// drives coloring: -1 down, 0 flat or not applicable, 1 up. Value is the raw
// value for machine-readable output; nil when missing.
type Cell struct {
	Text  string
	Sign  int
	Value any
}

// Resolver computes a cell for a row.
type Resolver func(r types.Row) Cell

// Registry maps column keys to resolvers.
var Registry = map[string]Resolver{}

// Headers are the display titles; keys without one are shown upper-cased.
var Headers = map[string]string{
	"code":     "代码",
	"name":     "名称",
	"category": "类别",
	"type":     "类型",
	"nav":      "单位净值",
	"est":      "估值",
	"chg%":     "涨跌幅",
	"status":   "状态",
	"source":   "来源",
	"time":     "更新",
	"shares":   "份额",
	"cost":     "成本",
	"amount":   "投入",
	"value":    "市值",
	"today":    "当日收益",
	"profit":   "持有收益",
	"return%":  "收益率",
	"error":    "错误",
}

func init() {
	Registry["code"] = func(r types.Row) Cell { return text(r.Entry.FundCode) }
	Registry["name"] = func(r types.Row) Cell { return text(r.Entry.Name) }
	Registry["category"] = func(r types.Row) Cell { return text(r.Entry.Category) }
	Registry["type"] = func(r types.Row) Cell { return text(r.Entry.TypeLabel) }
	// official NAV of the last close
	Registry["nav"] = func(r types.Row) Cell { return navCell(r.Nav) }
	// the merged value: estimate while trading, else official
	Registry["est"] = func(r types.Row) Cell {
		if r.Display == nil {
			return Cell{}
		}
		c := navCell(r.Display.NetValue)
		c.Sign = sign(r.Display.ChangePercent)
		return c
	}
	Registry["chg%"] = func(r types.Row) Cell {
		if r.Display == nil {
			return Cell{}
		}
		p := r.Display.ChangePercent
		return Cell{Text: FormatPct(p), Sign: sign(p), Value: p}
	}
	Registry["status"] = func(r types.Row) Cell {
		if r.Display == nil {
			return Cell{}
		}
		return text(r.Display.StatusLabel)
	}
	Registry["source"] = func(r types.Row) Cell {
		if r.Display == nil {
			return Cell{}
		}
		return text(string(r.Display.DataSource))
	}
	Registry["time"] = func(r types.Row) Cell {
		if r.Display == nil {
			return Cell{}
		}
		return text(r.Display.UpdateTime)
	}
	Registry["shares"] = func(r types.Row) Cell { return moneyCell(r.Entry.Shares) }
	Registry["cost"] = func(r types.Row) Cell { return navCell(r.Entry.Cost) }
	Registry["amount"] = func(r types.Row) Cell { return moneyCell(r.Entry.Amount) }
	Registry["value"] = func(r types.Row) Cell {
		h, nav, _ := position(r)
		return moneyCell(h.MarketValue(nav))
	}
	Registry["today"] = func(r types.Row) Cell {
		h, nav, prev := position(r)
		if h.Shares <= 0 || nav <= 0 || prev <= 0 {
			return Cell{}
		}
		v := h.TodayProfit(nav, prev)
		return signedMoney(v)
	}
	Registry["profit"] = func(r types.Row) Cell {
		h, nav, _ := position(r)
		if h.Empty() || nav <= 0 {
			return Cell{}
		}
		return signedMoney(h.TotalProfit(nav))
	}
	Registry["return%"] = func(r types.Row) Cell {
		h, nav, _ := position(r)
		if h.Empty() || nav <= 0 {
			return Cell{}
		}
		p := h.ReturnPct(nav)
		return Cell{Text: FormatPct(p), Sign: sign(p), Value: p}
	}
	Registry["error"] = func(r types.Row) Cell { return text(r.Err) }
}

// position returns the holding and the current and previous NAV to value it
// with.
func position(r types.Row) (h holding.Holding, nav, prev float64) {
	h = holding.Holding{Shares: r.Entry.Shares, Cost: r.Entry.Cost}
	if r.Display != nil {
		nav, prev = r.Display.NetValue, r.Display.PreviousNav
	}
	return h, nav, prev
}

func text(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return Cell{Text: s, Value: s}
}

func navCell(v float64) Cell {
	if v <= 0 {
		return Cell{}
	}
	return Cell{Text: strconv.FormatFloat(v, 'f', 4, 64), Value: v}
}

func moneyCell(v float64) Cell {
	if v == 0 {
		return Cell{}
	}
	return Cell{Text: FormatFloatComma(v, 2), Value: v}
}

func signedMoney(v float64) Cell {
	c := Cell{Text: FormatFloatComma(v, 2), Sign: sign(v), Value: v}
	if v > 0 {
		c.Text = "+" + c.Text
	}
	return c
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// FormatPct formats a percentage with an explicit sign, e.g. "+2.88%".
func FormatPct(p float64) string {
	if p > 0 {
		return fmt.Sprintf("+%.2f%%", p)
	}
	return fmt.Sprintf("%.2f%%", p)
}

// Compute determines the final column order. Explicit columns are honored as
// given, minus duplicates. Otherwise the default set is used, followed by the
// holding set when any row has a holding and the error column when any row
// failed.
func Compute(explicit []string, rows []types.Row) []string {
	if len(explicit) > 0 {
		seen := map[string]struct{}{}
		out := make([]string, 0, len(explicit))
		for _, k := range explicit {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
		return out
	}

	keys := append([]string(nil), Sets["default"]...)
	var held, failed bool
	for _, r := range rows {
		held = held || r.Entry.Shares > 0
		failed = failed || r.Err != ""
	}
	if held {
		keys = append(keys, Sets["holding"]...)
	}
	if failed {
		keys = append(keys, "error")
	}
	return keys
}

// Unknown returns the keys in cols that have no resolver.
func Unknown(cols []string) []string {
	var out []string
	for _, c := range cols {
		if _, ok := Registry[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// RenderValue calls the resolver for the given column; unknown columns are
// empty.
func RenderValue(col string, r types.Row) Cell {
	if res, ok := Registry[col]; ok {
		return res(r)
	}
	return Cell{}
}

// Header returns the display title of col.
func Header(col string) string {
	if h, ok := Headers[col]; ok {
		return h
	}
	return strings.ToUpper(col)
}

// FormatFloatComma formats a float with a fixed number of decimals and comma separators.
func FormatFloatComma(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}
	n := len(intPart)
	if n <= 3 {
		return sign + intPart + fracPart
	}
	out := make([]byte, 0, n+n/3)
	rem := n % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, intPart[:rem]...)
	for i := rem; i < n; i += 3 {
		out = append(out, ',')
		out = append(out, intPart[i:i+3]...)
	}
	return sign + string(out) + fracPart
}
