// Package eastmoney talks to the eastmoney fund and quote endpoints: fund
// estimates (fundgz), NAV history (pingzhongdata), fund search, index quotes
// (push2) and the sector ranking board (clist).
package eastmoney

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/komsit37/fundwl/pkg/fw/types"
)

// Scaled integer fields are multiplied by scale. A divided price outside
// [plausibleMin, plausibleMax] means the vendor already sent a decimal.
const (
	scale        = 100
	plausibleMin = 0.01
	plausibleMax = 100000
)

// vendorZone is the exchange-local zone used for vendor epoch timestamps.
var vendorZone = time.FixedZone("CST", 8*60*60)

// ErrNoData reports a well-formed response that carries no record.
var ErrNoData = errors.New("eastmoney: no data")

// Unscale converts a scaled price: p/100 when that is plausible, else p.
func Unscale(p float64) (float64, bool) {
	v := p / scale
	if v < plausibleMin || v > plausibleMax {
		return p, false
	}
	return v, true
}

type indexEnvelope struct {
	Data *struct {
		F43  any `json:"f43"`
		F58  any `json:"f58"`
		F60  any `json:"f60"`
		F170 any `json:"f170"`
	} `json:"data"`
}

// ParseIndex decodes a push2 stock/get body for the index with canonical code
// key. name overrides the vendor name when non-empty.
func ParseIndex(body []byte, secID, key, name string) (types.Quote, error) {
	var env indexEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return types.Quote{}, fmt.Errorf("index %s: %w", key, err)
	}
	if env.Data == nil {
		return types.Quote{}, fmt.Errorf("index %s: %w", key, ErrNoData)
	}
	d := env.Data
	raw := number(d.F43)
	price, scaled := Unscale(raw)

	// prev close and change percent follow the price's encoding
	prev := number(d.F60)
	cp := number(d.F170)
	if scaled {
		cp /= scale
		if prev == 0 {
			prev = price
		} else {
			prev /= scale
		}
	} else if prev == 0 {
		prev = price
	}

	if name == "" {
		name = str(d.F58)
	}
	return types.Quote{
		Identifier:    secID,
		CanonicalCode: key,
		Name:          name,
		Price:         price,
		PrevClose:     prev,
		Change:        price - prev,
		ChangePercent: cp,
	}, nil
}

type estimateJSON struct {
	FundCode string `json:"fundcode"`
	Name     string `json:"name"`
	NavDate  string `json:"jzrq"`
	Nav      string `json:"dwjz"`
	Estimate string `json:"gsz"`
	Growth   string `json:"gszzl"`
	Time     string `json:"gztime"`
}

// ParseEstimate decodes an unwrapped fundgz body. An empty body is the
// vendor's "no estimate" answer and yields a zero Estimate.
func ParseEstimate(body []byte) (types.Estimate, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return types.Estimate{}, nil
	}
	var e estimateJSON
	if err := json.Unmarshal(body, &e); err != nil {
		return types.Estimate{}, fmt.Errorf("estimate: %w", err)
	}
	return types.Estimate{
		FundCode:       e.FundCode,
		Name:           e.Name,
		NavDate:        e.NavDate,
		Nav:            number(e.Nav),
		EstimateNav:    number(e.Estimate),
		EstimateGrowth: number(e.Growth),
		ValuationTime:  e.Time,
	}, nil
}

var (
	netWorthRe = regexp.MustCompile(`(?s)Data_netWorthTrend\s*=\s*(\[.*?\])\s*;`)
	accWorthRe = regexp.MustCompile(`(?s)Data_ACWorthTrend\s*=\s*(\[.*?\]\])\s*;`)
	fundNameRe = regexp.MustCompile(`fS_name\s*=\s*"([^"]*)"`)
)

type trendPoint struct {
	X            float64 `json:"x"`
	Y            any     `json:"y"`
	EquityReturn any     `json:"equityReturn"`
}

// ParseNetWorthTrend reads the NAV series from a pingzhongdata script,
// joining accumulated NAV by timestamp. Points are returned ascending by date;
// non-positive NAVs are skipped.
func ParseNetWorthTrend(code string, script []byte) ([]types.NavPoint, string, error) {
	m := netWorthRe.FindSubmatch(script)
	if m == nil {
		return nil, "", fmt.Errorf("history %s: %w", code, ErrNoData)
	}
	var trend []trendPoint
	if err := json.Unmarshal(m[1], &trend); err != nil {
		return nil, "", fmt.Errorf("history %s: %w", code, err)
	}

	acc := map[int64]float64{}
	if am := accWorthRe.FindSubmatch(script); am != nil {
		var pairs [][]any
		if err := json.Unmarshal(am[1], &pairs); err == nil {
			for _, p := range pairs {
				if len(p) >= 2 {
					acc[int64(number(p[0]))] = number(p[1])
				}
			}
		}
	}

	byDate := map[string]types.NavPoint{}
	for _, p := range trend {
		nav := number(p.Y)
		if nav <= 0 {
			continue
		}
		ms := int64(p.X)
		date := time.UnixMilli(ms).In(vendorZone).Format("2006-01-02")
		byDate[date] = types.NavPoint{
			FundCode:       code,
			Date:           date,
			Nav:            nav,
			AccNav:         acc[ms],
			DailyGrowthPct: number(p.EquityReturn),
		}
	}
	out := make([]types.NavPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	types.SortHistory(out)

	var name string
	if nm := fundNameRe.FindSubmatch(script); nm != nil {
		name = string(nm[1])
	}
	return out, name, nil
}

type searchJSON struct {
	ErrCode int `json:"ErrCode"`
	Datas   []struct {
		Code     string `json:"CODE"`
		Name     string `json:"NAME"`
		BaseInfo *struct {
			FType    string `json:"FTYPE"`
			FundType string `json:"FUNDTYPE"`
		} `json:"FundBaseInfo"`
	} `json:"Datas"`
}

// ParseSearch decodes a fund search body. Hits without fund base info
// (stocks, managers) are dropped.
func ParseSearch(body []byte) ([]types.FundInfo, error) {
	var s searchJSON
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]types.FundInfo, 0, len(s.Datas))
	for _, d := range s.Datas {
		if d.BaseInfo == nil {
			continue
		}
		out = append(out, types.FundInfo{
			Code:      d.Code,
			Name:      d.Name,
			TypeLabel: d.BaseInfo.FType,
			TypeCode:  d.BaseInfo.FundType,
		})
	}
	return out, nil
}

type sectorJSON struct {
	Data *struct {
		Total int             `json:"total"`
		Diff  json.RawMessage `json:"diff"`
	} `json:"data"`
}

// ParseSectors decodes a clist body. Price, change, change percent, turnover
// and the leader's change percent arrive multiplied by 100.
func ParseSectors(body []byte) ([]types.Sector, error) {
	var env sectorJSON
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("sectors: %w", err)
	}
	if env.Data == nil || len(env.Data.Diff) == 0 {
		return nil, nil
	}
	items, err := diffItems(env.Data.Diff)
	if err != nil {
		return nil, fmt.Errorf("sectors: %w", err)
	}
	out := make([]types.Sector, 0, len(items))
	for _, it := range items {
		s := types.Sector{
			Code:          str(it["f12"]),
			Name:          sectorName(str(it["f14"])),
			Price:         number(it["f2"]) / scale,
			ChangePercent: number(it["f3"]) / scale,
			Change:        number(it["f4"]) / scale,
			TurnoverRate:  number(it["f8"]) / scale,
			UpCount:       int(number(it["f104"])),
			DownCount:     int(number(it["f105"])),
			MarketValue:   number(it["f136"]),
			CapitalFlow:   number(it["f222"]),
		}
		if n := str(it["f128"]); n != "" {
			s.Leader = types.Mover{Name: n, Code: str(it["f140"]), ChangePercent: number(it["f141"]) / scale}
		}
		if n := str(it["f207"]); n != "" {
			s.Laggard = types.Mover{Name: n, Code: str(it["f208"])}
		}
		if ms := number(it["f20"]); ms > 0 {
			s.UpdatedAt = time.UnixMilli(int64(ms)).In(vendorZone)
		}
		out = append(out, s)
	}
	return out, nil
}

// diffItems accepts both the array form (np=1) and the index-keyed object form.
func diffItems(raw json.RawMessage) ([]map[string]any, error) {
	if raw[0] == '[' {
		var arr []map[string]any
		err := json.Unmarshal(raw, &arr)
		return arr, err
	}
	var obj map[string]map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, obj[k])
	}
	return out, nil
}

// sectorName drops the first "行业" and the first "板块".
func sectorName(n string) string {
	n = strings.Replace(n, "行业", "", 1)
	return strings.Replace(n, "板块", "", 1)
}

// number reads vendor numbers that may arrive as JSON numbers, numeric strings
// or placeholders such as "-"; anything unreadable is 0.
func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
