package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/komsit37/fundwl/pkg/fw/names"
	"github.com/komsit37/fundwl/pkg/fw/transport"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

var (
	// ErrNotFound reports a fund code the search endpoint does not know.
	ErrNotFound = errors.New("eastmoney: fund not found")
	// ErrUnsupported reports an index without an eastmoney secid.
	ErrUnsupported = errors.New("eastmoney: index not supported")
)

// Endpoints are the vendor URLs. Estimate and History take the fund code via
// a %s verb.
type Endpoints struct {
	Estimate string
	History  string
	Search   string
	Quote    string
	Sectors  string
}

var DefaultEndpoints = Endpoints{
	Estimate: "https://fundgz.1234567.com.cn/js/%s.js",
	History:  "https://fund.eastmoney.com/pingzhongdata/%s.js",
	Search:   "https://fundsuggest.eastmoney.com/FundSearch/api/FundSearchAPI.ashx",
	Quote:    "https://push2.eastmoney.com/api/qt/stock/get",
	Sectors:  "https://push2.eastmoney.com/api/qt/clist/get",
}

const (
	indexFields  = "f43,f58,f60,f170"
	sectorFields = "f12,f13,f14,f1,f2,f4,f3,f152,f20,f8,f104,f105,f128,f140,f141,f207,f208,f209,f136,f222"
	sectorFilter = "m:90+t:2+f:!50"
	sectorPage   = "20"
)

// Client implements the fund and index sources on eastmoney.
type Client struct {
	http  *resty.Client
	jsonp *transport.JSONP
	urls  Endpoints
	table map[string]names.Known
	now   func() time.Time
}

// NewClient builds a client; zero-valued endpoint fields use DefaultEndpoints.
func NewClient(http *resty.Client, jsonp *transport.JSONP, urls Endpoints) *Client {
	if urls.Estimate == "" {
		urls.Estimate = DefaultEndpoints.Estimate
	}
	if urls.History == "" {
		urls.History = DefaultEndpoints.History
	}
	if urls.Search == "" {
		urls.Search = DefaultEndpoints.Search
	}
	if urls.Quote == "" {
		urls.Quote = DefaultEndpoints.Quote
	}
	if urls.Sectors == "" {
		urls.Sectors = DefaultEndpoints.Sectors
	}
	return &Client{http: http, jsonp: jsonp, urls: urls, table: names.Indices, now: time.Now}
}

func (c *Client) cacheBuster() string { return strconv.FormatInt(c.now().UnixMilli(), 10) }

// FetchEstimate returns the real-time estimate for a fund. Funds the vendor
// does not estimate come back as a zero Estimate with a nil error.
func (c *Client) FetchEstimate(ctx context.Context, code string) (types.Estimate, error) {
	body, err := c.jsonp.Call(ctx, fmt.Sprintf(c.urls.Estimate, code), map[string]string{"rt": c.cacheBuster()}, "")
	if err != nil {
		return types.Estimate{}, fmt.Errorf("estimate %s: %w", code, err)
	}
	return ParseEstimate(body)
}

// FetchHistory returns the official NAV series for a fund, ascending.
func (c *Client) FetchHistory(ctx context.Context, code string) ([]types.NavPoint, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("v", c.cacheBuster()).
		Get(fmt.Sprintf(c.urls.History, code))
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", code, err)
	}
	if err := transport.CheckStatus(resp); err != nil {
		return nil, err
	}
	points, _, err := ParseNetWorthTrend(code, resp.Body())
	return points, err
}

// Search looks funds up by code or name fragment.
func (c *Client) Search(ctx context.Context, keyword string) ([]types.FundInfo, error) {
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{"m": "1", "key": keyword}).
		Get(c.urls.Search)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	if err := transport.CheckStatus(resp); err != nil {
		return nil, err
	}
	return ParseSearch(resp.Body())
}

// Lookup returns the search hit whose code is exactly code.
func (c *Client) Lookup(ctx context.Context, code string) (types.FundInfo, error) {
	hits, err := c.Search(ctx, code)
	if err != nil {
		return types.FundInfo{}, err
	}
	for _, h := range hits {
		if h.Code == code {
			return h, nil
		}
	}
	return types.FundInfo{}, fmt.Errorf("%s: %w", code, ErrNotFound)
}

// FetchIndex returns the quote for an index keyed by canonical code, e.g.
// "SH000001".
func (c *Client) FetchIndex(ctx context.Context, key string) (types.Quote, error) {
	known, ok := c.table[key]
	if !ok || known.SecID == "" {
		return types.Quote{}, fmt.Errorf("%s: %w", key, ErrUnsupported)
	}
	body, err := c.jsonp.Call(ctx, c.urls.Quote, map[string]string{
		"secid":  known.SecID,
		"fields": indexFields,
		"fltt":   "2",
		"_":      c.cacheBuster(),
	}, "cb")
	if err != nil {
		return types.Quote{}, fmt.Errorf("index %s: %w", key, err)
	}
	return ParseIndex(body, known.SecID, key, known.Name)
}

// FetchSectors returns the industry board ranked by change percent, gainers
// first when up is true, decliners first otherwise.
func (c *Client) FetchSectors(ctx context.Context, up bool) ([]types.Sector, error) {
	po := "0"
	if up {
		po = "1"
	}
	resp, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"np": "1", "fltt": "1", "invt": "2", "fs": sectorFilter, "fields": sectorFields,
			"fid": "f3", "pn": "1", "pz": sectorPage, "po": po, "dect": "1",
		}).
		Get(c.urls.Sectors)
	if err != nil {
		return nil, fmt.Errorf("sectors: %w", err)
	}
	if err := transport.CheckStatus(resp); err != nil {
		return nil, err
	}
	return ParseSectors(resp.Body())
}
