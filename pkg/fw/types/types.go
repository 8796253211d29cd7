package types

import "time"

// Quote is a vendor-agnostic index or security quote after parsing.
type Quote struct {
	// Identifier is the vendor-specific raw code, e.g. "sh000001" or "hkHSI".
	Identifier string `json:"identifier"`
	// Symbol is the exchange code field reported inside the payload, e.g. "000001" or ".IXIC".
	Symbol string `json:"symbol,omitempty"`
	// CanonicalCode is the cross-vendor code used for display and merging.
	CanonicalCode string `json:"code"`
	MarketType    string `json:"marketType,omitempty"`
	Name          string `json:"name"`

	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prevClose"`
	Open          float64 `json:"open,omitempty"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"` // percentage units, 3.23 means 3.23%
	High          float64 `json:"high,omitempty"`
	Low           float64 `json:"low,omitempty"`
	Volume        string  `json:"volume,omitempty"`
	Amount        string  `json:"amount,omitempty"`
	PE            float64 `json:"pe,omitempty"`
	UpdateTime    string  `json:"updateTime,omitempty"`
	TurnoverRate  float64 `json:"turnoverRate,omitempty"`
}

// IsUp reports a non-negative change.
func (q Quote) IsUp() bool { return q.Change >= 0 }

// Key is the identity used when collapsing duplicates: the vendor code when
// present, else the canonical code.
func (q Quote) Key() string {
	if q.Identifier != "" {
		return q.Identifier
	}
	return q.CanonicalCode
}

// NavPoint is one official NAV observation. Date is a calendar day (YYYY-MM-DD),
// unique per fund.
type NavPoint struct {
	FundCode       string  `json:"fundCode" validate:"required"`
	Date           string  `json:"date" validate:"required,datetime=2006-01-02"`
	Nav            float64 `json:"nav" validate:"gt=0"`
	AccNav         float64 `json:"accNav" validate:"gte=0"`
	DailyGrowthPct float64 `json:"dailyGrowth"`
}

// Estimate is a vendor real-time NAV estimate for a fund. A zero EstimateNav
// means the vendor could not estimate the fund.
type Estimate struct {
	FundCode       string  `json:"fundCode"`
	Name           string  `json:"name"`
	NavDate        string  `json:"navDate"`
	Nav            float64 `json:"nav"`         // prior official close
	EstimateNav    float64 `json:"estimateNav"` // estimated current NAV
	EstimateGrowth float64 `json:"estimateGrowth"`
	ValuationTime  string  `json:"valuationTime"`
}

// DataSource tells which feed a DisplayRecord came from.
type DataSource string

const (
	SourceRealtime DataSource = "realtime"
	SourceOfficial DataSource = "official"
)

// DisplayRecord is the merged value to show for a fund.
type DisplayRecord struct {
	NetValue      float64    `json:"netValue"`
	ChangePercent float64    `json:"changePercent"`
	PreviousNav   float64    `json:"previousNav"`
	IsRealtime    bool       `json:"isRealtime"`
	DataSource    DataSource `json:"dataSource"`
	UpdateTime    string     `json:"updateTime"`
	StatusLabel   string     `json:"statusLabel"`
}

// WatchlistEntry is a fund the user follows plus an optional holding.
type WatchlistEntry struct {
	FundCode  string    `json:"fundCode" validate:"required,len=6,numeric"`
	Name      string    `json:"name"`
	AddedAt   time.Time `json:"addedAt"`
	SortOrder int       `json:"sortOrder" validate:"gte=0"`
	Category  string    `json:"category,omitempty" validate:"excludes=-"`
	TypeLabel string    `json:"typeLabel,omitempty"`
	TypeCode  string    `json:"typeCode,omitempty"`
	Shares    float64   `json:"shares,omitempty" validate:"gte=0"`
	Cost      float64   `json:"cost,omitempty" validate:"gte=0"`
	Amount    float64   `json:"amount,omitempty" validate:"gte=0"`
}

// FundInfo is one fund search hit.
type FundInfo struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	TypeLabel string `json:"typeLabel"` // e.g. "混合型-偏股"
	TypeCode  string `json:"typeCode"`  // e.g. "002"
}

// Row is a watchlist entry with its latest market state, as rendered.
type Row struct {
	Entry WatchlistEntry `json:"entry"`

	Nav            float64 `json:"nav,omitempty"`
	EstimateNav    float64 `json:"estimateNav,omitempty"`
	EstimateGrowth float64 `json:"estimateGrowth,omitempty"`
	ValuationTime  string  `json:"valuationTime,omitempty"`

	Display *DisplayRecord `json:"display,omitempty"`
	// Err is set when the last refresh failed; the fields above keep their prior values.
	Err string `json:"error,omitempty"`
}

// Sector is one row of a sector ranking board.
type Sector struct {
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ChangePercent float64   `json:"changePercent"`
	Change        float64   `json:"change"`
	Price         float64   `json:"price"`
	TurnoverRate  float64   `json:"turnoverRate"`
	UpCount       int       `json:"upCount"`
	DownCount     int       `json:"downCount"`
	Leader        Mover     `json:"leader"`
	Laggard       Mover     `json:"laggard"`
	UpdatedAt     time.Time `json:"updatedAt"`
	MarketValue   float64   `json:"marketValue,omitempty"`
	CapitalFlow   float64   `json:"capitalFlow,omitempty"`
}

// Mover is the leading stock of a sector.
type Mover struct {
	Code          string  `json:"code,omitempty"`
	Name          string  `json:"name,omitempty"`
	ChangePercent float64 `json:"changePercent,omitempty"`
}
