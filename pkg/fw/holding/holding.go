// Package holding computes position figures for a watched fund. Arithmetic is
// done in decimal so that money values round the way statements do.
package holding

import "github.com/shopspring/decimal"

const (
	sharePlaces = 2
	moneyPlaces = 2
	pctPlaces   = 2
)

// Holding is a position: shares bought at an average cost per share.
type Holding struct {
	Shares float64
	Cost   float64
}

// FromAmount derives shares from an invested amount and unit cost. A zero
// amount or cost gives an empty holding.
func FromAmount(amount, cost float64) Holding {
	if amount <= 0 || cost <= 0 {
		return Holding{}
	}
	a, c := decimal.NewFromFloat(amount), decimal.NewFromFloat(cost)
	return Holding{Shares: a.DivRound(c, sharePlaces).InexactFloat64(), Cost: cost}
}

// Amount is the invested money, shares times cost.
func (h Holding) Amount() float64 {
	return money(decimal.NewFromFloat(h.Shares).Mul(decimal.NewFromFloat(h.Cost)))
}

// Empty reports a holding with nothing to value.
func (h Holding) Empty() bool { return h.Shares <= 0 || h.Cost <= 0 }

// MarketValue is shares valued at nav.
func (h Holding) MarketValue(nav float64) float64 {
	if h.Shares <= 0 || nav <= 0 {
		return 0
	}
	return money(decimal.NewFromFloat(h.Shares).Mul(decimal.NewFromFloat(nav)))
}

// TodayProfit is (nav - prevNav) * shares; 0 when any input is missing.
func (h Holding) TodayProfit(nav, prevNav float64) float64 {
	if h.Shares <= 0 || nav <= 0 || prevNav <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(nav).Sub(decimal.NewFromFloat(prevNav))
	return money(d.Mul(decimal.NewFromFloat(h.Shares)))
}

// TotalProfit is (nav - cost) * shares; 0 when any input is missing.
func (h Holding) TotalProfit(nav float64) float64 {
	if h.Empty() || nav <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(nav).Sub(decimal.NewFromFloat(h.Cost))
	return money(d.Mul(decimal.NewFromFloat(h.Shares)))
}

// ReturnPct is the total return in percent.
func (h Holding) ReturnPct(nav float64) float64 {
	if h.Empty() || nav <= 0 {
		return 0
	}
	c := decimal.NewFromFloat(h.Cost)
	return decimal.NewFromFloat(nav).Sub(c).Mul(decimal.NewFromInt(100)).DivRound(c, pctPlaces).InexactFloat64()
}

func money(d decimal.Decimal) float64 { return d.Round(moneyPlaces).InexactFloat64() }
