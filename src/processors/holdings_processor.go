// src/processors/holdings_processor.go
package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/stockfolio/src/models"
)

// MinOpenQuantity is the residue below which a position counts as closed.
const MinOpenQuantity = 0.0001

var minOpenQty = decimal.NewFromFloat(MinOpenQuantity)

// PositionAccumulator is the running weighted-average state of one ticker.
type PositionAccumulator struct {
	Ticker    string
	Name      string
	TotalQty  decimal.Decimal
	TotalCost decimal.Decimal
}

// Qty returns the open quantity as a float.
func (p *PositionAccumulator) Qty() float64 {
	return p.TotalQty.InexactFloat64()
}

// Cost returns the remaining cost basis as a float.
func (p *PositionAccumulator) Cost() float64 {
	return p.TotalCost.InexactFloat64()
}

// IsOpen reports whether the position survives into the holdings output.
func (p *PositionAccumulator) IsOpen() bool {
	return p.TotalQty.GreaterThan(minOpenQty)
}

func (p *PositionAccumulator) apply(tr models.TradeRecord) {
	qty := decimal.NewFromFloat(tr.Quantity)
	if tr.IsBuy() {
		p.TotalQty = p.TotalQty.Add(qty)
		p.TotalCost = p.TotalCost.
			Add(qty.Mul(decimal.NewFromFloat(tr.PricePerShare))).
			Add(decimal.NewFromFloat(tr.CommissionCharges))
	} else {
		costPerShare := decimal.Zero
		if p.TotalQty.IsPositive() {
			costPerShare = p.TotalCost.Div(p.TotalQty)
		}
		p.TotalQty = p.TotalQty.Sub(qty)
		p.TotalCost = p.TotalCost.Sub(qty.Mul(costPerShare))
	}
	if tr.Name != "" {
		p.Name = tr.Name
	}
}

type HoldingsProcessor struct{}

func NewHoldingsProcessor() *HoldingsProcessor {
	return &HoldingsProcessor{}
}

// Reconstruct folds the trades of one portfolio into a position per ticker.
// Trades are applied in ascending date order; same-day trades keep their input order.
func (p *HoldingsProcessor) Reconstruct(trades []models.TradeRecord) map[string]*PositionAccumulator {
	positions := make(map[string]*PositionAccumulator)
	for _, tr := range SortTradesByDate(trades) {
		acc, ok := positions[tr.Ticker]
		if !ok {
			acc = &PositionAccumulator{Ticker: tr.Ticker, Name: tr.Name}
			positions[tr.Ticker] = acc
		}
		acc.apply(tr)
	}
	return positions
}

// OpenPositions filters out closed positions and orders the rest by ticker.
func (p *HoldingsProcessor) OpenPositions(positions map[string]*PositionAccumulator) []*PositionAccumulator {
	open := make([]*PositionAccumulator, 0, len(positions))
	for _, acc := range positions {
		if acc.IsOpen() {
			open = append(open, acc)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Ticker < open[j].Ticker })
	return open
}

// SortTradesByDate returns a copy of trades stably sorted oldest first.
func SortTradesByDate(trades []models.TradeRecord) []models.TradeRecord {
	sorted := make([]models.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// UniqueTickers lists the distinct tickers in first-seen order.
func UniqueTickers(trades []models.TradeRecord) []string {
	seen := make(map[string]bool, len(trades))
	tickers := make([]string, 0)
	for _, tr := range trades {
		if tr.Ticker == "" || seen[tr.Ticker] {
			continue
		}
		seen[tr.Ticker] = true
		tickers = append(tickers, tr.Ticker)
	}
	return tickers
}
