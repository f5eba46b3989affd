// src/processors/valuation_processor.go
package processors

import (
	"sort"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/utils"
)

type ValuationProcessor struct{}

func NewValuationProcessor() *ValuationProcessor {
	return &ValuationProcessor{}
}

type pricedPosition struct {
	acc   *PositionAccumulator
	ltp   float64
	info  models.PriceInfo
	found bool
}

// Value turns open positions into holdings priced against prices.
// Positions without a usable price are valued at their average cost and flagged.
func (p *ValuationProcessor) Value(positions []*PositionAccumulator, prices models.PriceSource) []models.Holding {
	if prices == nil {
		prices = models.NoPrices
	}

	priced := make([]pricedPosition, 0, len(positions))
	var total float64
	for _, acc := range positions {
		if !acc.IsOpen() {
			continue
		}
		pp := pricedPosition{acc: acc}
		pp.info, pp.found = prices.Lookup(acc.Ticker)
		if pp.found {
			pp.ltp = pp.info.Price
		} else {
			pp.ltp = utils.SafeDiv(acc.Cost(), acc.Qty())
		}
		total += acc.Qty() * pp.ltp
		priced = append(priced, pp)
	}

	holdings := make([]models.Holding, 0, len(priced))
	for _, pp := range priced {
		qty := pp.acc.Qty()
		buyValue := pp.acc.Cost()
		presentValue := qty * pp.ltp
		h := models.Holding{
			Ticker:            pp.acc.Ticker,
			Name:              pp.acc.Name,
			Qty:               qty,
			AvgBuyPrice:       utils.SafeDiv(buyValue, qty),
			LTP:               pp.ltp,
			BuyValue:          buyValue,
			PresentValue:      presentValue,
			PnLPercent:        utils.SafePercent(presentValue-buyValue, buyValue),
			AllocationPercent: utils.SafePercent(presentValue, total),
			HasPriceFetched:   pp.found,
		}
		if pp.found {
			h.PriceChangePercent = pp.info.ChangePercent
		}
		holdings = append(holdings, h)
	}

	SortByAllocation(holdings)
	return holdings
}

// RevalueHolding recomputes the fields derived from qty, buyValue and ltp.
// The average price is left untouched when qty is not positive.
func RevalueHolding(h *models.Holding) {
	if h.Qty > 0 {
		h.AvgBuyPrice = h.BuyValue / h.Qty
	}
	h.PresentValue = h.Qty * h.LTP
	h.PnLPercent = utils.SafePercent(h.PresentValue-h.BuyValue, h.BuyValue)
}

// NormalizeAllocations recomputes every allocation from the total present value.
// All allocations are 0 when the total is not positive.
func NormalizeAllocations(holdings []models.Holding) {
	var total float64
	for _, h := range holdings {
		total += h.PresentValue
	}
	for i := range holdings {
		holdings[i].AllocationPercent = utils.SafePercent(holdings[i].PresentValue, total)
	}
}

// SortByAllocation orders holdings by allocation descending, ticker ascending on ties.
func SortByAllocation(holdings []models.Holding) {
	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].AllocationPercent != holdings[j].AllocationPercent {
			return holdings[i].AllocationPercent > holdings[j].AllocationPercent
		}
		return holdings[i].Ticker < holdings[j].Ticker
	})
}
