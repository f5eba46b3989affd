// src/processors/summary_processor.go
package processors

import (
	"gonum.org/v1/gonum/floats"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/utils"
)

type SummaryProcessor struct{}

func NewSummaryProcessor() *SummaryProcessor {
	return &SummaryProcessor{}
}

// Summarize aggregates holdings into a summary, carrying realisedPnL as given.
func (p *SummaryProcessor) Summarize(holdings []models.Holding, realisedPnL float64) models.PortfolioSummary {
	buyValues := make([]float64, len(holdings))
	presentValues := make([]float64, len(holdings))
	for i, h := range holdings {
		buyValues[i] = h.BuyValue
		presentValues[i] = h.PresentValue
	}
	return BuildSummary(floats.Sum(buyValues), floats.Sum(presentValues), realisedPnL)
}

// BuildSummary derives the P&L figures and percentages from the three base amounts.
func BuildSummary(invested, current, realisedPnL float64) models.PortfolioSummary {
	unrealised := current - invested
	net := realisedPnL + unrealised
	return models.PortfolioSummary{
		Invested:             invested,
		Current:              current,
		RealisedPnL:          realisedPnL,
		RealisedPnLPercent:   utils.SafePercent(realisedPnL, invested),
		UnrealisedPnL:        unrealised,
		UnrealisedPnLPercent: utils.SafePercent(unrealised, invested),
		NetPnL:               net,
		NetPnLPercent:        utils.SafePercent(net, invested),
	}
}

type realisedLedger struct {
	avgCost float64
	qty     float64
}

// RealisedPnL replays the whole trade history and accumulates the gain of every sell
// against the average cost at the time of sale. Buy commissions are not capitalised
// into the average; sell commissions reduce the proceeds.
func (p *SummaryProcessor) RealisedPnL(trades []models.TradeRecord) float64 {
	ledgers := make(map[string]*realisedLedger)
	gains := make([]float64, 0, len(trades))

	for _, tr := range SortTradesByDate(trades) {
		l, ok := ledgers[tr.Ticker]
		if !ok {
			l = &realisedLedger{}
			ledgers[tr.Ticker] = l
		}

		if tr.IsBuy() {
			newQty := l.qty + tr.Quantity
			l.avgCost = utils.SafeDiv(l.avgCost*l.qty+tr.PricePerShare*tr.Quantity, newQty)
			l.qty = newQty
			continue
		}

		proceeds := tr.PricePerShare*tr.Quantity - tr.CommissionCharges
		gains = append(gains, proceeds-l.avgCost*tr.Quantity)
		l.qty -= tr.Quantity
		if l.qty <= 0 {
			l.qty = 0
		}
	}
	return floats.Sum(gains)
}
