// src/processors/merge_processor.go
package processors

import (
	"sort"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/utils"
)

// DefaultTransactionLimit is the number of recent transactions kept on a view.
const DefaultTransactionLimit = 10

type MergeProcessor struct {
	transactionLimit int
}

func NewMergeProcessor(transactionLimit int) *MergeProcessor {
	if transactionLimit <= 0 {
		transactionLimit = DefaultTransactionLimit
	}
	return &MergeProcessor{transactionLimit: transactionLimit}
}

// Consolidate derives the consolidated view from whichever sources are present.
// It returns nil when neither source is loaded.
func (p *MergeProcessor) Consolidate(p1, p2 *models.Portfolio) *models.Portfolio {
	switch {
	case p1 == nil && p2 == nil:
		return nil
	case p1 == nil:
		return asConsolidated(p2)
	case p2 == nil:
		return asConsolidated(p1)
	default:
		return p.Merge(p1, p2)
	}
}

func asConsolidated(p *models.Portfolio) *models.Portfolio {
	cp := p.Clone()
	cp.ID = models.Consolidated
	cp.Name = models.ConsolidatedName
	return cp
}

// Merge combines two portfolios ticker by ticker into a new consolidated portfolio.
func (p *MergeProcessor) Merge(p1, p2 *models.Portfolio) *models.Portfolio {
	merged := make([]models.Holding, 0, len(p1.Holdings)+len(p2.Holdings))
	index := make(map[string]int)

	for _, src := range [][]models.Holding{p1.Holdings, p2.Holdings} {
		for _, h := range src {
			i, ok := index[h.Ticker]
			if !ok {
				index[h.Ticker] = len(merged)
				merged = append(merged, h)
				continue
			}
			existing := &merged[i]
			existing.Qty += h.Qty
			existing.BuyValue += h.BuyValue
			existing.PresentValue += h.PresentValue
			existing.AvgBuyPrice = utils.SafeDiv(existing.BuyValue, existing.Qty)
			// The sources may disagree on ltp after a manual edit; keep presentValue = qty * ltp.
			if existing.Qty > 0 {
				existing.LTP = existing.PresentValue / existing.Qty
			}
			existing.HasPriceFetched = existing.HasPriceFetched && h.HasPriceFetched
			existing.ManuallyEdited = existing.ManuallyEdited || h.ManuallyEdited
			existing.PnLPercent = utils.SafePercent(existing.PresentValue-existing.BuyValue, existing.BuyValue)
		}
	}

	NormalizeAllocations(merged)
	SortByAllocation(merged)

	s1, s2 := p1.Summary, p2.Summary
	summary := models.PortfolioSummary{
		Invested:      s1.Invested + s2.Invested,
		Current:       s1.Current + s2.Current,
		RealisedPnL:   s1.RealisedPnL + s2.RealisedPnL,
		UnrealisedPnL: s1.UnrealisedPnL + s2.UnrealisedPnL,
		NetPnL:        s1.NetPnL + s2.NetPnL,
	}
	summary.RealisedPnLPercent = utils.SafePercent(summary.RealisedPnL, summary.Invested)
	summary.UnrealisedPnLPercent = utils.SafePercent(summary.UnrealisedPnL, summary.Invested)
	summary.NetPnLPercent = utils.SafePercent(summary.NetPnL, summary.Invested)

	transactions := make([]models.Transaction, 0, len(p1.Transactions)+len(p2.Transactions))
	transactions = append(transactions, p1.Transactions...)
	transactions = append(transactions, p2.Transactions...)
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date.Time)
	})
	if len(transactions) > p.transactionLimit {
		transactions = transactions[:p.transactionLimit]
	}

	return &models.Portfolio{
		ID:      models.Consolidated,
		Name:    models.ConsolidatedName,
		Summary: summary,
		CashPosition: models.CashPosition{
			CashPosition: p1.CashPosition.CashPosition + p2.CashPosition.CashPosition,
		},
		Holdings:     merged,
		Transactions: transactions,
	}
}
