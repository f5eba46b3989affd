// src/processors/portfolio_processor.go
package processors

import "github.com/username/stockfolio/src/models"

// PortfolioProcessor runs the full pipeline from trade history to a portfolio view.
type PortfolioProcessor struct {
	holdings     Reconstructor
	valuation    Valuer
	summary      Summarizer
	transactions *TransactionProcessor
}

func NewPortfolioProcessor(transactionLimit int) *PortfolioProcessor {
	return &PortfolioProcessor{
		holdings:     NewHoldingsProcessor(),
		valuation:    NewValuationProcessor(),
		summary:      NewSummaryProcessor(),
		transactions: NewTransactionProcessor(transactionLimit),
	}
}

// Build reconstructs, values and summarises trades into a portfolio with zero cash.
func (p *PortfolioProcessor) Build(id models.PortfolioID, name string, trades []models.TradeRecord, prices models.PriceSource) *models.Portfolio {
	positions := p.holdings.OpenPositions(p.holdings.Reconstruct(trades))
	holdings := p.valuation.Value(positions, prices)
	return &models.Portfolio{
		ID:           id,
		Name:         name,
		Summary:      p.summary.Summarize(holdings, p.summary.RealisedPnL(trades)),
		Holdings:     holdings,
		Transactions: p.transactions.Recent(trades),
	}
}
