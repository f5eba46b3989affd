package processors

import "github.com/username/stockfolio/src/models"

// Reconstructor folds trade history into positions.
type Reconstructor interface {
	Reconstruct(trades []models.TradeRecord) map[string]*PositionAccumulator
	OpenPositions(positions map[string]*PositionAccumulator) []*PositionAccumulator
}

// Valuer prices positions into holdings.
type Valuer interface {
	Value(positions []*PositionAccumulator, prices models.PriceSource) []models.Holding
}

// Summarizer aggregates holdings and trade history into summary figures.
type Summarizer interface {
	Summarize(holdings []models.Holding, realisedPnL float64) models.PortfolioSummary
	RealisedPnL(trades []models.TradeRecord) float64
}

// Merger derives the consolidated view from the two source portfolios.
type Merger interface {
	Consolidate(p1, p2 *models.Portfolio) *models.Portfolio
	Merge(p1, p2 *models.Portfolio) *models.Portfolio
}

var (
	_ Reconstructor = (*HoldingsProcessor)(nil)
	_ Valuer        = (*ValuationProcessor)(nil)
	_ Summarizer    = (*SummaryProcessor)(nil)
	_ Merger        = (*MergeProcessor)(nil)
)
