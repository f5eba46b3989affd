// src/models/holding.go
package models

// Holding is a materialized, valued position as shown to the user.
// BuyValue is authoritative for cost; AvgBuyPrice is derived from it.
type Holding struct {
	Ticker             string  `json:"ticker" msgpack:"ticker"`
	Name               string  `json:"name" msgpack:"name"`
	Qty                float64 `json:"qty" msgpack:"qty"`
	AvgBuyPrice        float64 `json:"avgBuyPrice" msgpack:"avgBuyPrice"`
	LTP                float64 `json:"ltp" msgpack:"ltp"` // Last traded price
	BuyValue           float64 `json:"buyValue" msgpack:"buyValue"`
	PresentValue       float64 `json:"presentValue" msgpack:"presentValue"`
	PnLPercent         float64 `json:"pnlPercent" msgpack:"pnlPercent"`
	AllocationPercent  float64 `json:"allocationPercent" msgpack:"allocationPercent"`
	PriceChangePercent float64 `json:"priceChangePercent" msgpack:"priceChangePercent"` // Day change reported by the price source
	HasPriceFetched    bool    `json:"hasPriceFetched" msgpack:"hasPriceFetched"`
	ManuallyEdited     bool    `json:"manuallyEdited,omitempty" msgpack:"manuallyEdited"`
}

// PortfolioSummary holds the aggregate figures of one portfolio view.
type PortfolioSummary struct {
	Invested             float64 `json:"invested" msgpack:"invested"`
	Current              float64 `json:"current" msgpack:"current"`
	RealisedPnL          float64 `json:"realisedPnL" msgpack:"realisedPnL"` // Computed once from trade history, carried afterwards
	RealisedPnLPercent   float64 `json:"realisedPnLPercent" msgpack:"realisedPnLPercent"`
	UnrealisedPnL        float64 `json:"unrealisedPnL" msgpack:"unrealisedPnL"`
	UnrealisedPnLPercent float64 `json:"unrealisedPnLPercent" msgpack:"unrealisedPnLPercent"`
	NetPnL               float64 `json:"netPnL" msgpack:"netPnL"`
	NetPnLPercent        float64 `json:"netPnLPercent" msgpack:"netPnLPercent"`
}

// CashPosition is the user-maintained uninvested balance.
type CashPosition struct {
	CashPosition float64 `json:"cashPosition" msgpack:"cashPosition"`
}

// TransactionType is the display side of a transaction.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is a display-oriented record of a recent trade.
type Transaction struct {
	ID               string          `json:"id" msgpack:"id"`
	Ticker           string          `json:"ticker" msgpack:"ticker"`
	Name             string          `json:"name" msgpack:"name"`
	Type             TransactionType `json:"type" msgpack:"type"`
	Shares           float64         `json:"shares" msgpack:"shares"`
	Price            float64         `json:"price" msgpack:"price"`
	Date             DisplayDate     `json:"date" msgpack:"date"`
	AllocationChange float64         `json:"allocationChange" msgpack:"allocationChange"` // Always 0, kept for wire compatibility
}

// PortfolioID identifies one of the portfolio views.
type PortfolioID string

const (
	Portfolio1   PortfolioID = "portfolio1"
	Portfolio2   PortfolioID = "portfolio2"
	Consolidated PortfolioID = "consolidated"

	ConsolidatedName = "Consolidated Portfolio"
)

// IsSource reports whether id names a stored source portfolio rather than a derived view.
func (id PortfolioID) IsSource() bool {
	return id == Portfolio1 || id == Portfolio2
}

// ParsePortfolioID validates a raw identifier coming from a request.
func ParsePortfolioID(raw string) (PortfolioID, bool) {
	switch id := PortfolioID(raw); id {
	case Portfolio1, Portfolio2, Consolidated:
		return id, true
	default:
		return "", false
	}
}

// Portfolio is one complete portfolio view.
type Portfolio struct {
	ID           PortfolioID      `json:"id" msgpack:"id"`
	Name         string           `json:"name" msgpack:"name"`
	Summary      PortfolioSummary `json:"summary" msgpack:"summary"`
	CashPosition CashPosition     `json:"cashPosition" msgpack:"cashPosition"`
	Holdings     []Holding        `json:"holdings" msgpack:"holdings"`
	Transactions []Transaction    `json:"transactions" msgpack:"transactions"`
}

// Clone returns a deep copy so callers can mutate without affecting shared snapshots.
func (p *Portfolio) Clone() *Portfolio {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Holdings = append([]Holding(nil), p.Holdings...)
	cp.Transactions = append([]Transaction(nil), p.Transactions...)
	return &cp
}

// HoldingIndex returns the position of ticker in the holdings list, or -1.
func (p *Portfolio) HoldingIndex(ticker string) int {
	if p == nil {
		return -1
	}
	for i := range p.Holdings {
		if p.Holdings[i].Ticker == ticker {
			return i
		}
	}
	return -1
}

// Tickers lists the tickers held, in holdings order.
func (p *Portfolio) Tickers() []string {
	if p == nil {
		return nil
	}
	tickers := make([]string, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		tickers = append(tickers, h.Ticker)
	}
	return tickers
}
