package state

import "github.com/username/stockfolio/src/models"

// Event is one named transition of the application state.
type Event interface {
	EventName() string
}

// LoadPortfolio installs a freshly built portfolio into a source slot.
type LoadPortfolio struct {
	Portfolio *models.Portfolio
}

// ClearPortfolios unloads both sources.
type ClearPortfolios struct{}

// PriceRefresh applies newly fetched prices to every loaded source.
// Tickers the source cannot resolve keep their previous price.
type PriceRefresh struct {
	Prices models.PriceSource
}

// HoldingEdit carries the fields of a manual correction; nil fields are left alone.
type HoldingEdit struct {
	LTP      *float64 `json:"ltp,omitempty"`
	Qty      *float64 `json:"qty,omitempty"`
	BuyValue *float64 `json:"buyValue,omitempty"`
}

// ManualEdit corrects one holding. Targeting the consolidated view edits every
// source that holds the ticker.
type ManualEdit struct {
	Target models.PortfolioID
	Ticker string
	Edit   HoldingEdit
}

// NewHolding describes a position added by hand.
type NewHolding struct {
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name"`
	Qty         float64 `json:"qty"`
	AvgBuyPrice float64 `json:"avgBuyPrice"`
	LTP         float64 `json:"ltp"`
}

// AddHolding appends a manual position to a source portfolio.
type AddHolding struct {
	Target  models.PortfolioID
	Holding NewHolding
}

// DeleteHolding removes a ticker. Targeting the consolidated view removes it from every source.
type DeleteHolding struct {
	Target models.PortfolioID
	Ticker string
}

// UpdateCash replaces the cash balance of a source portfolio.
type UpdateCash struct {
	Target models.PortfolioID
	Amount float64
}

func (LoadPortfolio) EventName() string   { return "load_portfolio" }
func (ClearPortfolios) EventName() string { return "clear_portfolios" }
func (PriceRefresh) EventName() string    { return "price_refresh" }
func (ManualEdit) EventName() string      { return "manual_edit" }
func (AddHolding) EventName() string      { return "add_holding" }
func (DeleteHolding) EventName() string   { return "delete_holding" }
func (UpdateCash) EventName() string      { return "update_cash" }
