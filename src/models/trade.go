// src/models/trade.go
package models

import (
	"strings"
	"time"
)

// Activity is the side of a trade.
type Activity string

const (
	ActivityBuy  Activity = "Buy"
	ActivitySell Activity = "Sell"
)

// TradeRecord is the canonical, immutable representation of one executed trade.
// Parsers are responsible for validating every field before a record is produced.
type TradeRecord struct {
	Date              time.Time `json:"date"`              // Calendar date of the trade
	Time              string    `json:"time"`              // Time of day as written in the source, informational
	Name              string    `json:"name"`              // Security display name
	Ticker            string    `json:"ticker"`            // Cleaned symbol, grouping key
	Activity          Activity  `json:"activity"`          // Buy or Sell
	OrderType         string    `json:"orderType"`         // e.g. "Market", "Limit"; informational
	Quantity          float64   `json:"quantity"`          // Always > 0
	PricePerShare     float64   `json:"pricePerShare"`     // Always >= 0
	CashAmount        float64   `json:"cashAmount"`        // Informational, not used in calculations
	CommissionCharges float64   `json:"commissionCharges"` // Always >= 0
}

// IsBuy reports whether the trade adds to the position.
func (t TradeRecord) IsBuy() bool {
	return t.Activity == ActivityBuy
}

// ParseActivity maps the raw spreadsheet value to an Activity.
// Anything that is not a buy is treated as a sell.
func ParseActivity(raw string) Activity {
	if strings.EqualFold(strings.TrimSpace(raw), string(ActivityBuy)) {
		return ActivityBuy
	}
	return ActivitySell
}
