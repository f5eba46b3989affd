// src/models/price.go
package models

// PriceInfo is one resolved quote.
type PriceInfo struct {
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
}

// PriceSource resolves the latest price for a ticker.
// A missing or non-positive price means the holding falls back to its cost basis.
type PriceSource interface {
	Lookup(ticker string) (PriceInfo, bool)
}

// PriceMap is the in-memory PriceSource produced by a price fetch.
type PriceMap map[string]PriceInfo

// Lookup implements PriceSource.
func (m PriceMap) Lookup(ticker string) (PriceInfo, bool) {
	info, ok := m[ticker]
	if !ok || info.Price <= 0 {
		return PriceInfo{}, false
	}
	return info, true
}

// NoPrices is a PriceSource that never resolves, forcing cost-basis valuation.
var NoPrices PriceSource = PriceMap(nil)
