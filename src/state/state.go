// Package state holds the application state of one session and the reducer
// that moves it from one snapshot to the next.
package state

import "github.com/username/stockfolio/src/models"

// State is an immutable snapshot of the two source portfolios and their consolidated view.
// A nil portfolio means nothing is loaded in that slot.
type State struct {
	Portfolio1   *models.Portfolio `json:"portfolio1"`
	Portfolio2   *models.Portfolio `json:"portfolio2"`
	Consolidated *models.Portfolio `json:"consolidated"`
}

// Get returns the portfolio shown for id, or nil.
func (s State) Get(id models.PortfolioID) *models.Portfolio {
	switch id {
	case models.Portfolio1:
		return s.Portfolio1
	case models.Portfolio2:
		return s.Portfolio2
	case models.Consolidated:
		return s.Consolidated
	default:
		return nil
	}
}

// IsEmpty reports whether neither source portfolio is loaded.
func (s State) IsEmpty() bool {
	return s.Portfolio1 == nil && s.Portfolio2 == nil
}

// Tickers lists every ticker held by either source, without duplicates.
func (s State) Tickers() []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, p := range []*models.Portfolio{s.Portfolio1, s.Portfolio2} {
		for _, t := range p.Tickers() {
			if !seen[t] {
				seen[t] = true
				tickers = append(tickers, t)
			}
		}
	}
	return tickers
}

func (s State) withSource(id models.PortfolioID, p *models.Portfolio) State {
	switch id {
	case models.Portfolio1:
		s.Portfolio1 = p
	case models.Portfolio2:
		s.Portfolio2 = p
	}
	return s
}
