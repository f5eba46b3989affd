package services

import (
	"context"
	"io"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/state"
)

// ProgressFunc is told how many of total tickers have been attempted so far.
type ProgressFunc func(fetched, total int)

// PriceService resolves current quotes for a set of tickers.
// Tickers that cannot be resolved are simply absent from the result.
type PriceService interface {
	GetCurrentPrices(ctx context.Context, tickers []string, onProgress ProgressFunc) (models.PriceMap, error)
}

// UploadResult is the outcome of turning one trade file into a portfolio.
type UploadResult struct {
	Success      bool              `json:"success"`
	Portfolio    *models.Portfolio `json:"portfolio"`
	TradesCount  int               `json:"tradesCount"`
	PricesFound  int               `json:"pricesFound"`
	TickersTotal int               `json:"tickersTotal"`
}

// UploadService parses a trade file, prices its tickers and builds the portfolio.
type UploadService interface {
	ProcessUpload(ctx context.Context, file io.Reader, filename string, id models.PortfolioID, name string, onProgress ProgressFunc) (*UploadResult, error)
}

// RefreshResult reports a completed price refresh.
type RefreshResult struct {
	State        state.State `json:"state"`
	PricesFound  int         `json:"pricesFound"`
	TickersTotal int         `json:"tickersTotal"`
}

// PortfolioService owns the per-session application state.
type PortfolioService interface {
	GetState(ctx context.Context, sessionID string) (state.State, error)
	Upload(ctx context.Context, sessionID string, file io.Reader, filename string, id models.PortfolioID, name string) (*UploadResult, error)
	RefreshPrices(ctx context.Context, sessionID string) (*RefreshResult, error)
	Apply(ctx context.Context, sessionID string, ev state.Event) (state.State, error)
	LoadSample(ctx context.Context, sessionID string) (state.State, error)
	Clear(ctx context.Context, sessionID string) error
}
