package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/username/stockfolio/src/models"
)

// MockPriceService is a mock price service for testing
type MockPriceService struct {
	mock.Mock
}

func (m *MockPriceService) GetCurrentPrices(ctx context.Context, tickers []string, onProgress ProgressFunc) (models.PriceMap, error) {
	args := m.Called(ctx, tickers, onProgress)
	if onProgress != nil {
		onProgress(len(tickers), len(tickers))
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.PriceMap), args.Error(1)
}

const tradesCSV = `Date,Time,Name,Ticker,Activity,Order Type,Quantity,Price,Cash Amount,Commission
2024-01-02,09:30,Apple Inc,AAPL,Buy,Market,10,100,-1000,0
2024-01-03,09:30,Microsoft Corp,MSFT,Buy,Market,5,200,-1000,0
2024-01-04,09:30,Apple Inc,AAPL,Sell,Market,5,120,600,0
`
