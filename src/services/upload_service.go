// src/services/upload_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/parsers"
	"github.com/username/stockfolio/src/processors"
)

// DefaultPortfolioName is used when an upload does not name its portfolio.
const DefaultPortfolioName = "My Portfolio"

type uploadServiceImpl struct {
	priceService       PriceService
	portfolioProcessor *processors.PortfolioProcessor
}

func NewUploadService(priceService PriceService, portfolioProcessor *processors.PortfolioProcessor) UploadService {
	return &uploadServiceImpl{
		priceService:       priceService,
		portfolioProcessor: portfolioProcessor,
	}
}

func (s *uploadServiceImpl) ProcessUpload(ctx context.Context, file io.Reader, filename string, id models.PortfolioID, name string, onProgress ProgressFunc) (*UploadResult, error) {
	overallStartTime := time.Now()
	log := logger.FromContext(ctx)
	log.Info("ProcessUpload START", "filename", filename, "portfolioID", id)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", ErrParsingFailed, err)
	}

	source := parsers.DetectSource(filename, data)
	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	trades, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	log.Info("Trades parsed", "source", source, "tradesCount", len(trades))

	tickers := processors.UniqueTickers(trades)
	prices, err := s.priceService.GetCurrentPrices(ctx, tickers, onProgress)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Holdings without a quote fall back to their cost basis.
		log.Warn("Price fetch failed, valuing at cost basis", "error", err)
	}

	if name == "" {
		name = DefaultPortfolioName
	}
	portfolio := s.portfolioProcessor.Build(id, name, trades, prices)

	pricesFound := 0
	for _, t := range tickers {
		if _, ok := prices.Lookup(t); ok {
			pricesFound++
		}
	}

	log.Info("ProcessUpload END", "duration", time.Since(overallStartTime), "holdings", len(portfolio.Holdings), "pricesFound", pricesFound, "tickersTotal", len(tickers))
	return &UploadResult{
		Success:      true,
		Portfolio:    portfolio,
		TradesCount:  len(trades),
		PricesFound:  pricesFound,
		TickersTotal: len(tickers),
	}, nil
}
