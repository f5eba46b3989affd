// src/services/price_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0"

// Structs for Yahoo Finance chart API responses
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
				Currency           string  `json:"currency"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// DefaultPriceBaseURL is the quote host used when none is configured.
const DefaultPriceBaseURL = "https://query1.finance.yahoo.com"

type PriceServiceConfig struct {
	BaseURL        string
	BatchSize      int
	BatchPause     time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

// priceServiceImpl fetches quotes from the Yahoo chart endpoint in small concurrent batches.
type priceServiceImpl struct {
	httpClient *http.Client
	baseURL    string
	batchSize  int
	limiter    *rate.Limiter
	cache      *cache.Cache
}

func NewPriceService(cfg PriceServiceConfig) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPriceBaseURL
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 20 * time.Second
	}

	// One batch may start per pause interval.
	limit := rate.Inf
	if cfg.BatchPause > 0 {
		limit = rate.Every(cfg.BatchPause)
	}

	var c *cache.Cache
	if cfg.CacheTTL > 0 {
		c = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}

	return &priceServiceImpl{
		httpClient: &http.Client{Jar: jar, Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		batchSize:  cfg.BatchSize,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      c,
	}
}

// GetCurrentPrices resolves every distinct ticker. Per-ticker failures are logged and
// leave the ticker out of the result; only cancellation is returned as an error.
func (s *priceServiceImpl) GetCurrentPrices(ctx context.Context, tickers []string, onProgress ProgressFunc) (models.PriceMap, error) {
	unique := dedupeTickers(tickers)
	result := make(models.PriceMap, len(unique))
	total := len(unique)
	if total == 0 {
		return result, nil
	}

	var pending []string
	for _, t := range unique {
		if info, ok := s.cached(t); ok {
			result[t] = info
			continue
		}
		pending = append(pending, t)
	}
	fetched := total - len(pending)
	if fetched > 0 && onProgress != nil {
		onProgress(fetched, total)
	}

	var mu sync.Mutex
	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("%w: %w", ErrPriceFetchFailed, err)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, ticker := range batch {
			g.Go(func() error {
				info, err := s.getPriceForTicker(gctx, ticker)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.L.Warn("Yahoo Fetch: Could not get price", "ticker", ticker, "error", err)
					return nil
				}
				mu.Lock()
				result[ticker] = info
				mu.Unlock()
				if s.cache != nil {
					s.cache.SetDefault(ticker, info)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, fmt.Errorf("%w: %w", ErrPriceFetchFailed, err)
		}

		fetched += len(batch)
		if onProgress != nil {
			onProgress(fetched, total)
		}
	}

	logger.L.Info("Price fetch complete", "tickersTotal", total, "pricesFound", len(result))
	return result, nil
}

func (s *priceServiceImpl) cached(ticker string) (models.PriceInfo, bool) {
	if s.cache == nil {
		return models.PriceInfo{}, false
	}
	v, ok := s.cache.Get(ticker)
	if !ok {
		return models.PriceInfo{}, false
	}
	info, ok := v.(models.PriceInfo)
	return info, ok
}

// getPriceForTicker reads the latest price and day change from the v8 chart endpoint.
func (s *priceServiceImpl) getPriceForTicker(ctx context.Context, ticker string) (models.PriceInfo, error) {
	chartURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d&includePrePost=false", s.baseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chartURL, nil)
	if err != nil {
		return models.PriceInfo{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.PriceInfo{}, fmt.Errorf("failed to call Yahoo chart API for ticker %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PriceInfo{}, fmt.Errorf("yahoo chart API returned non-OK status %d for ticker %s", resp.StatusCode, ticker)
	}

	var chart yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return models.PriceInfo{}, fmt.Errorf("failed to decode Yahoo chart response for ticker %s: %w", ticker, err)
	}
	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return models.PriceInfo{}, fmt.Errorf("yahoo chart API returned an error or no result for ticker %s", ticker)
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return models.PriceInfo{}, fmt.Errorf("no market price for ticker %s", ticker)
	}
	return models.PriceInfo{
		Price:         meta.RegularMarketPrice,
		ChangePercent: changePercent(meta.RegularMarketPrice, meta.ChartPreviousClose, meta.PreviousClose),
	}, nil
}

// changePercent measures against the chart previous close, else the quote previous close, else reports 0.
func changePercent(price, chartPreviousClose, previousClose float64) float64 {
	prev := chartPreviousClose
	if prev <= 0 {
		prev = previousClose
	}
	if prev <= 0 {
		return 0
	}
	return (price - prev) / prev * 100
}

func dedupeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
