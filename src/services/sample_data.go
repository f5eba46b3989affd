package services

import (
	"time"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/processors"
)

type sampleHolding struct {
	ticker, name       string
	qty, avg, ltp, chg float64
}

type sampleTrade struct {
	ticker, name string
	side         models.TransactionType
	shares, px   float64
	day          int
}

var (
	sampleHoldings1 = []sampleHolding{
		{"META", "Meta Platforms Inc", 100.45, 608.21, 647.51, 0.59},
		{"AMZN", "Amazon.com Inc", 200.52, 206.56, 222.54, -1.61},
		{"GOOGL", "Alphabet Inc Class A", 100.93, 154.64, 308.22, -0.35},
		{"AMD", "Advanced Micro Devices Inc", 150.69, 123.83, 207.58, -1.52},
		{"BTCUSD", "Bitcoin", 0.33, 90831.20, 85743.63, -0.80},
		{"MSFT", "Microsoft Corp", 60.37, 428.69, 474.82, -0.78},
		{"NVDA", "NVIDIA Corp", 140.99, 122.55, 176.29, 0.73},
	}
	sampleHoldings2 = []sampleHolding{
		{"META", "Meta Platforms Inc", 80, 608.21, 647.51, 0.59},
		{"AMZN", "Amazon.com Inc", 167, 206.56, 222.54, -1.61},
		{"GOOGL", "Alphabet Inc Class A", 97, 154.64, 308.22, -0.35},
		{"AMD", "Advanced Micro Devices Inc", 137, 123.83, 207.58, -1.52},
		{"BTCUSD", "Bitcoin", 0.33, 90831.20, 85743.63, -0.80},
		{"MSFT", "Microsoft Corp", 53, 428.69, 474.82, -0.78},
		{"SOXX", "iShares Semiconductor ETF", 159.04, 214.32, 298.01, -0.49},
		{"NVDA", "NVIDIA Corp", 126, 122.55, 176.29, 0.73},
		{"TMO", "Thermo Fisher Scientific Inc", 80.38, 415.49, 575.91, 0.71},
		{"MELI", "MercadoLibre Inc", 22.75, 2217.11, 1966.76, -2.44},
		{"LLY", "Eli Lilly and Co", 39.69, 736.64, 1062.19, 3.38},
		{"NVO", "Novo Nordisk A/S", 766.02, 66.41, 50.37, 0.38},
	}
	sampleTrades1 = []sampleTrade{
		{"IREN", "IREN Ltd", models.TransactionBuy, 25, 40.67, 12},
		{"UBER", "Uber Technologies Inc", models.TransactionBuy, 62.5, 83.03, 10},
		{"SNOW", "Snowflake Inc", models.TransactionBuy, 10, 221.39, 9},
	}
	sampleTrades2 = []sampleTrade{
		{"TSLA", "Tesla Inc", models.TransactionBuy, 15, 425.50, 11},
		{"AAPL", "Apple Inc", models.TransactionSell, 20, 195.75, 8},
	}
)

const sampleRealisedPnL = 83575.94

// SamplePortfolios returns two fully valued demo portfolios.
func SamplePortfolios() (*models.Portfolio, *models.Portfolio) {
	return buildSample(models.Portfolio1, "Sample Portfolio 1", sampleHoldings1, sampleTrades1, 5000),
		buildSample(models.Portfolio2, "Sample Portfolio 2", sampleHoldings2, sampleTrades2, 3000)
}

func buildSample(id models.PortfolioID, name string, rows []sampleHolding, trades []sampleTrade, cash float64) *models.Portfolio {
	holdings := make([]models.Holding, 0, len(rows))
	for _, r := range rows {
		h := models.Holding{
			Ticker:             r.ticker,
			Name:               r.name,
			Qty:                r.qty,
			LTP:                r.ltp,
			BuyValue:           r.qty * r.avg,
			PriceChangePercent: r.chg,
			HasPriceFetched:    true,
		}
		processors.RevalueHolding(&h)
		holdings = append(holdings, h)
	}
	processors.NormalizeAllocations(holdings)
	processors.SortByAllocation(holdings)

	transactions := make([]models.Transaction, 0, len(trades))
	for _, tr := range trades {
		date := models.NewDisplayDate(time.Date(2025, time.December, tr.day, 0, 0, 0, 0, time.UTC))
		transactions = append(transactions, models.Transaction{
			ID:     tr.ticker + "-" + date.Format(models.ISODateLayout) + "-0",
			Ticker: tr.ticker,
			Name:   tr.name,
			Type:   tr.side,
			Shares: tr.shares,
			Price:  tr.px,
			Date:   date,
		})
	}

	return &models.Portfolio{
		ID:           id,
		Name:         name,
		Summary:      processors.NewSummaryProcessor().Summarize(holdings, sampleRealisedPnL),
		CashPosition: models.CashPosition{CashPosition: cash},
		Holdings:     holdings,
		Transactions: transactions,
	}
}
