// src/processors/transaction_processor.go
package processors

import (
	"fmt"
	"sort"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/utils"
)

type TransactionProcessor struct {
	limit int
}

func NewTransactionProcessor(limit int) *TransactionProcessor {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return &TransactionProcessor{limit: limit}
}

// Recent maps the most recent trades, newest first, into display transactions.
func (p *TransactionProcessor) Recent(trades []models.TradeRecord) []models.Transaction {
	sorted := make([]models.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti := sorted[i].Date.Add(utils.TimeOfDay(sorted[i].Time))
		tj := sorted[j].Date.Add(utils.TimeOfDay(sorted[j].Time))
		return ti.After(tj)
	})
	if len(sorted) > p.limit {
		sorted = sorted[:p.limit]
	}

	transactions := make([]models.Transaction, 0, len(sorted))
	for i, tr := range sorted {
		txType := models.TransactionSell
		if tr.IsBuy() {
			txType = models.TransactionBuy
		}
		transactions = append(transactions, models.Transaction{
			ID:     fmt.Sprintf("%s-%s-%d", tr.Ticker, tr.Date.Format(models.ISODateLayout), i),
			Ticker: tr.Ticker,
			Name:   tr.Name,
			Type:   txType,
			Shares: tr.Quantity,
			Price:  tr.PricePerShare,
			Date:   models.NewDisplayDate(tr.Date),
		})
	}
	return transactions
}
