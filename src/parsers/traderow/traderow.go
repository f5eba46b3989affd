// Package traderow converts one raw spreadsheet row into a validated TradeRecord.
package traderow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/utils"
)

// Column positions of the trade sheet.
const (
	ColDate = iota
	ColTime
	ColName
	ColTicker
	ColActivity
	ColOrderType
	ColQuantity
	ColPrice
	ColCashAmount
	ColCommission

	NumColumns
)

var (
	ErrShortRow      = errors.New("row has fewer than 10 columns")
	ErrEmptyTicker   = errors.New("ticker is empty")
	ErrNonPositive   = errors.New("quantity must be positive")
	ErrNegativeValue = errors.New("price and commission must not be negative")
)

// ToTradeRecord validates row and builds the trade it describes.
// Rows that fail validation are meant to be dropped by the caller.
func ToTradeRecord(row []string) (models.TradeRecord, error) {
	if len(row) < NumColumns {
		return models.TradeRecord{}, ErrShortRow
	}

	ticker := utils.CleanTicker(row[ColTicker])
	if ticker == "" {
		return models.TradeRecord{}, ErrEmptyTicker
	}

	quantity, err := utils.ParseNumber(row[ColQuantity])
	if err != nil {
		return models.TradeRecord{}, fmt.Errorf("quantity: %w", err)
	}
	if quantity <= 0 {
		return models.TradeRecord{}, ErrNonPositive
	}

	date, err := utils.ParseTradeDate(row[ColDate])
	if err != nil {
		return models.TradeRecord{}, fmt.Errorf("date: %w", err)
	}

	price, err := utils.ParseNumber(row[ColPrice])
	if err != nil {
		return models.TradeRecord{}, fmt.Errorf("price: %w", err)
	}
	cash, err := utils.ParseNumber(row[ColCashAmount])
	if err != nil {
		return models.TradeRecord{}, fmt.Errorf("cash amount: %w", err)
	}
	commission, err := utils.ParseNumber(row[ColCommission])
	if err != nil {
		return models.TradeRecord{}, fmt.Errorf("commission: %w", err)
	}
	if price < 0 || commission < 0 {
		return models.TradeRecord{}, ErrNegativeValue
	}

	activity := models.ParseActivity(row[ColActivity])

	return models.TradeRecord{
		Date:              date,
		Time:              strings.TrimSpace(row[ColTime]),
		Name:              strings.TrimSpace(validation.StripUnprintable(row[ColName])),
		Ticker:            ticker,
		Activity:          activity,
		OrderType:         strings.TrimSpace(row[ColOrderType]),
		Quantity:          quantity,
		PricePerShare:     price,
		CashAmount:        cash,
		CommissionCharges: commission,
	}, nil
}
