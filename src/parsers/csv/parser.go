// src/parsers/csv/parser.go
package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"io"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/parsers/traderow"
)

type CSVParser struct{}

func NewParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a CSV export of the trade sheet: one header line, then one trade per line.
func (p *CSVParser) Parse(file io.Reader) ([]models.TradeRecord, error) {
	reader := stdcsv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	var trades []models.TradeRecord
	for i, record := range records {
		tr, err := traderow.ToTradeRecord(record)
		if err != nil {
			logger.L.Debug("Skipping CSV row", "line", i+2, "reason", err)
			continue
		}
		trades = append(trades, tr)
	}
	return trades, nil
}
