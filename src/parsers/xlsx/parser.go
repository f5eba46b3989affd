// src/parsers/xlsx/parser.go
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/parsers/traderow"
)

// TradesSheetName is preferred over the first sheet when present (case-insensitive).
const TradesSheetName = "Trades"

type XLSXParser struct{}

func NewParser() *XLSXParser {
	return &XLSXParser{}
}

func (p *XLSXParser) Parse(file io.Reader) ([]models.TradeRecord, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Raw values keep date cells as Excel serial numbers instead of locale-formatted text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheet, err)
	}

	var trades []models.TradeRecord
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		tr, err := traderow.ToTradeRecord(padRow(row))
		if err != nil {
			logger.L.Debug("Skipping spreadsheet row", "sheet", sheet, "row", i+1, "reason", err)
			continue
		}
		trades = append(trades, tr)
	}
	logger.L.Info("Parsed trades from workbook", "sheet", sheet, "rows", len(rows), "trades", len(trades))
	return trades, nil
}

func pickSheet(sheets []string) string {
	for _, name := range sheets {
		if strings.EqualFold(name, TradesSheetName) {
			return name
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

// padRow restores trailing empty cells that excelize trims, once the row reaches the quantity column.
func padRow(row []string) []string {
	if len(row) >= traderow.NumColumns || len(row) <= traderow.ColQuantity {
		return row
	}
	padded := make([]string, traderow.NumColumns)
	copy(padded, row)
	return padded
}
