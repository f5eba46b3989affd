// src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/stockfolio/src/models"
)

type Parser interface {
	Parse(file io.Reader) ([]models.TradeRecord, error)
}
