// src/parsers/factory.go
package parsers

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/username/stockfolio/src/parsers/csv"
	"github.com/username/stockfolio/src/parsers/xlsx"
)

const (
	SourceXLSX = "xlsx"
	SourceCSV  = "csv"
)

var zipMagic = []byte("PK\x03\x04")

func GetParser(source string) (Parser, error) {
	switch source {
	case SourceXLSX:
		return xlsx.NewParser(), nil
	case SourceCSV:
		return csv.NewParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for source: %s", source)
	}
}

// DetectSource picks a parser from the file name, falling back to the leading bytes.
func DetectSource(filename string, head []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return SourceXLSX
	case ".csv", ".txt":
		return SourceCSV
	}
	if bytes.HasPrefix(head, zipMagic) {
		return SourceXLSX
	}
	return SourceCSV
}
