package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const DefaultDateFormat = "02-01-2006"

// Excel serial dates run from 1900-01-01 (1) to 9999-12-31 (2958465).
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// tradeDateLayouts are tried in order after the Excel serial check.
var tradeDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	DefaultDateFormat,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseTradeDate converts a spreadsheet date cell into a calendar date in UTC.
// Numeric cells are treated as Excel serial dates (1900 date system).
func ParseTradeDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if serial < minExcelSerial || serial >= maxExcelSerial+1 {
			return time.Time{}, fmt.Errorf("excel serial date %q out of range", raw)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid excel serial date %q: %w", raw, err)
		}
		return TruncateToDate(t), nil
	}

	for _, layout := range tradeDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return TruncateToDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format %q", raw)
}

// TruncateToDate drops the time of day, keeping the calendar date in UTC.
func TruncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TimeOfDay parses an "HH:MM[:SS]" cell into an offset from midnight.
// Unparseable values count as midnight.
func TimeOfDay(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	// Excel stores times as a fraction of a day.
	if frac, err := strconv.ParseFloat(raw, 64); err == nil && frac >= 0 && frac < 1 {
		return time.Duration(frac * float64(24*time.Hour)).Round(time.Second)
	}
	for _, layout := range []string{"15:04:05", "15:04", "3:04 PM", "3:04:05 PM"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
		}
	}
	return 0
}
