package utils

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
)

const DefaultCurrency = money.USD

// FormatCurrency renders value as a currency amount, e.g. "$1,234.50".
// With showSign, non-zero values carry an explicit + or -.
func FormatCurrency(value float64, showSign bool) string {
	m := money.NewFromFloat(value, DefaultCurrency)
	formatted := m.Absolute().Display()
	switch {
	case m.IsNegative():
		return "-" + formatted
	case showSign && m.IsPositive():
		return "+" + formatted
	default:
		return formatted
	}
}

// FormatPercent renders value with two decimals and a percent sign.
func FormatPercent(value float64, showSign bool) string {
	formatted := fmt.Sprintf("%.2f%%", math.Abs(value))
	if showSign && value != 0 {
		if value > 0 {
			return "+" + formatted
		}
		return "-" + formatted
	}
	return formatted
}

// FormatCompactNumber abbreviates large values with K, M or B suffixes.
func FormatCompactNumber(value float64) string {
	abs := math.Abs(value)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", value/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", value/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", value/1e3)
	default:
		return fmt.Sprintf("%.2f", value)
	}
}

// FormatNumber renders value with thousands separators and the given decimals.
func FormatNumber(value float64, decimals int) string {
	return humanize.FormatFloat(numberPattern(decimals), value)
}

func numberPattern(decimals int) string {
	switch {
	case decimals <= 0:
		return "#,###."
	case decimals == 1:
		return "#,###.#"
	case decimals == 2:
		return "#,###.##"
	case decimals == 3:
		return "#,###.###"
	default:
		return "#,###.####"
	}
}
