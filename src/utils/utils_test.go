package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafePercent(t *testing.T) {
	assert.Equal(t, 50.0, SafePercent(5, 10))
	assert.Equal(t, 0.0, SafePercent(5, 0))
	assert.Equal(t, 0.0, SafePercent(5, -1))
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 2.5, SafeDiv(5, 2))
	assert.Equal(t, 0.0, SafeDiv(5, 0))
	assert.Equal(t, 0.0, SafeDiv(math.Inf(1), 1))
}

func TestCleanTicker(t *testing.T) {
	tests := map[string]string{
		" aapl ":    "AAPL",
		"brk.b":     "BRK.B",
		"$TSLA*":    "TSLA",
		"rel-iance": "RELIANCE",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanTicker(in), "input %q", in)
	}
}

func TestParseNumber(t *testing.T) {
	v, err := ParseNumber(" 1,234.56 ")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, v)

	v, err = ParseNumber("")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	_, err = ParseNumber("abc")
	assert.Error(t, err)
}

func TestParseTradeDate(t *testing.T) {
	want := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2024-01-15", "15/01/2024", "15-01-2024", "2024-01-15T10:30:00", "45306"} {
		got, err := ParseTradeDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "input %q parsed to %s", raw, got)
	}

	_, err := ParseTradeDate("not a date")
	assert.Error(t, err)
	_, err = ParseTradeDate("")
	assert.Error(t, err)
}

func TestParseTradeDate_RejectsSerialsOutsideExcelRange(t *testing.T) {
	for _, raw := range []string{"20240115", "0", "-3", "2958466"} {
		_, err := ParseTradeDate(raw)
		assert.Error(t, err, raw)
	}

	got, err := ParseTradeDate("1")
	require.NoError(t, err)
	assert.Equal(t, 1900, got.Year())
}

func TestTimeOfDay(t *testing.T) {
	assert.Equal(t, 10*time.Hour+30*time.Minute, TimeOfDay("10:30"))
	assert.Equal(t, 12*time.Hour, TimeOfDay("0.5"))
	assert.Equal(t, time.Duration(0), TimeOfDay("garbage"))
}
