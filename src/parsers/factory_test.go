package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParser(t *testing.T) {
	for _, source := range []string{SourceXLSX, SourceCSV} {
		p, err := GetParser(source)
		require.NoError(t, err)
		assert.NotNil(t, p)
	}
	_, err := GetParser("degiro")
	assert.Error(t, err)
}

func TestDetectSource(t *testing.T) {
	assert.Equal(t, SourceXLSX, DetectSource("trades.XLSX", nil))
	assert.Equal(t, SourceCSV, DetectSource("trades.csv", []byte("PK\x03\x04")))
	assert.Equal(t, SourceXLSX, DetectSource("upload", []byte("PK\x03\x04rest")))
	assert.Equal(t, SourceCSV, DetectSource("upload", []byte("Date,Time")))
}
