package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"text/csv", "text/plain; charset=utf-8", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ""} {
		assert.NoError(t, ValidateClientContentType(ct), ct)
	}
	assert.ErrorIs(t, ValidateClientContentType("image/png"), ErrValidationFailed)
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("Trades.XLSX"))
	assert.NoError(t, ValidateFilename("export.csv"))
	assert.ErrorIs(t, ValidateFilename("malware.exe"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateFilename("noext"), ErrValidationFailed)
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csv := strings.NewReader("Date,Time,Name\n2024-01-01,,X\n")
	detected, err := ValidateFileContentByMagicBytes(csv)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)
	rest, _ := io.ReadAll(csv)
	assert.True(t, bytes.HasPrefix(rest, []byte("Date")), "reader is rewound")

	zip := bytes.NewReader(append([]byte("PK\x03\x04"), make([]byte, 40)...))
	detected, err = ValidateFileContentByMagicBytes(zip)
	require.NoError(t, err)
	assert.Equal(t, "application/zip", detected)

	png := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n0000"))
	_, err = ValidateFileContentByMagicBytes(png)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "My Portfolio", SanitizeName("  My \x00 Portfolio  "))
	assert.Len(t, []rune(SanitizeName(strings.Repeat("a", 300))), MaxNameLength)
}
