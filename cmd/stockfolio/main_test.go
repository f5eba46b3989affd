package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokerA = `Date,Time,Name,Ticker,Activity,Order Type,Quantity,Price,Cash Amount,Commission
2024-01-02,09:30,Apple Inc,AAPL,Buy,Market,10,100,-1000,0
2024-01-04,09:30,Apple Inc,AAPL,Sell,Market,5,120,600,0
`

const brokerB = `Date,Time,Name,Ticker,Activity,Order Type,Quantity,Price,Cash Amount,Commission
2024-02-02,10:00,Apple Inc,AAPL,Buy,Market,5,110,-550,0
2024-02-03,10:00,Microsoft Corp,MSFT,Buy,Market,2,300,-600,0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHoldingsCommand(t *testing.T) {
	out, err := run(t, "holdings", writeFile(t, "a.csv", brokerA))
	require.NoError(t, err)

	assert.Contains(t, out, "a.csv  (1 holdings, 500.00 current value)")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "$500.00")
	assert.Contains(t, out, "Realised    +$100.00")
}

func TestMergeCommand(t *testing.T) {
	out, err := run(t, "merge", writeFile(t, "a.csv", brokerA), writeFile(t, "b.csv", brokerB))
	require.NoError(t, err)

	assert.Contains(t, out, "Consolidated Portfolio  (2 holdings, 1.65K current value)")
	assert.Contains(t, out, "MSFT")
	assert.Contains(t, out, "$1,050.00")
}

func TestHoldingsCommand_MissingFile(t *testing.T) {
	_, err := run(t, "holdings", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "stockfolio dev")
}
