package services

import "errors"

var (
	ErrParsingFailed    = errors.New("failed to parse trade file")
	ErrNoTrades         = errors.New("no valid trades found in file")
	ErrNoPricesResolved = errors.New("no prices could be resolved")
	ErrPriceFetchFailed = errors.New("price fetch failed")
	ErrStaleRefresh     = errors.New("price refresh superseded by a newer one")
)
