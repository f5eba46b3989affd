package state

import "errors"

var (
	ErrDuplicateTicker    = errors.New("ticker already exists in portfolio")
	ErrHoldingNotFound    = errors.New("holding not found")
	ErrPortfolioNotLoaded = errors.New("portfolio not loaded")
	ErrInvalidTarget      = errors.New("event cannot target this portfolio")
	ErrInvalidValue       = errors.New("value must be a non-negative number")
	ErrUnknownEvent       = errors.New("unknown event")
)
