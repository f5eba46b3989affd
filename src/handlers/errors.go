package handlers

import (
	"errors"
	"net/http"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/state"
	"github.com/username/stockfolio/src/utils"
)

// sendServiceError maps domain errors to HTTP statuses.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "An internal error occurred. Please try again later."

	switch {
	case errors.Is(err, state.ErrDuplicateTicker), errors.Is(err, services.ErrStaleRefresh):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, state.ErrHoldingNotFound), errors.Is(err, state.ErrPortfolioNotLoaded):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, state.ErrInvalidTarget), errors.Is(err, state.ErrInvalidValue),
		errors.Is(err, validation.ErrValidationFailed), errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, services.ErrNoTrades):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrNoPricesResolved), errors.Is(err, services.ErrPriceFetchFailed):
		status, message = http.StatusBadGateway, "Could not fetch prices. Please try again later."
	}

	log := logger.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	utils.SendJSONError(w, message, status)
}
