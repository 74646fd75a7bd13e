package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/currency"
	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/indicators"
	"github.com/mfarias/cotizador/internal/pricing"
	"github.com/mfarias/cotizador/internal/services"
)

// writeError maps service errors onto HTTP status codes. Ordering matters:
// causes wrapped inside ErrTransactionAborted (validation, missing product,
// duplicate key) keep their specific status.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, services.ErrTooManyItems):
		httpx.JSONError(w, http.StatusBadRequest, "too_many_items", nil)
	case errors.Is(err, services.ErrNotEditable):
		httpx.JSONError(w, http.StatusConflict, "quote_not_editable", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		httpx.JSONError(w, http.StatusConflict, "duplicate", nil)
	case errors.Is(err, indicators.ErrUnavailable):
		httpx.JSONError(w, http.StatusConflict, "indicators_unavailable", nil)
	case errors.Is(err, currency.ErrUnknownCurrency):
		httpx.JSONError(w, http.StatusBadRequest, "unknown_currency", nil)
	case errors.Is(err, auth.ErrAuthenticationFailed):
		httpx.JSONError(w, http.StatusUnauthorized, "authentication_failed", nil)
	case errors.Is(err, services.ErrTransactionAborted):
		httpx.JSONError(w, http.StatusInternalServerError, "transaction_aborted", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
