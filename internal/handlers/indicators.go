package handlers

import (
	"net/http"

	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/indicators"
)

// IndicatorsHandler exposes the daily exchange-rate cache.
type IndicatorsHandler struct {
	Service *indicators.Service
}

func NewIndicatorsHandler(svc *indicators.Service) *IndicatorsHandler {
	return &IndicatorsHandler{Service: svc}
}

// Fetch: POST /indicators/fetch pulls today's rates from the provider and
// stores them. Re-running on the same day returns the already stored row.
func (h *IndicatorsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	ind, err := h.Service.FetchDaily(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ind)
}

// Today: GET /indicators/today returns the stored row for the current day,
// or 409 when no fetch has happened yet.
func (h *IndicatorsHandler) Today(w http.ResponseWriter, r *http.Request) {
	ind, err := h.Service.Today(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ind)
}
