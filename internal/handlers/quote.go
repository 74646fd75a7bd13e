package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/currency"
	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/pdf"
	"github.com/mfarias/cotizador/internal/policy"
	"github.com/mfarias/cotizador/internal/services"
)

// QuoteHandler exposes the quote CRUD, workflow and export endpoints.
type QuoteHandler struct {
	Service   *services.QuoteService
	Converter *currency.Converter
}

func NewQuoteHandler(svc *services.QuoteService, conv *currency.Converter) *QuoteHandler {
	return &QuoteHandler{Service: svc, Converter: conv}
}

// List: GET /quotes?page=&public_id=&client=&status=&date=&sales_rep_id=
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	q := r.URL.Query()
	filter := services.QuoteFilter{
		Client: q.Get("client"),
		Status: q.Get("status"),
		Date:   q.Get("date"),
	}
	if v := q.Get("public_id"); v != "" {
		filter.PublicID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("sales_rep_id"); v != "" {
		id, _ := strconv.ParseUint(v, 10, 32)
		filter.SalesRepID = uint(id)
	}
	if v := q.Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	quotes, total, err := h.Service.List(r.Context(), rep, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotes":    quotes,
		"total":     total,
		"page":      max(filter.Page, 1),
		"page_size": services.QuotePageSize,
	})
}

// Get: GET /quotes/{id}
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	quote, err := h.loadVisible(w, r, rep)
	if err != nil {
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	var in services.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	// Sales reps always quote on their own behalf.
	if rep != nil && policy.ScopeToOwn(rep) {
		in.SalesRepID = rep.ID
	}
	quote, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

// Update: PUT /quotes/{id}
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	quote, err := h.loadVisible(w, r, rep)
	if err != nil {
		return
	}
	if !policy.CanEditQuote(rep, quote) {
		writeError(w, services.ErrNotEditable)
		return
	}
	var in services.QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if rep != nil && policy.ScopeToOwn(rep) {
		in.SalesRepID = rep.ID
	}
	updated, err := h.Service.Update(r.Context(), quote.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete: DELETE /quotes/{id}
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	quote, err := h.loadVisible(w, r, rep)
	if err != nil {
		return
	}
	if !policy.CanDeleteQuote(rep, quote) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), quote.ID); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Status: POST /quotes/{id}/status {"action": "approve" | "reject" | "close"}
func (h *QuoteHandler) Status(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	quote, err := h.loadVisible(w, r, rep)
	if err != nil {
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if !policy.CanDecideQuote(rep) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	updated, err := h.Service.SetStatus(r.Context(), quote.ID, body.Action, rep)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// NewPublicID: GET /quotes/new-id
func (h *QuoteHandler) NewPublicID(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]int64{"public_id": services.GenerateTempPublicID()})
}

// PDF: GET /quotes/{id}/pdf renders the quote document in its own currency.
func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	rep, _ := auth.RepFromContext(r.Context())
	quote, err := h.loadVisible(w, r, rep)
	if err != nil {
		return
	}
	format, err := h.formatter(r, quote)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := pdf.Generate(quote, format)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("cotizacion_%d.pdf", quote.PublicID)))
	w.Write(doc)
}

// formatter builds the amount renderer for the quote's currency. Quotes in
// USD never touch the indicator cache; the others fail fast when the day's
// row is missing.
func (h *QuoteHandler) formatter(r *http.Request, quote *models.Quote) (pdf.Formatter, error) {
	if quote.Currency == models.CurrencyUSD {
		return pdf.PlainFormatter(models.CurrencyUSD), nil
	}
	// Probe once so a missing indicator row fails before any PDF bytes.
	if _, err := h.Converter.Convert(r.Context(), 0, quote.Currency); err != nil {
		return nil, err
	}
	ctx := r.Context()
	target := quote.Currency
	return func(amount int64) string {
		v, err := h.Converter.Convert(ctx, amount, target)
		if err != nil {
			return "-"
		}
		if target == models.CurrencyUF {
			return "UF " + v.StringFixed(4)
		}
		return "CLP " + v.StringFixed(0)
	}, nil
}

// loadVisible fetches the path quote and enforces the viewing scope. On any
// failure it writes the response itself and returns a non-nil error.
func (h *QuoteHandler) loadVisible(w http.ResponseWriter, r *http.Request, rep *models.SalesRep) (*models.Quote, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return nil, err
	}
	quote, err := h.Service.Get(r.Context(), uint(id))
	if err != nil {
		writeError(w, err)
		return nil, err
	}
	if !policy.CanViewQuote(rep, quote) {
		// Hide the quote's existence from out-of-scope reps.
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return nil, errOutOfScope
	}
	return quote, nil
}

var errOutOfScope = errors.New("quote out of scope")
