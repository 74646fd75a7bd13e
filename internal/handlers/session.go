package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/pricing"
)

// SessionHandler serves the live pricing preview behind the quote edit form.
// Every price shown in the form comes from here; the client never does the
// arithmetic itself.
type SessionHandler struct {
	DB    *gorm.DB
	Store *pricing.Store
}

func NewSessionHandler(db *gorm.DB, store *pricing.Store) *SessionHandler {
	return &SessionHandler{DB: db, Store: store}
}

// Begin: POST /sessions {"rows": n} opens an edit session. Editing an
// existing quote seeds the row counter with its current item count.
func (h *SessionHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rows int `json:"rows"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Rows < 0 || body.Rows > pricing.MaxLineItems {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_row_count", nil)
		return
	}
	id, _ := h.Store.Begin(body.Rows)
	httpx.JSON(w, http.StatusCreated, map[string]any{"session_id": id, "rows": body.Rows})
}

// AddRow: POST /sessions/{id}/rows allocates the next row position, refusing
// once the form is full.
func (h *SessionHandler) AddRow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	idx, ok := s.NextIndex()
	if !ok {
		httpx.JSONError(w, http.StatusConflict, "too_many_items", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"position": idx})
}

// DropRow: DELETE /sessions/{id}/rows releases the last row position.
func (h *SessionHandler) DropRow(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.DropIndex()
	httpx.JSON(w, http.StatusOK, s.ComputeTotals())
}

type priceRequest struct {
	Position     int  `json:"position"`
	ProductID    uint `json:"product_id"`
	Discount     int  `json:"discount"`
	ProfitMargin int  `json:"profit_margin"`
	Quantity     int  `json:"quantity"`
}

// Price: POST /sessions/{id}/price computes one row's unit price and
// subtotal, records the subtotal in the session, and returns the running
// totals alongside the row figures.
func (h *SessionHandler) Price(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var product models.Product
	if err := h.DB.WithContext(r.Context()).First(&product, req.ProductID).Error; err != nil {
		writeError(w, err)
		return
	}
	unit, subtotal, err := pricing.PriceLineItem(pricing.Input{
		BasePrice:    product.Price,
		Discount:     req.Discount,
		ProfitMargin: req.ProfitMargin,
		Quantity:     req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	s.SetSubtotal(req.Position, subtotal)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"position":   req.Position,
		"unit_price": unit,
		"subtotal":   subtotal,
		"totals":     s.ComputeTotals(),
	})
}

// Remove: DELETE /sessions/{id}/items/{position} drops one row's subtotal
// and returns the recomputed totals. Unknown positions are ignored.
func (h *SessionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	pos, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_position", nil)
		return
	}
	s.RemoveSubtotal(pos)
	httpx.JSON(w, http.StatusOK, s.ComputeTotals())
}

// Totals: GET /sessions/{id}/totals
func (h *SessionHandler) Totals(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, s.ComputeTotals())
}

// End: DELETE /sessions/{id} discards the session.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.Store.End(r.PathValue("id"))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ended"})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*pricing.Session, bool) {
	s, ok := h.Store.Get(r.PathValue("id"))
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "session_not_found", nil)
		return nil, false
	}
	return s, true
}
