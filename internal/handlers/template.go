package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/services"
)

// TemplateHandler serves reusable product bundles for quote prefill.
type TemplateHandler struct {
	db      *gorm.DB
	service *services.QuoteService
}

func NewTemplateHandler(db *gorm.DB, svc *services.QuoteService) *TemplateHandler {
	return &TemplateHandler{db: db, service: svc}
}

// List: GET /templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	var templates []models.Template
	if err := h.db.WithContext(r.Context()).Order("name").Find(&templates).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// Items: GET /templates/{id}/items prices the template's bundle into draft
// rows ready to drop into a new quote form.
func (h *TemplateHandler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	drafts, err := h.service.FromTemplate(r.Context(), uint(id))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": drafts})
}
