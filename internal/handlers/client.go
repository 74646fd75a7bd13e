package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
)

// ClientHandler serves the client directory the quote form picks from.
type ClientHandler struct {
	db *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// List: GET /clients?q= returns clients with their entity, optionally
// filtered by name.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	db := h.db.WithContext(r.Context()).Preload("Entity").Order("name")
	if q := r.URL.Query().Get("q"); q != "" {
		db = db.Where("lower(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	var clients []models.Client
	if err := db.Find(&clients).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clients": clients})
}

// Regions: GET /regions returns the fixed region catalog.
func (h *ClientHandler) Regions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"regions": models.Regions})
}
