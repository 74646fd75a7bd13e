package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/policy"
)

// ProductPageSize is the fixed page size of catalog listings.
const ProductPageSize = 10

type ProductHandler struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db, validate: validator.New()}
}

type productInput struct {
	Code           string `json:"code" validate:"required"`
	MaterialNumber string `json:"material_number"`
	Description    string `json:"description" validate:"required"`
	Price          int64  `json:"price" validate:"gte=0"`
}

// List: GET /products?q=&page= searches the catalog by code or description.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	db := h.db.WithContext(r.Context()).Model(&models.Product{})
	if query != "" {
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(query))
		like := "%" + escaped + "%"
		db = db.Where(`lower(code) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\'`, like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		writeError(w, err)
		return
	}
	var products []models.Product
	if err := db.Order("code").
		Limit(ProductPageSize).
		Offset((page - 1) * ProductPageSize).
		Find(&products).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":  products,
		"total":     total,
		"page":      page,
		"page_size": ProductPageSize,
	})
}

// Get: GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := h.db.WithContext(r.Context()).First(&product, r.PathValue("id")).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Create: POST /products (admin only). Codes are stored uppercase.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	product := models.Product{
		Code:           strings.ToUpper(in.Code),
		MaterialNumber: in.MaterialNumber,
		Description:    in.Description,
		Price:          in.Price,
	}
	if err := h.db.WithContext(r.Context()).Create(&product).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

// Update: PUT /products/{id} (admin only).
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var product models.Product
	if err := h.db.WithContext(r.Context()).First(&product, r.PathValue("id")).Error; err != nil {
		writeError(w, err)
		return
	}
	var in productInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	product.Code = strings.ToUpper(in.Code)
	product.MaterialNumber = in.MaterialNumber
	product.Description = in.Description
	product.Price = in.Price
	if err := h.db.WithContext(r.Context()).Save(&product).Error; err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// Delete: DELETE /products/{id} (admin only).
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	res := h.db.WithContext(r.Context()).Delete(&models.Product{}, r.PathValue("id"))
	if res.Error != nil {
		writeError(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		writeError(w, gorm.ErrRecordNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProductHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	rep, _ := auth.RepFromContext(r.Context())
	if !policy.CanManageCatalog(rep) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return false
	}
	return true
}
