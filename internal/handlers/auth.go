package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
)

// AuthHandler exchanges an identity-provider token for a session cookie.
type AuthHandler struct {
	DB       *gorm.DB
	Verifier auth.TokenVerifier
}

func NewAuthHandler(db *gorm.DB, verifier auth.TokenVerifier) *AuthHandler {
	return &AuthHandler{DB: db, Verifier: verifier}
}

// Login handles POST /auth/login with a {"token": "..."} body. It validates
// the provider token, maps the verified email to a sales rep, and establishes
// a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_token", nil)
		return
	}
	email, err := h.Verifier.Verify(r.Context(), body.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	var rep models.SalesRep
	if err := h.DB.WithContext(r.Context()).
		Where("lower(email) = ?", strings.ToLower(email)).
		First(&rep).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Valid token but nobody we know: same failure as a bad token.
			httpx.JSONError(w, http.StatusUnauthorized, "authentication_failed", "unrecognized user")
			return
		}
		writeError(w, err)
		return
	}
	auth.CreateSession(w, rep.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": rep.ID, "name": rep.Name, "role": rep.Role})
}

// Logout drops the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Me returns the authenticated rep.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	rep, ok := auth.RepFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": rep.ID, "name": rep.Name, "email": rep.Email, "role": rep.Role})
}
