// Package auth handles session cookies and identity-provider token
// validation. Sessions carry the sales rep id in an HMAC-signed cookie; the
// rep's role is re-read from the database on each request so a role change
// takes effect immediately.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/models"
)

type ctxKey string

const (
	sessionCookieName = "session"
	repCtxKey         = ctxKey("salesRep")
)

// RepResolver loads the sales rep for a session's id. Returning nil rejects
// the session (rep deleted or disabled since login).
type RepResolver func(ctx context.Context, id uint) *models.SalesRep

var resolver RepResolver

// SetRepResolver configures the resolver used by Middleware. Set during app
// bootstrap.
func SetRepResolver(r RepResolver) { resolver = r }

// Secret returns SESSION_SECRET or a default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// CreateSession sets a signed cookie with the sales rep id.
func CreateSession(w http.ResponseWriter, repID uint) {
	idStr := strconv.FormatUint(uint64(repID), 10)
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(idStr))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    idStr + "." + sig,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie signature and returns the rep id.
func ParseSession(r *http.Request) (uint, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return 0, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return 0, false
	}
	idStr, sig := parts[0], parts[1]
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(idStr))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return 0, false
	}
	id64, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id64), true
}

// WithRep stores the sales rep in context.
func WithRep(ctx context.Context, rep *models.SalesRep) context.Context {
	return context.WithValue(ctx, repCtxKey, rep)
}

// RepFromContext extracts the authenticated sales rep.
func RepFromContext(ctx context.Context) (*models.SalesRep, bool) {
	rep, ok := ctx.Value(repCtxKey).(*models.SalesRep)
	return rep, ok && rep != nil
}

// Middleware resolves the session cookie into a sales rep on the request
// context. Requests without a valid session pass through unauthenticated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := ParseSession(r); ok && resolver != nil {
			if rep := resolver(r.Context(), id); rep != nil {
				r = r.WithContext(WithRep(r.Context(), rep))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects unauthenticated requests with 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := RepFromContext(r.Context()); !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
