package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mfarias/cotizador/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	id, ok := ParseSession(req)
	if !ok {
		t.Fatal("expected valid session")
	}
	if id != 42 {
		t.Fatalf("expected rep id 42, got %d", id)
	}
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)
	cookie := w.Result().Cookies()[0]
	cookie.Value = strings.Replace(cookie.Value, "42.", "43.", 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	if _, ok := ParseSession(req); ok {
		t.Fatal("tampered cookie must not parse")
	}
}

func TestMiddlewareResolvesRep(t *testing.T) {
	SetRepResolver(func(_ context.Context, id uint) *models.SalesRep {
		if id == 7 {
			return &models.SalesRep{ID: 7, Role: models.RoleRep}
		}
		return nil
	})
	t.Cleanup(func() { SetRepResolver(nil) })

	var got *models.SalesRep
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = RepFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	CreateSession(w, 7)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != 7 {
		t.Fatalf("expected rep 7 in context, got %+v", got)
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quotes", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func testVerifier(t *testing.T) (*MicrosoftVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	v := NewMicrosoftVerifier("test-tenant")
	v.keys["test-kid"] = &key.PublicKey
	v.fetched = time.Now()
	return v, key
}

func TestVerifyValidToken(t *testing.T) {
	v, key := testVerifier(t)
	raw := signTestToken(t, key, "test-kid", jwt.MapClaims{
		"email": "rep@example.cl",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	email, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "rep@example.cl" {
		t.Fatalf("expected email, got %q", email)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v, key := testVerifier(t)
	raw := signTestToken(t, key, "test-kid", jwt.MapClaims{
		"email": "rep@example.cl",
		"exp":   time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := v.Verify(context.Background(), raw); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestVerifyFallsBackToPreferredUsername(t *testing.T) {
	v, key := testVerifier(t)
	raw := signTestToken(t, key, "test-kid", jwt.MapClaims{
		"preferred_username": "rep@example.cl",
		"exp":                time.Now().Add(time.Hour).Unix(),
	})
	email, err := v.Verify(context.Background(), raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "rep@example.cl" {
		t.Fatalf("expected preferred_username email, got %q", email)
	}
}
