package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mfarias/cotizador/internal/auth"
)

type stubVerifier struct {
	email string
	err   error
}

func (s stubVerifier) Verify(context.Context, string) (string, error) {
	return s.email, s.err
}

func TestLoginKnownRep(t *testing.T) {
	db := setupHandlerDB(t)
	_, rep, _, _ := seedHandlerFixtures(t, db)
	h := NewAuthHandler(db, stubVerifier{email: "Rep@Test.CL"})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"token":"tok"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != rep.ID {
		t.Fatalf("expected rep %d, got %d", rep.ID, resp.ID)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Value == "" {
		t.Fatalf("expected a session cookie")
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	db := setupHandlerDB(t)
	seedHandlerFixtures(t, db)
	h := NewAuthHandler(db, stubVerifier{email: "stranger@test.cl"})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"token":"tok"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginBadToken(t *testing.T) {
	db := setupHandlerDB(t)
	seedHandlerFixtures(t, db)
	h := NewAuthHandler(db, stubVerifier{err: errors.Join(auth.ErrAuthenticationFailed, errors.New("expired"))})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"token":"tok"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginMissingToken(t *testing.T) {
	db := setupHandlerDB(t)
	h := NewAuthHandler(db, stubVerifier{email: "rep@test.cl"})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
