// Package server wires the HTTP surface: routes, auth middleware, health
// endpoints and the request logging/recovery wrappers.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/currency"
	"github.com/mfarias/cotizador/internal/handlers"
	"github.com/mfarias/cotizador/internal/httpx"
	"github.com/mfarias/cotizador/internal/indicators"
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/pricing"
	"github.com/mfarias/cotizador/internal/services"
)

// Deps bundles everything the router needs. Built once in main.
type Deps struct {
	DB         *gorm.DB
	Log        *logrus.Logger
	Verifier   auth.TokenVerifier
	Indicators *indicators.Service
}

// New constructs the root http.Handler with all routes and middleware applied.
func New(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Session cookies resolve to a live rep row so role changes and deleted
	// accounts take effect on the next request.
	auth.SetRepResolver(func(ctx context.Context, id uint) *models.SalesRep {
		var rep models.SalesRep
		if err := d.DB.WithContext(ctx).First(&rep, id).Error; err != nil {
			return nil
		}
		return &rep
	})

	quoteSvc := services.NewQuoteService(d.DB, d.Log)
	converter := currency.NewConverter(d.Indicators)
	sessions := pricing.NewStore()

	ah := handlers.NewAuthHandler(d.DB, d.Verifier)
	qh := handlers.NewQuoteHandler(quoteSvc, converter)
	sh := handlers.NewSessionHandler(d.DB, sessions)
	ph := handlers.NewProductHandler(d.DB)
	ch := handlers.NewClientHandler(d.DB)
	th := handlers.NewTemplateHandler(d.DB, quoteSvc)
	ind := handlers.NewIndicatorsHandler(d.Indicators)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := d.DB.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /auth/login", ah.Login)
	mux.HandleFunc("POST /auth/logout", ah.Logout)

	// Everything below requires a session.
	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	mux.Handle("GET /auth/me", protected(ah.Me))

	mux.Handle("GET /quotes", protected(qh.List))
	mux.Handle("POST /quotes", protected(qh.Create))
	mux.Handle("GET /quotes/new-id", protected(qh.NewPublicID))
	mux.Handle("GET /quotes/{id}", protected(qh.Get))
	mux.Handle("PUT /quotes/{id}", protected(qh.Update))
	mux.Handle("DELETE /quotes/{id}", protected(qh.Delete))
	mux.Handle("POST /quotes/{id}/status", protected(qh.Status))
	mux.Handle("GET /quotes/{id}/pdf", protected(qh.PDF))

	mux.Handle("POST /sessions", protected(sh.Begin))
	mux.Handle("POST /sessions/{id}/rows", protected(sh.AddRow))
	mux.Handle("DELETE /sessions/{id}/rows", protected(sh.DropRow))
	mux.Handle("POST /sessions/{id}/price", protected(sh.Price))
	mux.Handle("DELETE /sessions/{id}/items/{position}", protected(sh.Remove))
	mux.Handle("GET /sessions/{id}/totals", protected(sh.Totals))
	mux.Handle("DELETE /sessions/{id}", protected(sh.End))

	mux.Handle("GET /products", protected(ph.List))
	mux.Handle("POST /products", protected(ph.Create))
	mux.Handle("GET /products/{id}", protected(ph.Get))
	mux.Handle("PUT /products/{id}", protected(ph.Update))
	mux.Handle("DELETE /products/{id}", protected(ph.Delete))

	mux.Handle("GET /clients", protected(ch.List))
	mux.Handle("GET /regions", protected(ch.Regions))

	mux.Handle("GET /templates", protected(th.List))
	mux.Handle("GET /templates/{id}/items", protected(th.Items))

	mux.Handle("POST /indicators/fetch", protected(ind.Fetch))
	mux.Handle("GET /indicators/today", protected(ind.Today))

	return withRecover(withLogging(d.Log, mux))
}

func withLogging(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
