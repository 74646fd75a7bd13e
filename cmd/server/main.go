package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mfarias/cotizador/internal/auth"
	"github.com/mfarias/cotizador/internal/config"
	"github.com/mfarias/cotizador/internal/db"
	"github.com/mfarias/cotizador/internal/indicators"
	"github.com/mfarias/cotizador/internal/server"
)

var (
	migrateOnlyFlag     = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	fetchIndicatorsFlag = flag.Bool("fetch-indicators", false, "Fetch today's exchange indicators and exit")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()
	log := config.GetLogger()

	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if *migrateOnlyFlag {
		log.Info("migrations completed; exiting as requested")
		return
	}

	indicatorSvc := indicators.NewService(dbConn, cfg.IndicatorsURL, log)
	if *fetchIndicatorsFlag {
		// Run from cron each morning so conversions have the day's rates.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := indicatorSvc.FetchDaily(ctx); err != nil {
			log.WithError(err).Fatal("indicator fetch failed")
		}
		log.Info("indicators stored; exiting as requested")
		return
	}

	handler := server.New(server.Deps{
		DB:         dbConn,
		Log:        log,
		Verifier:   auth.NewMicrosoftVerifier(cfg.MSTenant),
		Indicators: indicatorSvc,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}
	go func() {
		log.WithFields(logrus.Fields{"env": cfg.Env, "addr": srv.Addr}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server gracefully stopped")
}
