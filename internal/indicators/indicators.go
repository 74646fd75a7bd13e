// Package indicators fetches and caches the daily UF and USD exchange
// values published by the external indicator service.
package indicators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mfarias/cotizador/internal/models"
)

// ErrUnavailable means no indicator row exists for the current day. Currency
// conversion treats this as a failed precondition: a fetch must run first.
var ErrUnavailable = errors.New("daily indicators unavailable")

// DefaultURL is the mindicador.cl endpoint.
const DefaultURL = "https://mindicador.cl/api"

type Service struct {
	db     *gorm.DB
	client *http.Client
	url    string
	log    *logrus.Logger
}

func NewService(db *gorm.DB, url string, log *logrus.Logger) *Service {
	if url == "" {
		url = DefaultURL
	}
	return &Service{
		db:     db,
		client: &http.Client{Timeout: 10 * time.Second},
		url:    url,
		log:    log,
	}
}

// response mirrors the nested shape of the indicator endpoint.
type response struct {
	UF struct {
		Valor decimal.Decimal `json:"valor"`
	} `json:"uf"`
	Dolar struct {
		Valor decimal.Decimal `json:"valor"`
	} `json:"dolar"`
}

// today normalizes to a date-only value so the unique constraint holds one
// row per calendar day.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current day's cached indicators.
func (s *Service) Today(ctx context.Context) (*models.DailyIndicators, error) {
	var ind models.DailyIndicators
	err := s.db.WithContext(ctx).Where("date = ?", today()).First(&ind).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	return &ind, nil
}

// FetchDaily pulls today's indicators from the external endpoint and stores
// them. Idempotent: if the day's row already exists it is returned untouched,
// so the fetch is safe to trigger any number of times per day. A network or
// decode failure leaves the day absent; reads keep failing with
// ErrUnavailable until a retry succeeds.
func (s *Service) FetchDaily(ctx context.Context) (*models.DailyIndicators, error) {
	if ind, err := s.Today(ctx); err == nil {
		s.log.WithField("date", ind.Date.Format("2006-01-02")).Info("indicators already fetched")
		return ind, nil
	} else if !errors.Is(err, ErrUnavailable) {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.WithError(err).Error("indicator fetch failed")
		return nil, fmt.Errorf("fetch indicators: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		s.log.WithField("status", resp.StatusCode).Error("indicator fetch failed")
		return nil, fmt.Errorf("fetch indicators: unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode indicators: %w", err)
	}

	ind := models.DailyIndicators{Date: today(), UF: body.UF.Valor, USD: body.Dolar.Valor}
	if err := s.db.WithContext(ctx).
		Where("date = ?", ind.Date).
		FirstOrCreate(&ind).Error; err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"uf":  ind.UF.String(),
		"usd": ind.USD.String(),
	}).Info("saved daily indicators")
	return &ind, nil
}
