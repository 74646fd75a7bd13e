// Package currency converts stored USD prices into a quote's target currency
// using the day's cached exchange indicators.
package currency

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mfarias/cotizador/internal/models"
)

// ErrUnknownCurrency marks a target outside {USD, CLP, UF}.
var ErrUnknownCurrency = fmt.Errorf("unknown currency")

// Source supplies the current day's indicators. Implemented by the
// indicators service; a missing row surfaces as ErrIndicatorsUnavailable,
// which is a precondition failure for conversion, not something tolerated
// silently.
type Source interface {
	Today(ctx context.Context) (*models.DailyIndicators, error)
}

type Converter struct {
	src Source
}

func NewConverter(src Source) *Converter {
	return &Converter{src: src}
}

// Convert translates a USD amount into target using today's indicators.
func (c *Converter) Convert(ctx context.Context, amount int64, target string) (decimal.Decimal, error) {
	if target == models.CurrencyUSD {
		// Identity conversion needs no indicators.
		return decimal.NewFromInt(amount), nil
	}
	ind, err := c.src.Today(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Apply(decimal.NewFromInt(amount), target, ind)
}

// Apply performs the conversion arithmetic against a given indicator row.
// CLP amounts carry no decimal places; UF amounts keep four. All intermediate
// math stays in exact decimals so repeated conversions cannot drift.
func Apply(amount decimal.Decimal, target string, ind *models.DailyIndicators) (decimal.Decimal, error) {
	switch target {
	case models.CurrencyUSD:
		return amount, nil
	case models.CurrencyCLP:
		return amount.Mul(ind.USD).RoundBank(0), nil
	case models.CurrencyUF:
		// Divide well past the displayed precision so the final 4-decimal
		// rounding is the only rounding step.
		return amount.Mul(ind.USD).DivRound(ind.UF, 16).RoundBank(4), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, target)
	}
}
