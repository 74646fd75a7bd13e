// Package pricing computes line-item prices and quote totals.
package pricing

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Fixed overhead ratios applied to the discounted dealer price before margin.
const (
	Freight   = 0.04
	Insurance = 0.02
	Customs   = 0.02
	Warranty  = 0.03
)

// VATRate is the Chilean IVA applied to quote net totals.
const VATRate = 0.19

// ErrInvalidInput marks line-item inputs outside their allowed bounds.
var ErrInvalidInput = errors.New("invalid line item input")

var (
	hundred        = decimal.NewFromInt(100)
	overheadFactor = decimal.NewFromFloat(1 + Freight + Insurance + Customs + Warranty)
	vatRate        = decimal.NewFromFloat(VATRate)

	validate = validator.New()
)

// Input holds the raw fields of one line-item row.
type Input struct {
	BasePrice    int64 `validate:"gte=0"`
	Discount     int   `validate:"gte=0,lte=100"`
	ProfitMargin int   `validate:"gte=0,lte=100"`
	Quantity     int   `validate:"gte=1,lte=500"`
}

// PriceLineItem computes the unit price and subtotal for one line item.
// Each step is rounded to whole currency units before the next multiplication;
// the reference pricing sheet compounds rounded intermediates, so the order
// and per-step rounding here must not be collapsed into a single pass.
// Pure and deterministic: callers re-invoke it whenever any input changes.
func PriceLineItem(in Input) (unitPrice, subtotal int64, err error) {
	if err := validate.Struct(in); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	base := decimal.NewFromInt(in.BasePrice)
	afterDiscount := base.Mul(hundred.Sub(decimal.NewFromInt(int64(in.Discount)))).Div(hundred).RoundBank(0)
	afterOverhead := afterDiscount.Mul(overheadFactor).RoundBank(0)
	unit := afterOverhead.Mul(hundred.Add(decimal.NewFromInt(int64(in.ProfitMargin)))).Div(hundred).RoundBank(0)

	unitPrice = unit.IntPart()
	subtotal = unitPrice * int64(in.Quantity)
	return unitPrice, subtotal, nil
}

// Tax returns the VAT amount for a net total, rounded to whole units.
func Tax(net int64) int64 {
	return decimal.NewFromInt(net).Mul(vatRate).RoundBank(0).IntPart()
}
