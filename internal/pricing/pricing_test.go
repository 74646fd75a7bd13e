package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLineItem(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		wantUnit     int64
		wantSubtotal int64
	}{
		{
			name:         "no discount default margin",
			in:           Input{BasePrice: 10000, Discount: 0, ProfitMargin: 35, Quantity: 2},
			wantUnit:     14985, // 10000 -> 11100 -> 11100*1.35
			wantSubtotal: 29970,
		},
		{
			name:         "discount rounds before overhead",
			in:           Input{BasePrice: 10000, Discount: 10, ProfitMargin: 35, Quantity: 1},
			wantUnit:     13486, // 9000 -> 9990 -> 13486.5 rounds to even
			wantSubtotal: 13486,
		},
		{
			name:         "odd base compounds rounded steps",
			in:           Input{BasePrice: 9999, Discount: 7, ProfitMargin: 20, Quantity: 3},
			wantUnit:     12386, // 9299.07 -> 9299 -> 10321.89 -> 10322 -> 12386.4
			wantSubtotal: 37158,
		},
		{
			name:         "full discount zeroes the line",
			in:           Input{BasePrice: 5000, Discount: 100, ProfitMargin: 35, Quantity: 4},
			wantUnit:     0,
			wantSubtotal: 0,
		},
		{
			name:         "zero margin keeps overhead only",
			in:           Input{BasePrice: 1000, Discount: 0, ProfitMargin: 0, Quantity: 1},
			wantUnit:     1110,
			wantSubtotal: 1110,
		},
		{
			name:         "max quantity",
			in:           Input{BasePrice: 100, Discount: 0, ProfitMargin: 0, Quantity: 500},
			wantUnit:     111,
			wantSubtotal: 55500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, subtotal, err := PriceLineItem(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, unit)
			assert.Equal(t, tt.wantSubtotal, subtotal)
			assert.Equal(t, unit*int64(tt.in.Quantity), subtotal, "subtotal must equal unit price times quantity")
		})
	}
}

func TestPriceLineItemDeterministic(t *testing.T) {
	in := Input{BasePrice: 123456, Discount: 13, ProfitMargin: 42, Quantity: 7}
	u1, s1, err := PriceLineItem(in)
	require.NoError(t, err)
	u2, s2, err := PriceLineItem(in)
	require.NoError(t, err)
	assert.Equal(t, u1, u2)
	assert.Equal(t, s1, s2)
}

func TestPriceLineItemRejectsOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		in   Input
	}{
		{"negative base price", Input{BasePrice: -1, Quantity: 1}},
		{"discount above 100", Input{BasePrice: 100, Discount: 101, Quantity: 1}},
		{"negative discount", Input{BasePrice: 100, Discount: -5, Quantity: 1}},
		{"margin above 100", Input{BasePrice: 100, ProfitMargin: 120, Quantity: 1}},
		{"zero quantity", Input{BasePrice: 100, Quantity: 0}},
		{"quantity above 500", Input{BasePrice: 100, Quantity: 501}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := PriceLineItem(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestTax(t *testing.T) {
	tests := []struct {
		net  int64
		want int64
	}{
		{0, 0},
		{100, 19},
		{29970, 5694},  // 5694.3
		{50, 10},       // 9.5 rounds to even 10
		{150, 28},      // 28.5 rounds to even 28
		{1000000, 190000},
	}
	for _, tt := range tests {
		got := Tax(tt.net)
		assert.Equal(t, tt.want, got, "Tax(%d)", tt.net)
		assert.Equal(t, tt.net+tt.want, tt.net+got)
	}
}
