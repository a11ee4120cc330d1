package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeDiscountCode(t *testing.T) {
	assert.Equal(t, "SUMMER10", NormalizeDiscountCode("  summer10 "))
	assert.Equal(t, "A-B_C", NormalizeDiscountCode("a-b_c"))
}

func TestDiscountAmount(t *testing.T) {
	ten := DiscountCode{Type: DiscountTypePercentage, Value: decimal.NewFromInt(10)}
	fixed20 := DiscountCode{Type: DiscountTypeFixed, Value: decimal.NewFromInt(20)}

	// Percentage rounds half-up to cents.
	assert.True(t, ten.Amount(decimal.RequireFromString("99.99")).Equal(decimal.RequireFromString("10.00")))
	assert.True(t, ten.Amount(decimal.RequireFromString("100.00")).Equal(decimal.RequireFromString("10.00")))
	assert.True(t, ten.Amount(decimal.RequireFromString("0.05")).Equal(decimal.RequireFromString("0.01")))

	// Fixed is capped at the subtotal.
	assert.True(t, fixed20.Amount(decimal.RequireFromString("5.00")).Equal(decimal.NewFromInt(5)))
	assert.True(t, fixed20.Amount(decimal.RequireFromString("50.00")).Equal(decimal.NewFromInt(20)))

	// Non-positive subtotals discount nothing.
	assert.True(t, ten.Amount(decimal.Zero).Equal(decimal.Zero))
	assert.True(t, fixed20.Amount(decimal.NewFromInt(-1)).Equal(decimal.Zero))
}
