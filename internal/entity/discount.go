package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"

	DiscountStatusActive   = "active"
	DiscountStatusInactive = "inactive"
)

type DiscountCode struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"`
	Type        string          `json:"type"`
	Value       decimal.Decimal `json:"value"`
	MinPurchase decimal.Decimal `json:"min_purchase"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	MaxUses     *int            `json:"max_uses,omitempty"`
	CurrentUses int             `json:"current_uses"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NormalizeDiscountCode applies the canonical uppercase-trimmed form used
// for storage and lookup.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Amount computes the discount for the given subtotal: percentage codes
// round half-up to 2 decimals, fixed codes are capped at the subtotal.
func (d DiscountCode) Amount(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.Sign() <= 0 {
		return decimal.Zero
	}
	if d.Type == DiscountTypePercentage {
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return decimal.Min(d.Value, subtotal)
}
