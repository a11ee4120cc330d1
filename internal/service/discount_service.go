package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

// DiscountQuote is what a standalone validation returns: no side effects,
// usage only moves during actual redemption at placement.
type DiscountQuote struct {
	Code           string          `json:"code"`
	Type           string          `json:"type"`
	Value          decimal.Decimal `json:"value"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	MinPurchase    decimal.Decimal `json:"min_purchase"`
}

type DiscountService struct {
	discounts repository.DiscountStore
	now       func() time.Time
}

func NewDiscountService(discounts repository.DiscountStore) *DiscountService {
	return &DiscountService{discounts: discounts, now: time.Now}
}

// Validate checks a code against its lifecycle rules and quotes the
// discount amount for the given subtotal. Pure read.
func (s *DiscountService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*DiscountQuote, error) {
	discount, err := s.discounts.FindActive(ctx, code)
	if err != nil {
		return nil, err
	}

	if expired(discount, s.now()) {
		return nil, entity.ErrDiscountExpired
	}
	if discount.MaxUses != nil && discount.CurrentUses >= *discount.MaxUses {
		return nil, entity.ErrDiscountExhausted
	}
	if subtotal.Sign() > 0 && discount.MinPurchase.Sign() > 0 && subtotal.LessThan(discount.MinPurchase) {
		return nil, fmt.Errorf("%w: minimum purchase of %s required",
			entity.ErrDiscountMinPurchase, discount.MinPurchase.StringFixed(2))
	}

	return &DiscountQuote{
		Code:           discount.Code,
		Type:           discount.Type,
		Value:          discount.Value,
		DiscountAmount: discount.Amount(subtotal),
		MinPurchase:    discount.MinPurchase,
	}, nil
}

// expired compares calendar dates: a code expiring today is still valid.
func expired(d *entity.DiscountCode, now time.Time) bool {
	if d.ExpiryDate == nil {
		return false
	}
	expiry := d.ExpiryDate.Format("2006-01-02")
	return now.Format("2006-01-02") > expiry
}

func (s *DiscountService) List(ctx context.Context) ([]entity.DiscountCode, error) {
	return s.discounts.List(ctx)
}

type CreateDiscountRequest struct {
	Code        string          `json:"code" validate:"required,max=50"`
	Type        string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value       decimal.Decimal `json:"value"`
	MinPurchase decimal.Decimal `json:"min_purchase"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	MaxUses     *int            `json:"max_uses"`
}

func (s *DiscountService) Create(ctx context.Context, req *CreateDiscountRequest) (*entity.DiscountCode, error) {
	if req.Code == "" || (req.Type != entity.DiscountTypePercentage && req.Type != entity.DiscountTypeFixed) {
		return nil, fmt.Errorf("%w: code and type (percentage|fixed) are required", entity.ErrValidation)
	}
	if req.Value.Sign() < 0 || req.MinPurchase.Sign() < 0 {
		return nil, fmt.Errorf("%w: value and min_purchase must not be negative", entity.ErrValidation)
	}
	if req.MaxUses != nil && *req.MaxUses < 1 {
		return nil, fmt.Errorf("%w: max_uses must be at least 1", entity.ErrValidation)
	}

	code := entity.NormalizeDiscountCode(req.Code)
	exists, err := s.discounts.Exists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, entity.ErrDiscountExists
	}

	discount := &entity.DiscountCode{
		Code:        code,
		Type:        req.Type,
		Value:       req.Value,
		MinPurchase: req.MinPurchase,
		ExpiryDate:  req.ExpiryDate,
		MaxUses:     req.MaxUses,
		Status:      entity.DiscountStatusActive,
	}
	if discount.ID, err = s.discounts.Create(ctx, discount); err != nil {
		logger.Error().Err(err).Str("code", code).Msg("Error creating discount code")
		return nil, err
	}
	return discount, nil
}

func (s *DiscountService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.discounts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return entity.ErrDiscountInvalid
	}
	return nil
}
