package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nevermore-backend/internal/entity"
)

type fakeDiscountStore struct {
	codes   map[string]*entity.DiscountCode
	created []*entity.DiscountCode
	deleted []int64
}

func (s *fakeDiscountStore) FindActive(ctx context.Context, code string) (*entity.DiscountCode, error) {
	d, okFound := s.codes[entity.NormalizeDiscountCode(code)]
	if !okFound || d.Status != entity.DiscountStatusActive {
		return nil, entity.ErrDiscountInvalid
	}
	return d, nil
}

func (s *fakeDiscountStore) Exists(ctx context.Context, code string) (bool, error) {
	_, okFound := s.codes[code]
	return okFound, nil
}

func (s *fakeDiscountStore) List(ctx context.Context) ([]entity.DiscountCode, error) {
	return nil, nil
}

func (s *fakeDiscountStore) Create(ctx context.Context, d *entity.DiscountCode) (int64, error) {
	s.created = append(s.created, d)
	return int64(len(s.created)), nil
}

func (s *fakeDiscountStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.deleted = append(s.deleted, id)
	return id != 0 && id < 100, nil
}

func newTestDiscountService(codes map[string]*entity.DiscountCode) (*DiscountService, *fakeDiscountStore) {
	store := &fakeDiscountStore{codes: codes}
	svc := NewDiscountService(store)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func pct(code string, value int64) *entity.DiscountCode {
	return &entity.DiscountCode{
		Code:   code,
		Type:   entity.DiscountTypePercentage,
		Value:  decimal.NewFromInt(value),
		Status: entity.DiscountStatusActive,
	}
}

func TestValidatePercentageRounding(t *testing.T) {
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{"SAVE10": pct("SAVE10", 10)})

	quote, err := svc.Validate(context.Background(), "save10", decimal.RequireFromString("99.99"))
	require.NoError(t, err)

	// 9.999 rounds half-up to 10.00
	assert.True(t, quote.DiscountAmount.Equal(decimal.RequireFromString("10.00")),
		"got %s", quote.DiscountAmount)
}

func TestValidateFixedCappedAtSubtotal(t *testing.T) {
	fixed := &entity.DiscountCode{
		Code:   "TAKE20",
		Type:   entity.DiscountTypeFixed,
		Value:  decimal.NewFromInt(20),
		Status: entity.DiscountStatusActive,
	}
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{"TAKE20": fixed})

	quote, err := svc.Validate(context.Background(), "TAKE20", decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	assert.True(t, quote.DiscountAmount.Equal(decimal.NewFromInt(5)))
}

func TestValidateIsIdempotent(t *testing.T) {
	d := pct("SAVE10", 10)
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{"SAVE10": d})

	for i := 0; i < 3; i++ {
		_, err := svc.Validate(context.Background(), "SAVE10", decimal.NewFromInt(100))
		require.NoError(t, err)
	}
	assert.Equal(t, 0, d.CurrentUses, "validation must not consume usage")
}

func TestValidateExpiry(t *testing.T) {
	yesterday := time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)
	today := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	expired := pct("OLD", 10)
	expired.ExpiryDate = &yesterday
	expiringToday := pct("TODAY", 10)
	expiringToday.ExpiryDate = &today

	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{
		"OLD": expired, "TODAY": expiringToday,
	})

	_, err := svc.Validate(context.Background(), "OLD", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, entity.ErrDiscountExpired)

	// Expiring today still counts as valid.
	_, err = svc.Validate(context.Background(), "TODAY", decimal.NewFromInt(100))
	assert.NoError(t, err)
}

func TestValidateExhausted(t *testing.T) {
	maxUses := 5
	d := pct("BUSY", 10)
	d.MaxUses = &maxUses
	d.CurrentUses = 5
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{"BUSY": d})

	_, err := svc.Validate(context.Background(), "BUSY", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, entity.ErrDiscountExhausted)
}

func TestValidateMinPurchase(t *testing.T) {
	d := pct("BIG", 10)
	d.MinPurchase = decimal.NewFromInt(50)
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{"BIG": d})

	_, err := svc.Validate(context.Background(), "BIG", decimal.NewFromInt(40))
	assert.ErrorIs(t, err, entity.ErrDiscountMinPurchase)

	_, err = svc.Validate(context.Background(), "BIG", decimal.NewFromInt(50))
	assert.NoError(t, err)

	// Zero subtotal skips the minimum-purchase check (pure code lookup).
	_, err = svc.Validate(context.Background(), "BIG", decimal.Zero)
	assert.NoError(t, err)
}

func TestValidateUnknownCode(t *testing.T) {
	svc, _ := newTestDiscountService(map[string]*entity.DiscountCode{})

	_, err := svc.Validate(context.Background(), "NOPE", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, entity.ErrDiscountInvalid)
}

func TestCreateDiscount(t *testing.T) {
	svc, store := newTestDiscountService(map[string]*entity.DiscountCode{"TAKEN": pct("TAKEN", 5)})

	created, err := svc.Create(context.Background(), &CreateDiscountRequest{
		Code: " new10 ", Type: entity.DiscountTypePercentage, Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW10", created.Code)
	assert.Equal(t, entity.DiscountStatusActive, created.Status)
	require.Len(t, store.created, 1)

	_, err = svc.Create(context.Background(), &CreateDiscountRequest{
		Code: "taken", Type: entity.DiscountTypeFixed, Value: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, entity.ErrDiscountExists)

	_, err = svc.Create(context.Background(), &CreateDiscountRequest{
		Code: "BAD", Type: "half-off", Value: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, entity.ErrValidation)
}
