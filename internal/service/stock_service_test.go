package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nevermore-backend/internal/entity"
)

type fakeInventoryStore struct {
	rows map[string]*entity.InventoryRow
}

func (s *fakeInventoryStore) Row(ctx context.Context, variantID int64, size string) (*entity.InventoryRow, error) {
	row, okFound := s.rows[stockKey(variantID, size)]
	if !okFound {
		return nil, entity.ErrItemNotFound
	}
	return row, nil
}

func TestCheckAvailabilityClampsReserved(t *testing.T) {
	store := &fakeInventoryStore{rows: map[string]*entity.InventoryRow{
		stockKey(1, "M"):  {VariantID: 1, Size: "M", Quantity: 10, Reserved: 3},
		stockKey(1, "XL"): {VariantID: 1, Size: "XL", Quantity: 2, Reserved: 5},
	}}
	svc := NewStockService(store)

	avail, err := svc.CheckAvailability(context.Background(), 1, "M")
	require.NoError(t, err)
	assert.Equal(t, 7, avail.Available)
	assert.True(t, avail.InStock)

	// Over-reserved rows clamp at zero rather than going negative.
	avail, err = svc.CheckAvailability(context.Background(), 1, "XL")
	require.NoError(t, err)
	assert.Equal(t, 0, avail.Available)
	assert.False(t, avail.InStock)

	_, err = svc.CheckAvailability(context.Background(), 1, "S")
	assert.ErrorIs(t, err, entity.ErrItemNotFound)
}

func TestValidateCart(t *testing.T) {
	store := &fakeInventoryStore{rows: map[string]*entity.InventoryRow{
		stockKey(1, "M"): {VariantID: 1, Size: "M", Quantity: 5},
	}}
	svc := NewStockService(store)

	statuses, warnings, err := svc.ValidateCart(context.Background(), []CartItem{
		{VariantID: 1, Size: "M", Quantity: 2},
		{VariantID: 1, Size: "M", Quantity: 9},
		{VariantID: 2, Size: "L", Quantity: 1}, // no inventory row
		{VariantID: 0, Size: "M", Quantity: 1}, // invalid, skipped
		{VariantID: 1, Size: "M"},              // qty defaults to 1
	})
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	assert.Equal(t, 5, statuses[0].Available)
	assert.True(t, statuses[0].InStock)

	assert.Equal(t, 0, statuses[2].Available, "missing row reports zero, not an error")
	assert.False(t, statuses[2].InStock)

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "Only 5 left for variant 1 / size M.")
	assert.Contains(t, warnings[1], "Only 0 left for variant 2 / size L.")
}

func TestConfirmStock(t *testing.T) {
	store := &fakeInventoryStore{rows: map[string]*entity.InventoryRow{
		stockKey(1, "M"): {VariantID: 1, Size: "M", Quantity: 4, Reserved: 1},
	}}
	svc := NewStockService(store)

	available, err := svc.ConfirmStock(context.Background(), 1, "M", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, available)

	available, err = svc.ConfirmStock(context.Background(), 1, "M", 4)
	assert.ErrorIs(t, err, entity.ErrValidation)
	assert.Equal(t, 3, available, "failed confirmation still reports what is available")

	_, err = svc.ConfirmStock(context.Background(), 0, "M", 1)
	assert.ErrorIs(t, err, entity.ErrValidation)
}
