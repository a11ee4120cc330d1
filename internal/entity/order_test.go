package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderRef(t *testing.T) {
	ref := ParseOrderRef("12345")
	assert.Equal(t, int64(12345), ref.ID)
	assert.Empty(t, ref.Code)

	ref = ParseOrderRef("ORD-18E2A9F3C41")
	assert.Zero(t, ref.ID)
	assert.Equal(t, "ORD-18E2A9F3C41", ref.Code)

	// Mixed strings are codes even when they start with digits.
	ref = ParseOrderRef("123ABC")
	assert.Zero(t, ref.ID)
	assert.Equal(t, "123ABC", ref.Code)
}

func TestValidOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses {
		assert.True(t, ValidOrderStatus(status))
	}
	assert.False(t, ValidOrderStatus("shipped-ish"))
	assert.False(t, ValidOrderStatus(""))
}

func TestInventoryRowAvailable(t *testing.T) {
	assert.Equal(t, 7, InventoryRow{Quantity: 10, Reserved: 3}.Available())
	assert.Equal(t, 0, InventoryRow{Quantity: 2, Reserved: 5}.Available())
	assert.False(t, InventoryRow{Quantity: 2, Reserved: 5}.InStock())
	assert.True(t, InventoryRow{Quantity: 1}.InStock())
}
