package service

import (
	"context"
	"errors"
	"fmt"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

// StockService backs the cart helpers. Cart state itself lives in the
// client; these calls only answer availability questions.
type StockService struct {
	inventory repository.InventoryStore
}

func NewStockService(inventory repository.InventoryStore) *StockService {
	return &StockService{inventory: inventory}
}

type CartItem struct {
	VariantID int64  `json:"variant_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"qty"`
}

type CartItemStatus struct {
	CartItem
	Available int  `json:"available"`
	InStock   bool `json:"in_stock"`
}

type Availability struct {
	Available int  `json:"available"`
	InStock   bool `json:"in_stock"`
}

// CheckAvailability answers for one variant/size pair. Available is the
// quantity minus reservations, clamped at zero.
func (s *StockService) CheckAvailability(ctx context.Context, variantID int64, size string) (*Availability, error) {
	row, err := s.inventory.Row(ctx, variantID, size)
	if err != nil {
		return nil, err
	}
	return &Availability{Available: row.Available(), InStock: row.InStock()}, nil
}

// ValidateCart annotates each item with availability; items whose
// inventory row is missing report zero available rather than failing.
func (s *StockService) ValidateCart(ctx context.Context, items []CartItem) ([]CartItemStatus, []string, error) {
	var statuses []CartItemStatus
	var warnings []string

	for _, item := range items {
		if item.VariantID == 0 || item.Size == "" {
			continue
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}

		available := 0
		row, err := s.inventory.Row(ctx, item.VariantID, item.Size)
		if err != nil && !errors.Is(err, entity.ErrItemNotFound) {
			return nil, nil, err
		}
		if err == nil {
			available = row.Available()
		}

		if available < qty {
			warnings = append(warnings,
				fmt.Sprintf("Only %d left for variant %d / size %s.", available, item.VariantID, item.Size))
		}

		statuses = append(statuses, CartItemStatus{
			CartItem:  item,
			Available: available,
			InStock:   available > 0,
		})
	}

	return statuses, warnings, nil
}

// ConfirmStock validates a single add-to-cart against current stock.
func (s *StockService) ConfirmStock(ctx context.Context, variantID int64, size string, qty int) (int, error) {
	if variantID == 0 || size == "" || qty < 1 {
		return 0, fmt.Errorf("%w: variant_id, size and qty >= 1 are required", entity.ErrValidation)
	}

	row, err := s.inventory.Row(ctx, variantID, size)
	if err != nil {
		return 0, err
	}

	available := row.Available()
	if available < qty {
		return available, fmt.Errorf("%w: only %d units available", entity.ErrValidation, available)
	}
	return available, nil
}
