package repository

import (
	"context"
	"database/sql"
	"errors"

	"nevermore-backend/internal/entity"
)

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Row(ctx context.Context, variantID int64, size string) (*entity.InventoryRow, error) {
	row := &entity.InventoryRow{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, variant_id, size, quantity, reserved_quantity
		 FROM product_inventory WHERE variant_id = ? AND size = ?`,
		variantID, size).Scan(&row.ID, &row.VariantID, &row.Size, &row.Quantity, &row.Reserved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
