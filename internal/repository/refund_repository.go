package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nevermore-backend/internal/entity"
)

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) ExistsForOrder(ctx context.Context, orderCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM refunds WHERE order_id = ?)`, orderCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check refund exists: %w", err)
	}
	return exists, nil
}

func (r *RefundRepository) Create(ctx context.Context, refund *entity.Refund) (int64, error) {
	query := `INSERT INTO refunds
		(order_id, customer_email, requested_items, refund_amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, refund.OrderCode, refund.CustomerEmail,
		refund.RequestedItems, refund.RefundAmount, refund.Status,
		refund.CreatedAt, refund.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("create refund: %w", err)
	}
	return res.LastInsertId()
}

func (r *RefundRepository) UpdateStatus(ctx context.Context, orderCode, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE refunds SET status = ?, updated_at = NOW() WHERE order_id = ?`, status, orderCode)
	if err != nil {
		return fmt.Errorf("update refund status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrRefundNotFound
	}
	return nil
}
