package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nevermore-backend/internal/entity"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Place runs fn inside one transaction. Order insert, discount redemption
// and inventory decrements all land together or roll back together.
func (r *OrderRepository) Place(ctx context.Context, fn func(OrderTx) error) error {
	return withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

type orderTx struct {
	tx *sql.Tx
}

func (t *orderTx) InsertOrder(ctx context.Context, order *entity.Order) (int64, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return 0, fmt.Errorf("marshal items: %w", err)
	}

	query := `INSERT INTO orders
		(order_id, user_id, user_email, first_name, last_name, company, phone,
		 address, apartment, city, postal_code, country, items, subtotal,
		 discount_code, discount_amount, shipping_cost, total_amount,
		 payment_method, shipping_method, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := t.tx.ExecContext(ctx, query,
		order.Code, order.UserID, order.UserEmail, order.FirstName, order.LastName,
		nullString(order.Company), order.Phone, order.Address, nullString(order.Apartment),
		order.City, nullString(order.PostalCode), order.Country, items,
		order.Subtotal, nullString(order.DiscountCode), order.DiscountAmount,
		order.ShippingCost, order.TotalAmount, order.PaymentMethod,
		order.ShippingMethod, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	return res.LastInsertId()
}

func (t *orderTx) RedeemDiscount(ctx context.Context, code string) error {
	query := `UPDATE discount_codes
		SET current_uses = current_uses + 1
		WHERE code = ? AND status = ?
		  AND (max_uses IS NULL OR current_uses < max_uses)`

	res, err := t.tx.ExecContext(ctx, query, code, entity.DiscountStatusActive)
	if err != nil {
		return fmt.Errorf("redeem discount %s: %w", code, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrDiscountExhausted
	}
	return nil
}

func (t *orderTx) VariantIDs(ctx context.Context, productID int64, color string) ([]int64, error) {
	query := `SELECT id FROM product_variants WHERE product_id = ?`
	args := []interface{}{productID}
	if color != "" {
		query += ` AND color = ?`
		args = append(args, color)
	}
	query += ` ORDER BY id`

	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("variants for product %d: %w", productID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *orderTx) DecrementStock(ctx context.Context, variantID int64, size string, qty int) (bool, error) {
	// The quantity guard keeps the stored value non-negative even under
	// concurrent placements against the same row.
	query := `UPDATE product_inventory
		SET quantity = quantity - ?
		WHERE variant_id = ? AND size = ? AND quantity >= ?`

	res, err := t.tx.ExecContext(ctx, query, qty, variantID, size, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock variant %d size %s: %w", variantID, size, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

const orderColumns = `id, order_id, user_id, user_email, first_name, last_name,
	company, phone, address, apartment, city, postal_code, country, items,
	subtotal, discount_code, discount_amount, shipping_cost, total_amount,
	payment_method, shipping_method, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*entity.Order, error) {
	order := &entity.Order{}
	var company, apartment, postalCode, discountCode sql.NullString
	var items []byte

	err := row.Scan(&order.ID, &order.Code, &order.UserID, &order.UserEmail,
		&order.FirstName, &order.LastName, &company, &order.Phone, &order.Address,
		&apartment, &order.City, &postalCode, &order.Country, &items,
		&order.Subtotal, &discountCode, &order.DiscountAmount, &order.ShippingCost,
		&order.TotalAmount, &order.PaymentMethod, &order.ShippingMethod,
		&order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	order.Company = company.String
	order.Apartment = apartment.String
	order.PostalCode = postalCode.String
	order.DiscountCode = discountCode.String

	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("unmarshal items for order %s: %w", order.Code, err)
		}
	}
	return order, nil
}

// refCondition returns the WHERE clause for a tagged order reference so
// internal ids and external codes never get coerced into each other.
func refCondition(ref entity.OrderRef) (string, interface{}) {
	if ref.Code != "" {
		return "order_id = ?", ref.Code
	}
	return "id = ?", ref.ID
}

func (r *OrderRepository) Find(ctx context.Context, ref entity.OrderRef) (*entity.Order, error) {
	cond, arg := refCondition(ref)
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + cond

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	return order, err
}

func (r *OrderRepository) FindForUser(ctx context.Context, userID int64, ref entity.OrderRef) (*entity.Order, error) {
	cond, arg := refCondition(ref)
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? AND ` + cond

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, userID, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrOrderNotFound
	}
	return order, err
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, status string) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" && status != "all" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryOrders(ctx, query, args...)
}

func (r *OrderRepository) List(ctx context.Context, status string, userID int64) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []interface{}
	if status != "" && status != "all" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if userID > 0 {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	return r.queryOrders(ctx, query, args...)
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, ref entity.OrderRef, status string) error {
	cond, arg := refCondition(ref)
	query := `UPDATE orders SET status = ?, updated_at = ? WHERE ` + cond

	res, err := r.db.ExecContext(ctx, query, status, time.Now(), arg)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrOrderNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
