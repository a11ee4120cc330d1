package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nevermore-backend/internal/entity"
)

type DiscountRepository struct {
	db *sql.DB
}

func NewDiscountRepository(db *sql.DB) *DiscountRepository {
	return &DiscountRepository{db: db}
}

const discountColumns = `id, code, type, value, min_purchase, expiry_date, max_uses, current_uses, status, created_at`

func scanDiscount(row interface{ Scan(...interface{}) error }) (*entity.DiscountCode, error) {
	d := &entity.DiscountCode{}
	var expiry sql.NullTime
	var maxUses sql.NullInt64

	err := row.Scan(&d.ID, &d.Code, &d.Type, &d.Value, &d.MinPurchase,
		&expiry, &maxUses, &d.CurrentUses, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	if expiry.Valid {
		t := expiry.Time
		d.ExpiryDate = &t
	}
	if maxUses.Valid {
		m := int(maxUses.Int64)
		d.MaxUses = &m
	}
	return d, nil
}

// FindActive looks a code up by its normalized form; inactive or unknown
// codes both come back as entity.ErrDiscountInvalid.
func (r *DiscountRepository) FindActive(ctx context.Context, code string) (*entity.DiscountCode, error) {
	query := `SELECT ` + discountColumns + ` FROM discount_codes WHERE code = ? AND status = ?`

	d, err := scanDiscount(r.db.QueryRowContext(ctx, query,
		entity.NormalizeDiscountCode(code), entity.DiscountStatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDiscountInvalid
	}
	return d, err
}

func (r *DiscountRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM discount_codes WHERE code = ?)`,
		entity.NormalizeDiscountCode(code)).Scan(&exists)
	return exists, err
}

func (r *DiscountRepository) List(ctx context.Context) ([]entity.DiscountCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+discountColumns+` FROM discount_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	defer rows.Close()

	var discounts []entity.DiscountCode
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, *d)
	}
	return discounts, rows.Err()
}

func (r *DiscountRepository) Create(ctx context.Context, d *entity.DiscountCode) (int64, error) {
	query := `INSERT INTO discount_codes
		(code, type, value, min_purchase, expiry_date, max_uses, current_uses, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, NOW())`

	var expiry interface{}
	if d.ExpiryDate != nil {
		expiry = *d.ExpiryDate
	}
	var maxUses interface{}
	if d.MaxUses != nil {
		maxUses = *d.MaxUses
	}

	res, err := r.db.ExecContext(ctx, query, d.Code, d.Type, d.Value,
		d.MinPurchase, expiry, maxUses, d.Status)
	if err != nil {
		return 0, fmt.Errorf("create discount: %w", err)
	}
	return res.LastInsertId()
}

func (r *DiscountRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM discount_codes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete discount: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}
