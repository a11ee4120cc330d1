package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nevermore-backend/internal/entity"
)

type DesignRepository struct {
	db *sql.DB
}

func NewDesignRepository(db *sql.DB) *DesignRepository {
	return &DesignRepository{db: db}
}

const designColumns = `id, user_id, design_name, garment_type, garment_color,
	garment_size, technique, COALESCE(print_type, ''), COALESCE(embroidery_type, ''),
	design_data, COALESCE(preview_url, ''), created_at, updated_at`

func scanDesign(row interface{ Scan(...interface{}) error }) (*entity.Design, error) {
	d := &entity.Design{}
	var data []byte
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.GarmentType, &d.GarmentColor,
		&d.GarmentSize, &d.Technique, &d.PrintType, &d.EmbroideryType,
		&data, &d.PreviewURL, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Data = data
	return d, nil
}

func (r *DesignRepository) ListByUser(ctx context.Context, userID int64) ([]entity.Design, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+designColumns+` FROM custom_designs WHERE user_id = ? ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var designs []entity.Design
	for rows.Next() {
		d, err := scanDesign(rows)
		if err != nil {
			return nil, err
		}
		designs = append(designs, *d)
	}
	return designs, rows.Err()
}

func (r *DesignRepository) ByID(ctx context.Context, userID, id int64) (*entity.Design, error) {
	d, err := scanDesign(r.db.QueryRowContext(ctx,
		`SELECT `+designColumns+` FROM custom_designs WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDesignNotFound
	}
	return d, err
}

func (r *DesignRepository) ByName(ctx context.Context, userID int64, name string) (*entity.Design, error) {
	d, err := scanDesign(r.db.QueryRowContext(ctx,
		`SELECT `+designColumns+` FROM custom_designs WHERE user_id = ? AND design_name = ?`,
		userID, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrDesignNotFound
	}
	return d, err
}

func (r *DesignRepository) Insert(ctx context.Context, d *entity.Design) (int64, error) {
	query := `INSERT INTO custom_designs
		(user_id, design_name, garment_type, garment_color, garment_size,
		 technique, print_type, embroidery_type, design_data, preview_url,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	res, err := r.db.ExecContext(ctx, query, d.UserID, d.Name, d.GarmentType,
		d.GarmentColor, d.GarmentSize, d.Technique, nullString(d.PrintType),
		nullString(d.EmbroideryType), []byte(d.Data), nullString(d.PreviewURL))
	if err != nil {
		return 0, fmt.Errorf("insert design: %w", err)
	}
	return res.LastInsertId()
}

func (r *DesignRepository) Update(ctx context.Context, userID int64, d *entity.Design) (bool, error) {
	query := `UPDATE custom_designs
		SET design_name = ?, garment_type = ?, garment_color = ?, garment_size = ?,
		    technique = ?, print_type = ?, embroidery_type = ?, design_data = ?,
		    updated_at = NOW()`
	args := []interface{}{d.Name, d.GarmentType, d.GarmentColor, d.GarmentSize,
		d.Technique, nullString(d.PrintType), nullString(d.EmbroideryType), []byte(d.Data)}

	if d.PreviewURL != "" {
		query += `, preview_url = ?`
		args = append(args, d.PreviewURL)
	}
	query += ` WHERE id = ? AND user_id = ?`
	args = append(args, d.ID, userID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update design: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *DesignRepository) Assets(ctx context.Context, userID, designID int64) ([]entity.DesignAsset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, COALESCE(design_id, 0), asset_url, original_filename, upload_date
		 FROM design_assets WHERE design_id = ? AND user_id = ?`, designID, userID)
	if err != nil {
		return nil, fmt.Errorf("list design assets: %w", err)
	}
	defer rows.Close()

	var assets []entity.DesignAsset
	for rows.Next() {
		var a entity.DesignAsset
		if err := rows.Scan(&a.ID, &a.UserID, &a.DesignID, &a.AssetURL, &a.OriginalFilename, &a.UploadDate); err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *DesignRepository) InsertAsset(ctx context.Context, a *entity.DesignAsset) (int64, error) {
	var designID interface{}
	if a.DesignID > 0 {
		designID = a.DesignID
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO design_assets (user_id, design_id, asset_url, original_filename, upload_date)
		 VALUES (?, ?, ?, ?, NOW())`,
		a.UserID, designID, a.AssetURL, a.OriginalFilename)
	if err != nil {
		return 0, fmt.Errorf("insert design asset: %w", err)
	}
	return res.LastInsertId()
}
