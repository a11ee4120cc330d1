package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"nevermore-backend/internal/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `p.id, p.name, p.description, p.base_price, p.category_id,
	c.slug, c.name, p.size_fit, p.care_maintenance, p.created_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*entity.Product, error) {
	p := &entity.Product{}
	var slug, catName sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.CategoryID,
		&slug, &catName, &p.SizeFit, &p.CareMaintenance, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.CategorySlug = slug.String
	p.CategoryName = catName.String
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, categorySlug string) ([]entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id`
	var args []interface{}
	if categorySlug != "" {
		query += ` WHERE c.slug = ?`
		args = append(args, categorySlug)
	}
	query += ` ORDER BY p.created_at DESC`

	return r.queryProducts(ctx, query, args...)
}

func (r *ProductRepository) ByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Variants, err = r.Variations(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) ByIDs(ctx context.Context, ids []int64) ([]entity.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryProducts(ctx, query, args...)
}

// Variations returns a product's variants with full inventory and images.
func (r *ProductRepository) Variations(ctx context.Context, productID int64) ([]entity.Variant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, color, color_code, sku
		 FROM product_variants WHERE product_id = ? ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("variants for product %d: %w", productID, err)
	}
	defer rows.Close()

	var variants []entity.Variant
	for rows.Next() {
		var v entity.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Color, &v.ColorCode, &v.SKU); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range variants {
		if variants[i].Inventory, err = r.inventoryFor(ctx, variants[i].ID); err != nil {
			return nil, err
		}
		if variants[i].Images, err = r.imagesFor(ctx, variants[i].ID); err != nil {
			return nil, err
		}
	}
	return variants, nil
}

func (r *ProductRepository) inventoryFor(ctx context.Context, variantID int64) ([]entity.InventoryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, variant_id, size, quantity, reserved_quantity
		 FROM product_inventory WHERE variant_id = ?
		 ORDER BY FIELD(size,'XS','S','M','L','XL','XXL','XXXL')`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var inv []entity.InventoryRow
	for rows.Next() {
		var row entity.InventoryRow
		if err := rows.Scan(&row.ID, &row.VariantID, &row.Size, &row.Quantity, &row.Reserved); err != nil {
			return nil, err
		}
		inv = append(inv, row)
	}
	return inv, rows.Err()
}

func (r *ProductRepository) imagesFor(ctx context.Context, variantID int64) ([]entity.ProductImage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, variant_id, image_url, display_order, is_primary
		 FROM product_images WHERE variant_id = ? ORDER BY display_order`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []entity.ProductImage
	for rows.Next() {
		var img entity.ProductImage
		if err := rows.Scan(&img.ID, &img.VariantID, &img.URL, &img.DisplayOrder, &img.IsPrimary); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// VariantSummaries is the listing shape: primary image plus an aggregated
// in-stock flag per variant.
func (r *ProductRepository) VariantSummaries(ctx context.Context, productID int64) ([]entity.VariantSummary, error) {
	query := `SELECT v.id, v.color, v.color_code,
		COALESCE((SELECT image_url FROM product_images
			WHERE variant_id = v.id ORDER BY is_primary DESC, display_order LIMIT 1), ''),
		COALESCE((SELECT SUM(GREATEST(quantity - reserved_quantity, 0))
			FROM product_inventory WHERE variant_id = v.id), 0)
		FROM product_variants v WHERE v.product_id = ? ORDER BY v.id`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("variant summaries for product %d: %w", productID, err)
	}
	defer rows.Close()

	var summaries []entity.VariantSummary
	for rows.Next() {
		var s entity.VariantSummary
		var available int
		if err := rows.Scan(&s.VariantID, &s.Color, &s.ColorCode, &s.Image, &available); err != nil {
			return nil, err
		}
		s.InStock = available > 0
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *ProductRepository) Search(ctx context.Context, term string, limit, offset int) ([]entity.Product, error) {
	like := "%" + term + "%"
	query := `SELECT ` + productColumns + `
		FROM products p LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.name LIKE ? OR p.description LIKE ?
		ORDER BY CASE WHEN p.name LIKE ? THEN 1 ELSE 2 END, p.name
		LIMIT ? OFFSET ?`

	return r.queryProducts(ctx, query, like, like, like, limit, offset)
}

func (r *ProductRepository) PopularIDs(ctx context.Context, since time.Time, limit int) ([]int64, error) {
	query := `SELECT product_id FROM product_popularity_daily
		WHERE date >= ?
		GROUP BY product_id
		ORDER BY SUM(clicks) DESC
		LIMIT ?`
	return r.queryIDs(ctx, query, since.Format("2006-01-02"), limit)
}

func (r *ProductRepository) LatestIDs(ctx context.Context, limit int) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT id FROM products ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r *ProductRepository) TrackClick(ctx context.Context, productID int64, day time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_popularity_daily (product_id, date, clicks)
		 VALUES (?, ?, 1)
		 ON DUPLICATE KEY UPDATE clicks = clicks + 1`,
		productID, day.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("track click for product %d: %w", productID, err)
	}
	return nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]entity.Category, error) {
	query := `SELECT c.id, c.name, c.slug, COALESCE(c.parent_category, ''),
		COALESCE(ci.image_url, '')
		FROM categories c LEFT JOIN category_images ci ON ci.category_slug = c.slug
		ORDER BY c.parent_category, c.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentCategory, &c.ImageURL); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *ProductRepository) CategoryImages(ctx context.Context) ([]entity.CategoryImage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_slug, image_url FROM category_images`)
	if err != nil {
		return nil, fmt.Errorf("list category images: %w", err)
	}
	defer rows.Close()

	var images []entity.CategoryImage
	for rows.Next() {
		var ci entity.CategoryImage
		if err := rows.Scan(&ci.CategorySlug, &ci.ImageURL); err != nil {
			return nil, err
		}
		images = append(images, ci)
	}
	return images, rows.Err()
}

func (r *ProductRepository) CategoryBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	c := &entity.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, COALESCE(parent_category, '') FROM categories WHERE slug = ?`,
		slug).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentCategory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts (or reuses) the product row, then its variant, inventory
// rows and images in one transaction.
func (r *ProductRepository) Create(ctx context.Context, product *entity.Product, variant *entity.Variant, inventory []entity.InventoryRow, images []entity.ProductImage) (int64, int64, error) {
	var productID, variantID int64

	err := withTransaction(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM products WHERE name = ? AND category_id = ?`,
			product.Name, product.CategoryID).Scan(&productID)
		if errors.Is(err, sql.ErrNoRows) {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO products (name, description, base_price, category_id, size_fit, care_maintenance, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, NOW())`,
				product.Name, product.Description, product.BasePrice,
				product.CategoryID, product.SizeFit, product.CareMaintenance)
			if err != nil {
				return fmt.Errorf("insert product: %w", err)
			}
			if productID, err = res.LastInsertId(); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO product_variants (product_id, color, color_code, sku) VALUES (?, ?, ?, ?)`,
			productID, variant.Color, variant.ColorCode, variant.SKU)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
		if variantID, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, inv := range inventory {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO product_inventory (variant_id, size, quantity, reserved_quantity) VALUES (?, ?, ?, 0)`,
				variantID, inv.Size, inv.Quantity)
			if err != nil {
				return fmt.Errorf("insert inventory: %w", err)
			}
		}

		for idx, img := range images {
			order := img.DisplayOrder
			if order == 0 {
				order = idx
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO product_images (variant_id, image_url, display_order, is_primary) VALUES (?, ?, ?, ?)`,
				variantID, img.URL, order, img.IsPrimary)
			if err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}
		return nil
	})

	return productID, variantID, err
}

func (r *ProductRepository) Update(ctx context.Context, product *entity.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, base_price = ?, category_id = ?, size_fit = ?, care_maintenance = ? WHERE id = ?`,
		product.Name, product.Description, product.BasePrice, product.CategoryID,
		product.SizeFit, product.CareMaintenance, product.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
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
