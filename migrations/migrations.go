package migrations

import (
	"database/sql"
	"fmt"
	"time"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		username VARCHAR(100) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL,
		first_name VARCHAR(100),
		last_name VARCHAR(100),
		role VARCHAR(20) NOT NULL DEFAULT 'customer',
		avatar VARCHAR(255),
		auth_provider VARCHAR(20) NOT NULL DEFAULT 'local',
		email_verified_at DATETIME,
		email_verification_token VARCHAR(64),
		email_verification_expires_at DATETIME,
		pending_email VARCHAR(255),
		email_change_token_hash VARCHAR(64),
		email_change_expires_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS password_resets (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		email VARCHAR(255) NOT NULL,
		token_hash VARCHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		used_at DATETIME,
		created_at DATETIME NOT NULL,
		request_ip VARCHAR(45),
		user_agent VARCHAR(255),
		INDEX idx_password_resets_email (email),
		INDEX idx_password_resets_token (token_hash),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS categories (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		slug VARCHAR(100) NOT NULL UNIQUE,
		parent_category VARCHAR(100)
	);`,

	`CREATE TABLE IF NOT EXISTS category_images (
		id INT AUTO_INCREMENT PRIMARY KEY,
		category_slug VARCHAR(100) NOT NULL,
		image_url VARCHAR(500) NOT NULL,
		INDEX idx_category_images_slug (category_slug)
	);`,

	`CREATE TABLE IF NOT EXISTS products (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		base_price DECIMAL(10,2) NOT NULL DEFAULT 0,
		category_id INT,
		size_fit TEXT,
		care_maintenance TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_products_category (category_id),
		FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE SET NULL
	);`,

	`CREATE TABLE IF NOT EXISTS product_variants (
		id INT AUTO_INCREMENT PRIMARY KEY,
		product_id INT NOT NULL,
		color VARCHAR(100),
		color_code VARCHAR(20),
		sku VARCHAR(100) UNIQUE,
		INDEX idx_variants_product (product_id),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS product_images (
		id INT AUTO_INCREMENT PRIMARY KEY,
		variant_id INT NOT NULL,
		image_url VARCHAR(500) NOT NULL,
		display_order INT NOT NULL DEFAULT 0,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		INDEX idx_images_variant (variant_id),
		FOREIGN KEY (variant_id) REFERENCES product_variants(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS product_inventory (
		id INT AUTO_INCREMENT PRIMARY KEY,
		variant_id INT NOT NULL,
		size VARCHAR(20) NOT NULL,
		quantity INT NOT NULL DEFAULT 0,
		reserved_quantity INT NOT NULL DEFAULT 0,
		UNIQUE KEY uq_inventory_variant_size (variant_id, size),
		FOREIGN KEY (variant_id) REFERENCES product_variants(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS product_popularity_daily (
		product_id INT NOT NULL,
		date DATE NOT NULL,
		clicks INT NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, date),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS orders (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL UNIQUE,
		user_id INT,
		user_email VARCHAR(255) NOT NULL,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		company VARCHAR(255),
		phone VARCHAR(50),
		address VARCHAR(255) NOT NULL,
		apartment VARCHAR(100),
		city VARCHAR(100) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		country VARCHAR(100) NOT NULL,
		items JSON NOT NULL,
		subtotal DECIMAL(10,2) NOT NULL,
		discount_code VARCHAR(50),
		discount_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
		shipping_cost DECIMAL(10,2) NOT NULL DEFAULT 0,
		total_amount DECIMAL(10,2) NOT NULL,
		payment_method VARCHAR(30) NOT NULL,
		shipping_method VARCHAR(30) NOT NULL,
		status VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_orders_user (user_id),
		INDEX idx_orders_status (status)
	);`,

	`CREATE TABLE IF NOT EXISTS refunds (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_id VARCHAR(32) NOT NULL UNIQUE,
		customer_email VARCHAR(255) NOT NULL,
		requested_items TEXT,
		refund_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS discount_codes (
		id INT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(50) NOT NULL UNIQUE,
		type VARCHAR(20) NOT NULL,
		value DECIMAL(10,2) NOT NULL,
		min_purchase DECIMAL(10,2) NOT NULL DEFAULT 0,
		expiry_date DATETIME,
		max_uses INT,
		current_uses INT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS custom_designs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		design_name VARCHAR(255) NOT NULL,
		garment_type VARCHAR(50),
		garment_color VARCHAR(50),
		garment_size VARCHAR(20),
		technique VARCHAR(50),
		print_type VARCHAR(50),
		embroidery_type VARCHAR(50),
		design_data JSON,
		preview_url VARCHAR(500),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_designs_user_name (user_id, design_name),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS design_assets (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		design_id INT NOT NULL,
		asset_url VARCHAR(500) NOT NULL,
		original_filename VARCHAR(255),
		upload_date DATETIME NOT NULL,
		INDEX idx_assets_design (design_id),
		FOREIGN KEY (design_id) REFERENCES custom_designs(id) ON DELETE CASCADE
	);`,
}

// AutoMigrate creates every table the backend needs if it does not
// exist yet. Statements run in dependency order.
func AutoMigrate(db *sql.DB, retries int) error {
	for _, query := range statements {
		if err := execWithRetry(db, query, retries); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func execWithRetry(db *sql.DB, query string, retries int) error {
	_, err := db.Exec(query)
	for i := 0; err != nil && i < retries; i++ {
		time.Sleep(1 * time.Second)
		_, err = db.Exec(query)
	}
	return err
}
