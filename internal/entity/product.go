package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CategoryID      int64           `json:"category_id"`
	CategorySlug    string          `json:"category_slug,omitempty"`
	CategoryName    string          `json:"category_name,omitempty"`
	SizeFit         string          `json:"size_fit,omitempty"`
	CareMaintenance string          `json:"care_maintenance,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Variants        []Variant       `json:"variants,omitempty"`
}

type Variant struct {
	ID        int64          `json:"variant_id"`
	ProductID int64          `json:"product_id"`
	Color     string         `json:"color"`
	ColorCode string         `json:"color_code"`
	SKU       string         `json:"sku"`
	Inventory []InventoryRow `json:"inventory,omitempty"`
	Images    []ProductImage `json:"images,omitempty"`
}

// VariantSummary is the listing-page shape: one primary image plus an
// aggregated in-stock flag.
type VariantSummary struct {
	VariantID int64  `json:"variant_id"`
	Color     string `json:"color"`
	ColorCode string `json:"color_code"`
	Image     string `json:"image,omitempty"`
	InStock   bool   `json:"in_stock"`
}

type InventoryRow struct {
	ID        int64  `json:"id,omitempty"`
	VariantID int64  `json:"variant_id,omitempty"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved_quantity"`
}

// Available clamps at zero even if stored values would make it negative.
func (r InventoryRow) Available() int {
	if a := r.Quantity - r.Reserved; a > 0 {
		return a
	}
	return 0
}

func (r InventoryRow) InStock() bool { return r.Available() > 0 }

type ProductImage struct {
	ID           int64  `json:"id,omitempty"`
	VariantID    int64  `json:"variant_id,omitempty"`
	URL          string `json:"url"`
	DisplayOrder int    `json:"order"`
	IsPrimary    bool   `json:"is_primary"`
}

type Category struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	ParentCategory string `json:"parent_category,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
}

type CategoryImage struct {
	CategorySlug string `json:"category_slug"`
	ImageURL     string `json:"image_url"`
}
