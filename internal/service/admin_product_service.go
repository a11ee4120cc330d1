package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"nevermore-backend/internal/entity"
)

type CreateProductRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	CategorySlug    string          `json:"category_slug" validate:"required"`
	Description     string          `json:"description"`
	BasePrice       decimal.Decimal `json:"base_price"`
	SizeFit         string          `json:"size_fit"`
	CareMaintenance string          `json:"care_maintenance"`
	Color           string          `json:"color"`
	ColorCode       string          `json:"color_code"`
	Sizes           []struct {
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	} `json:"sizes"`
	Images []struct {
		URL          string `json:"url"`
		IsPrimary    bool   `json:"is_primary"`
		DisplayOrder int    `json:"display_order"`
	} `json:"images"`
}

// skuFor builds the variant SKU the storefront expects:
// first three letters of name and color, then a uniqueness suffix.
func (s *ProductService) skuFor(name, color string) string {
	namePart := strings.ToUpper(name)
	if len(namePart) > 3 {
		namePart = namePart[:3]
	}
	colorPart := color
	if colorPart == "" {
		colorPart = "DEF"
	}
	colorPart = strings.ToUpper(colorPart)
	if len(colorPart) > 3 {
		colorPart = colorPart[:3]
	}
	return fmt.Sprintf("%s-%s-%d", namePart, colorPart, s.now().Unix())
}

// CreateProduct creates (or extends) a product with one new variant, its
// inventory rows and images, atomically.
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (int64, int64, error) {
	if req.Name == "" || req.CategorySlug == "" {
		return 0, 0, fmt.Errorf("%w: name and category_slug are required", entity.ErrValidation)
	}
	if req.BasePrice.Sign() < 0 {
		return 0, 0, fmt.Errorf("%w: base_price must not be negative", entity.ErrValidation)
	}

	category, err := s.products.CategoryBySlug(ctx, req.CategorySlug)
	if err != nil {
		return 0, 0, err
	}

	product := &entity.Product{
		Name:            req.Name,
		Description:     req.Description,
		BasePrice:       req.BasePrice,
		CategoryID:      category.ID,
		SizeFit:         req.SizeFit,
		CareMaintenance: req.CareMaintenance,
	}
	variant := &entity.Variant{
		Color:     req.Color,
		ColorCode: req.ColorCode,
		SKU:       s.skuFor(req.Name, req.Color),
	}

	inventory := make([]entity.InventoryRow, 0, len(req.Sizes))
	for _, sz := range req.Sizes {
		inventory = append(inventory, entity.InventoryRow{Size: sz.Size, Quantity: sz.Quantity})
	}
	images := make([]entity.ProductImage, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, entity.ProductImage{
			URL:          img.URL,
			IsPrimary:    img.IsPrimary,
			DisplayOrder: img.DisplayOrder,
		})
	}

	productID, variantID, err := s.products.Create(ctx, product, variant, inventory, images)
	if err != nil {
		logger.Error().Err(err).Str("name", req.Name).Msg("Error creating product")
		return 0, 0, err
	}
	return productID, variantID, nil
}

type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	SizeFit         *string          `json:"size_fit"`
	CareMaintenance *string          `json:"care_maintenance"`
	CategorySlug    *string          `json:"category_slug"`
}

func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *UpdateProductRequest) (*entity.Product, error) {
	product, err := s.products.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.BasePrice != nil {
		if req.BasePrice.Sign() < 0 {
			return nil, fmt.Errorf("%w: base_price must not be negative", entity.ErrValidation)
		}
		product.BasePrice = *req.BasePrice
	}
	if req.SizeFit != nil {
		product.SizeFit = *req.SizeFit
	}
	if req.CareMaintenance != nil {
		product.CareMaintenance = *req.CareMaintenance
	}
	if req.CategorySlug != nil {
		category, err := s.products.CategoryBySlug(ctx, *req.CategorySlug)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	s.InvalidateCache(ctx, []int64{id})
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	deleted, err := s.products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return entity.ErrProductNotFound
	}
	s.InvalidateCache(ctx, []int64{id})
	return nil
}
