package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

const productCacheTTL = 10 * time.Minute

type ProductService struct {
	products repository.ProductStore
	rdb      *redis.Client
	now      func() time.Time
}

func NewProductService(products repository.ProductStore, rdb *redis.Client) *ProductService {
	return &ProductService{products: products, rdb: rdb, now: time.Now}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// ProductListing is the list-page shape: product fields plus variant
// summaries carrying the primary image and an in-stock flag.
type ProductListing struct {
	entity.Product
	VariantsSummary []entity.VariantSummary `json:"variants_summary"`
}

func (s *ProductService) List(ctx context.Context, categorySlug string) ([]ProductListing, error) {
	products, err := s.products.List(ctx, categorySlug)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}

	listings := make([]ProductListing, 0, len(products))
	for _, p := range products {
		summaries, err := s.products.VariantSummaries(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		listings = append(listings, ProductListing{Product: p, VariantsSummary: summaries})
	}
	return listings, nil
}

// Get returns the full product detail, served from the Redis cache when
// warm. The cache is dropped by the order-event consumer.
func (s *ProductService) Get(ctx context.Context, id int64) (*entity.Product, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, productCacheKey(id)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Int64("product", id).Msg("Error reading product cache")
		}
		if cached != "" {
			product := &entity.Product{}
			if err := json.Unmarshal([]byte(cached), product); err == nil {
				return product, nil
			}
		}
	}

	product, err := s.products.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(product); err == nil {
			if err := s.rdb.Set(ctx, productCacheKey(id), payload, productCacheTTL).Err(); err != nil {
				logger.Error().Err(err).Int64("product", id).Msg("Error writing product cache")
			}
		}
	}
	return product, nil
}

func (s *ProductService) Variations(ctx context.Context, productID int64) ([]entity.Variant, error) {
	if _, err := s.products.ByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.products.Variations(ctx, productID)
}

func (s *ProductService) Search(ctx context.Context, query string, limit, offset int) ([]entity.Product, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", entity.ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.products.Search(ctx, query, limit, offset)
}

// Popular ranks products by click volume over the window, falling back to
// the latest products when no click data exists yet.
func (s *ProductService) Popular(ctx context.Context, limit, days int) ([]ProductListing, error) {
	if limit <= 0 || limit > 50 {
		limit = 12
	}
	if days < 1 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	since := s.now().AddDate(0, 0, -days)
	ids, err := s.products.PopularIDs(ctx, since, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		if ids, err = s.products.LatestIDs(ctx, limit); err != nil {
			return nil, err
		}
	}

	products, err := s.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Preserve popularity order.
	byID := make(map[int64]entity.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	listings := make([]ProductListing, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		summaries, err := s.products.VariantSummaries(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		listings = append(listings, ProductListing{Product: p, VariantsSummary: summaries})
	}
	return listings, nil
}

func (s *ProductService) TrackClick(ctx context.Context, productID int64) error {
	return s.products.TrackClick(ctx, productID, s.now())
}

func (s *ProductService) Categories(ctx context.Context) ([]entity.Category, error) {
	return s.products.Categories(ctx)
}

func (s *ProductService) CategoryImages(ctx context.Context) (map[string]entity.CategoryImage, error) {
	images, err := s.products.CategoryImages(ctx)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]entity.CategoryImage, len(images))
	for _, img := range images {
		bySlug[img.CategorySlug] = img
	}
	return bySlug, nil
}

// InvalidateCache drops the cached detail for the given products; called
// by the order-event consumer after stock moves.
func (s *ProductService) InvalidateCache(ctx context.Context, productIDs []int64) {
	if s.rdb == nil {
		return
	}
	for _, id := range productIDs {
		if id == 0 {
			continue
		}
		if err := s.rdb.Del(ctx, productCacheKey(id)).Err(); err != nil {
			logger.Error().Err(err).Int64("product", id).Msg("Error invalidating product cache")
		}
	}
}
