package services

import (
	"context"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/metrics"
)

const activeCategoriesKey = "catalog:active-categories"

// CatalogFilter narrows the public catalog. Nil and empty fields do not constrain.
type CatalogFilter struct {
	CategoryID string
	PriceMin   *float64
	PriceMax   *float64
	Featured   *bool
}

// ListActiveProducts returns active products matching every given filter, newest first.
func (s *ProductService) ListActiveProducts(ctx context.Context, f CatalogFilter) ([]models.Product, error) {
	products, err := s.products.List(ctx, repositories.ProductFilter{
		Status:     models.StatusActive,
		CategoryID: f.CategoryID,
		PriceMin:   f.PriceMin,
		PriceMax:   f.PriceMax,
		Featured:   f.Featured,
	})
	if err != nil {
		return nil, persistenceError("failed to list catalog products", err)
	}
	return products, nil
}

// ListActiveCategories returns the categories that have at least one active product, by name.
func (s *ProductService) ListActiveCategories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if s.cache != nil {
		hit, err := s.cache.GetJSON(ctx, activeCategoriesKey, &cached)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(activeCategoriesKey, "error").Inc()
			logger.Warn().Err(err).Str("key", activeCategoriesKey).Msg("catalog cache read failed")
		case hit:
			metrics.CacheLookups.WithLabelValues(activeCategoriesKey, "hit").Inc()
			return cached, nil
		default:
			metrics.CacheLookups.WithLabelValues(activeCategoriesKey, "miss").Inc()
		}
	}

	ids, err := s.products.DistinctCategoryIDs(ctx, repositories.ProductFilter{Status: models.StatusActive})
	if err != nil {
		return nil, persistenceError("failed to list catalog categories", err)
	}
	categories, err := s.categories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError("failed to list catalog categories", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, activeCategoriesKey, categories); err != nil {
			logger.Warn().Err(err).Str("key", activeCategoriesKey).Msg("catalog cache write failed")
		}
	}
	return categories, nil
}

// GetAllCategoriesForCatalog returns every category by name, used by catalog filters.
func (s *ProductService) GetAllCategoriesForCatalog(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, persistenceError("failed to list categories", err)
	}
	return categories, nil
}

func invalidateCatalogCache(ctx context.Context, cache Cache) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, activeCategoriesKey); err != nil {
		logger.Warn().Err(err).Str("key", activeCategoriesKey).Msg("catalog cache invalidation failed")
	}
}
