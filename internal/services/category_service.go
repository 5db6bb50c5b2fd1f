package services

import (
	"context"
	"errors"
	"strings"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
)

// CategoryWithCount is a category annotated with how many products use it.
type CategoryWithCount struct {
	models.Category
	ProductCount *int64 `json:"productCount,omitempty"`
}

// CategoryStats summarises the products of one category.
type CategoryStats struct {
	Category             models.Category `json:"category"`
	ProductCount         int64           `json:"productCount"`
	FeaturedProductCount int64           `json:"featuredProductCount"`
	ActiveProductCount   int64           `json:"activeProductCount"`
}

// CategoryService handles category management.
type CategoryService struct {
	categories repositories.CategoryRepository
	products   repositories.ProductRepository
	cache      Cache
}

// NewCategoryService creates a new CategoryService. cache may be nil.
func NewCategoryService(categories repositories.CategoryRepository, products repositories.ProductRepository, cache Cache) *CategoryService {
	return &CategoryService{categories: categories, products: products, cache: cache}
}

// GetAllCategories lists categories by name, optionally with their product counts.
func (s *CategoryService) GetAllCategories(ctx context.Context, withProductCount bool) ([]CategoryWithCount, error) {
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, persistenceError("failed to list categories", err)
	}

	var counts map[string]int64
	if withProductCount {
		if counts, err = s.products.CountByCategory(ctx); err != nil {
			return nil, persistenceError("failed to count products", err)
		}
	}

	out := make([]CategoryWithCount, 0, len(categories))
	for _, c := range categories {
		item := CategoryWithCount{Category: c}
		if withProductCount {
			n := counts[c.ID]
			item.ProductCount = &n
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Category with ID '%s' not found", id)
	}
	return category, nil
}

// CreateCategory adds a category. Names are unique regardless of case.
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, persistenceError("failed to create category", err)
	}
	invalidateCatalogCache(ctx, s.cache)
	return category, nil
}

// UpdateCategory renames a category.
func (s *CategoryService) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Category with ID '%s' not found", id)
	}
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	category.Name = name
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, persistenceError("failed to update category", err)
	}
	invalidateCatalogCache(ctx, s.cache)
	return category, nil
}

// DeleteCategory removes a category that no product references.
func (s *CategoryService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return lookupError(err, "Category with ID '%s' not found", id)
	}
	inUse, err := s.products.Count(ctx, repositories.ProductFilter{CategoryID: id})
	if err != nil {
		return persistenceError("failed to count products", err)
	}
	if inUse > 0 {
		return conflictError("Cannot delete category. %d product(s) are using this category", inUse)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return lookupError(err, "Category with ID '%s' not found", id)
	}
	invalidateCatalogCache(ctx, s.cache)
	return nil
}

// GetProductsByCategory lists every product of a category, newest first.
func (s *CategoryService) GetProductsByCategory(ctx context.Context, id string) ([]models.Product, error) {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return nil, lookupError(err, "Category with ID '%s' not found", id)
	}
	products, err := s.products.List(ctx, repositories.ProductFilter{CategoryID: id})
	if err != nil {
		return nil, persistenceError("failed to list products", err)
	}
	return products, nil
}

func (s *CategoryService) SearchCategories(ctx context.Context, term string) ([]models.Category, error) {
	if strings.TrimSpace(term) == "" {
		return nil, validationError("Search term is required")
	}
	categories, err := s.categories.Search(ctx, term)
	if err != nil {
		return nil, persistenceError("failed to search categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategoryStats(ctx context.Context, id string) (*CategoryStats, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Category with ID '%s' not found", id)
	}

	featured := true
	filters := []repositories.ProductFilter{
		{CategoryID: id},
		{CategoryID: id, Featured: &featured},
		{CategoryID: id, Status: models.StatusActive},
	}
	counts := make([]int64, len(filters))
	for i, f := range filters {
		if counts[i], err = s.products.Count(ctx, f); err != nil {
			return nil, persistenceError("failed to count products", err)
		}
	}

	return &CategoryStats{
		Category:             *category,
		ProductCount:         counts[0],
		FeaturedProductCount: counts[1],
		ActiveProductCount:   counts[2],
	}, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.categories.FindByName(ctx, name)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return persistenceError("failed to look up category", err)
	case existing.ID == selfID:
		return nil
	default:
		return conflictError("Category '%s' already exists", name)
	}
}
