package repositories

import (
	"context"
	"errors"
	"fmt"

	"plastikhb/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// WithTx returns a repository bound to tx.
func (r *GORMProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	return &GORMProductRepository{db: tx}
}

func withCatalogAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Assets", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		})
}

func applyProductFilter(db *gorm.DB, f ProductFilter) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.CategoryID != "" {
		db = db.Where("category_id = ?", f.CategoryID)
	}
	if f.PriceMin != nil {
		db = db.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		db = db.Where("price <= ?", *f.PriceMax)
	}
	if f.Featured != nil {
		db = db.Where("featured = ?", *f.Featured)
	}
	if f.IDs != nil {
		db = db.Where("id IN ?", f.IDs)
	}
	return db
}

// GetByID retrieves a product with its category and ordered assets.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := withCatalogAssociations(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// List retrieves products matching filter, newest first.
func (r *GORMProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	var products []models.Product
	q := applyProductFilter(withCatalogAssociations(r.db.WithContext(ctx)), filter)
	if err := q.Order("created_at DESC").Order("id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Count returns the number of products matching filter.
func (r *GORMProductRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	var n int64
	q := applyProductFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// CountByCategory returns the number of products per category id.
func (r *GORMProductRepository) CountByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		CategoryID string
		Total      int64
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS total").
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products per category: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

// DistinctCategoryIDs returns the category ids referenced by products matching filter.
func (r *GORMProductRepository) DistinctCategoryIDs(ctx context.Context, filter ProductFilter) ([]string, error) {
	var ids []string
	q := applyProductFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter)
	if err := q.Where("category_id <> ''").Group("category_id").Pluck("category_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to group products by category: %w", err)
	}
	return ids, nil
}

// Create inserts the product row only; associations are written separately.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every scalar column of product, zero values included.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).
		Select("name", "price", "description", "specification", "category_id", "discount", "featured", "status", "updated_at").
		Omit(clause.Associations).
		Updates(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// Delete deletes a product row by its ID.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// ClearFeatured unsets the featured flag on every product.
func (r *GORMProductRepository) ClearFeatured(ctx context.Context) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("featured = ?", true).
		Update("featured", false).Error
	if err != nil {
		return fmt.Errorf("failed to clear featured products: %w", err)
	}
	return nil
}

// MarkFeatured sets the featured flag on the given products and returns how many matched.
func (r *GORMProductRepository) MarkFeatured(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id IN ?", ids).
		Update("featured", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark featured products: %w", res.Error)
	}
	return res.RowsAffected, nil
}
