package repositories

import (
	"context"
	"errors"
	"fmt"

	"plastikhb/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMAssetRepository is a GORM implementation of AssetRepository.
type GORMAssetRepository struct {
	db *gorm.DB
}

// NewGORMAssetRepository creates a new instance of GORMAssetRepository.
func NewGORMAssetRepository(db *gorm.DB) *GORMAssetRepository {
	return &GORMAssetRepository{db: db}
}

func (r *GORMAssetRepository) WithTx(tx *gorm.DB) AssetRepository {
	return &GORMAssetRepository{db: tx}
}

// ListByProduct returns a product's assets in ascending order.
func (r *GORMAssetRepository) ListByProduct(ctx context.Context, productID string) ([]models.Asset, error) {
	var assets []models.Asset
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("sort_order ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets of product %s: %w", productID, err)
	}
	return assets, nil
}

func (r *GORMAssetRepository) GetByID(ctx context.Context, productID, assetID string) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("id = ? AND product_id = ?", assetID, productID).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("asset with ID %s for product %s: %w", assetID, productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", assetID, err)
	}
	return &asset, nil
}

func (r *GORMAssetRepository) GetByOrder(ctx context.Context, productID string, order int) (*models.Asset, error) {
	var asset models.Asset
	err := r.db.WithContext(ctx).Where("product_id = ? AND sort_order = ?", productID, order).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("asset at order %d for product %s: %w", order, productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset at order %d: %w", order, err)
	}
	return &asset, nil
}

// MaxOrder returns the highest order used by the product, or 0 when it has no assets.
func (r *GORMAssetRepository) MaxOrder(ctx context.Context, productID string) (int, error) {
	var last int
	err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("product_id = ?", productID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max asset order of product %s: %w", productID, err)
	}
	return last, nil
}

func (r *GORMAssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// CreateBatch inserts assets in a single statement.
func (r *GORMAssetRepository) CreateBatch(ctx context.Context, assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	for i := range assets {
		if assets[i].ID == "" {
			assets[i].ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(&assets).Error; err != nil {
		return fmt.Errorf("failed to create assets: %w", err)
	}
	return nil
}

func (r *GORMAssetRepository) Delete(ctx context.Context, assetID string) error {
	res := r.db.WithContext(ctx).Delete(&models.Asset{}, "id = ?", assetID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete asset: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("asset with ID %s for deletion: %w", assetID, ErrNotFound)
	}
	return nil
}

func (r *GORMAssetRepository) DeleteByProduct(ctx context.Context, productID string) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&models.Asset{}).Error; err != nil {
		return fmt.Errorf("failed to delete assets of product %s: %w", productID, err)
	}
	return nil
}

// ShiftDown closes the gap left at position after by decrementing every later order.
func (r *GORMAssetRepository) ShiftDown(ctx context.Context, productID string, after int) error {
	err := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("product_id = ? AND sort_order > ?", productID, after).
		UpdateColumn("sort_order", gorm.Expr("sort_order - ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to reorder assets of product %s: %w", productID, err)
	}
	return nil
}

func (r *GORMAssetRepository) UpdateFile(ctx context.Context, assetID, url, alt string) error {
	res := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", assetID).
		Updates(map[string]interface{}{"url": url, "alt": alt})
	if res.Error != nil {
		return fmt.Errorf("failed to update asset %s: %w", assetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("asset with ID %s for update: %w", assetID, ErrNotFound)
	}
	return nil
}

func (r *GORMAssetRepository) UpdateOrder(ctx context.Context, productID, assetID string, order int) error {
	res := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND product_id = ?", assetID, productID).
		Update("sort_order", order)
	if res.Error != nil {
		return fmt.Errorf("failed to update order of asset %s: %w", assetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("asset with ID %s for reorder: %w", assetID, ErrNotFound)
	}
	return nil
}
