package services

import (
	"context"

	"plastikhb/internal/models"

	"gorm.io/gorm"
)

// AssetOrder moves one asset to a new position.
type AssetOrder struct {
	AssetID  string `json:"assetId" validate:"required"`
	NewOrder int    `json:"newOrder" validate:"required,min=1"`
}

// DeleteAsset removes an asset, closes the gap it leaves in the product's order, and deletes
// its file once the change is committed.
func (s *ProductService) DeleteAsset(ctx context.Context, productID, assetID string) (*models.Asset, error) {
	var deleted *models.Asset
	err := s.tx.Run(ctx, "delete_asset", nil, func(tx *gorm.DB) ([]string, error) {
		assets := s.assets.WithTx(tx)
		asset, err := assets.GetByID(ctx, productID, assetID)
		if err != nil {
			return nil, lookupError(err, "Asset with ID '%s' not found for product '%s'", assetID, productID)
		}
		if err := assets.Delete(ctx, asset.ID); err != nil {
			return nil, persistenceError("failed to delete asset", err)
		}
		if err := assets.ShiftDown(ctx, productID, asset.Order); err != nil {
			return nil, persistenceError("failed to reorder remaining assets", err)
		}
		deleted = asset
		return []string{asset.URL}, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventAssetsChanged, productID)
	return deleted, nil
}

// ReplaceMainImage replaces the asset at order 1.
func (s *ProductService) ReplaceMainImage(ctx context.Context, productID string, upload models.UploadedFile) (*models.Product, error) {
	return s.ReplaceAssetByOrder(ctx, productID, 1, upload)
}

// ReplaceAssetByOrder puts upload at the given position, replacing the asset there. order may
// be one past the last asset, which appends.
func (s *ProductService) ReplaceAssetByOrder(ctx context.Context, productID string, order int, upload models.UploadedFile) (*models.Product, error) {
	var updated *models.Product
	err := s.tx.Run(ctx, "replace_asset", []string{upload.Filename}, func(tx *gorm.DB) ([]string, error) {
		products := s.products.WithTx(tx)
		product, err := products.GetByID(ctx, productID)
		if err != nil {
			return nil, lookupError(err, "Product with ID '%s' not found", productID)
		}
		if order < 1 || order > len(product.Assets)+1 {
			return nil, validationError("Order must be between 1 and %d", len(product.Assets)+1)
		}

		var superseded []string
		assets := s.assets.WithTx(tx)
		for _, a := range product.Assets {
			if a.Order != order {
				continue
			}
			if err := assets.Delete(ctx, a.ID); err != nil {
				return nil, persistenceError("failed to delete replaced asset", err)
			}
			superseded = append(superseded, a.URL)
		}

		replacement := newImageAssets(productID, order, []models.UploadedFile{upload})[0]
		if err := assets.Create(ctx, &replacement); err != nil {
			return nil, persistenceError("failed to create asset", err)
		}

		updated, err = products.GetByID(ctx, productID)
		if err != nil {
			return nil, persistenceError("failed to reload product", err)
		}
		return superseded, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventAssetsChanged, productID)
	return updated, nil
}

// ReplaceAssetByID points an existing asset at upload, keeping its order.
func (s *ProductService) ReplaceAssetByID(ctx context.Context, productID, assetID string, upload models.UploadedFile) (*models.Product, error) {
	var updated *models.Product
	err := s.tx.Run(ctx, "replace_asset", []string{upload.Filename}, func(tx *gorm.DB) ([]string, error) {
		assets := s.assets.WithTx(tx)
		asset, err := assets.GetByID(ctx, productID, assetID)
		if err != nil {
			return nil, lookupError(err, "Asset with ID '%s' not found for product '%s'", assetID, productID)
		}
		if err := assets.UpdateFile(ctx, asset.ID, upload.Filename, models.DefaultAssetAlt); err != nil {
			return nil, persistenceError("failed to update asset", err)
		}

		updated, err = s.products.WithTx(tx).GetByID(ctx, productID)
		if err != nil {
			return nil, persistenceError("failed to reload product", err)
		}
		return []string{asset.URL}, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventAssetsChanged, productID)
	return updated, nil
}

// ReorderAssets applies a complete new ordering of a product's assets. Every asset must be
// listed exactly once and the new orders must be exactly 1..N.
func (s *ProductService) ReorderAssets(ctx context.Context, productID string, moves []AssetOrder) (*models.Product, error) {
	if len(moves) == 0 {
		return nil, validationError("assetOrderMap is required and must be an array")
	}

	var updated *models.Product
	err := s.tx.Run(ctx, "reorder_assets", nil, func(tx *gorm.DB) ([]string, error) {
		products := s.products.WithTx(tx)
		product, err := products.GetByID(ctx, productID)
		if err != nil {
			return nil, lookupError(err, "Product with ID '%s' not found", productID)
		}

		owned := make(map[string]struct{}, len(product.Assets))
		for _, a := range product.Assets {
			owned[a.ID] = struct{}{}
		}
		for _, m := range moves {
			if _, ok := owned[m.AssetID]; !ok {
				return nil, notFoundError("Asset with ID '%s' not found for product '%s'", m.AssetID, productID)
			}
		}
		if err := validatePermutation(moves, len(product.Assets)); err != nil {
			return nil, err
		}

		assets := s.assets.WithTx(tx)
		for _, m := range moves {
			if err := assets.UpdateOrder(ctx, productID, m.AssetID, m.NewOrder); err != nil {
				return nil, persistenceError("failed to update asset order", err)
			}
		}

		updated, err = products.GetByID(ctx, productID)
		if err != nil {
			return nil, persistenceError("failed to reload product", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventAssetsChanged, productID)
	return updated, nil
}

func validatePermutation(moves []AssetOrder, n int) error {
	if len(moves) != n {
		return validationError("assetOrderMap must list all %d assets of the product", n)
	}
	assets := make(map[string]struct{}, n)
	orders := make(map[int]struct{}, n)
	for _, m := range moves {
		if _, dup := assets[m.AssetID]; dup {
			return validationError("Asset with ID '%s' is listed more than once", m.AssetID)
		}
		assets[m.AssetID] = struct{}{}

		if m.NewOrder < 1 || m.NewOrder > n {
			return validationError("newOrder must be between 1 and %d", n)
		}
		if _, dup := orders[m.NewOrder]; dup {
			return validationError("newOrder %d is used more than once", m.NewOrder)
		}
		orders[m.NewOrder] = struct{}{}
	}
	return nil
}
