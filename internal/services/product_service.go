package services

import (
	"context"
	"strings"
	"time"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/metrics"

	"gorm.io/gorm"
)

// Catalog event types published after a committed write.
const (
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventAssetsChanged   = "product.assets_changed"
	EventFeaturedChanged = "product.featured_changed"
)

// CatalogEvent is the message body of a catalog event.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"product_id,omitempty"`
	At        time.Time `json:"at"`
}

// EventPublisher sends catalog events to a broker.
type EventPublisher interface {
	PublishEvent(eventType string, payload interface{}) error
}

// Cache stores JSON snapshots of catalog reads.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// ProductInput carries the writable fields of a product. Nil optional fields take their
// defaults on create and keep the stored value on update.
type ProductInput struct {
	Name          string
	Price         float64
	Description   *string
	Specification *string
	CategoryName  string
	CategoryID    string
	Discount      *int
	Featured      *bool
	Status        *models.ProductStatus
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("Name and price are required.")
	}
	if in.Price < 0 {
		return validationError("Price must not be negative")
	}
	if in.Discount != nil && (*in.Discount < 0 || *in.Discount > 100) {
		return validationError("Discount must be between 0 and 100")
	}
	if in.Status != nil && !in.Status.Valid() {
		return validationError("Status must be one of: active, draft")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Specification != nil {
		p.Specification = *in.Specification
	}
	if in.Discount != nil {
		p.Discount = *in.Discount
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

// ProductOption configures optional collaborators of ProductService.
type ProductOption func(*ProductService)

// WithEventPublisher publishes a CatalogEvent after every committed write.
func WithEventPublisher(p EventPublisher) ProductOption {
	return func(s *ProductService) { s.events = p }
}

// WithCache caches catalog category reads.
func WithCache(c Cache) ProductOption {
	return func(s *ProductService) { s.cache = c }
}

// ProductService handles business logic related to products, their assets, and the public catalog.
type ProductService struct {
	tx         *TxRunner
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	assets     repositories.AssetRepository
	events     EventPublisher
	cache      Cache
	now        func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(
	tx *TxRunner,
	products repositories.ProductRepository,
	categories repositories.CategoryRepository,
	assets repositories.AssetRepository,
	opts ...ProductOption,
) *ProductService {
	s := &ProductService{
		tx:         tx,
		products:   products,
		categories: categories,
		assets:     assets,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAllProducts retrieves all products regardless of status, newest first.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.List(ctx, repositories.ProductFilter{})
	if err != nil {
		return nil, persistenceError("failed to list products", err)
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Product with ID '%s' not found", id)
	}
	return product, nil
}

// CreateProduct inserts a product with one image asset per upload, ordered as uploaded.
func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput, uploads []models.UploadedFile) (*models.Product, error) {
	var created *models.Product
	err := s.tx.Run(ctx, "create_product", models.UploadedFilenames(uploads), func(tx *gorm.DB) ([]string, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		categoryID, err := ResolveCategory(ctx, s.categories.WithTx(tx), in.CategoryName, in.CategoryID)
		if err != nil {
			return nil, err
		}

		product := &models.Product{Status: models.StatusDraft, CategoryID: categoryID}
		in.apply(product)

		products := s.products.WithTx(tx)
		if err := products.Create(ctx, product); err != nil {
			return nil, persistenceError("failed to create product", err)
		}
		if err := s.assets.WithTx(tx).CreateBatch(ctx, newImageAssets(product.ID, 1, uploads)); err != nil {
			return nil, persistenceError("failed to create product assets", err)
		}

		created, err = products.GetByID(ctx, product.ID)
		if err != nil {
			return nil, persistenceError("failed to reload product", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventProductCreated, created.ID)
	return created, nil
}

// UpdateProduct overwrites the scalar fields of a product and appends any uploads after its
// last asset. Existing assets keep their order.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in ProductInput, uploads []models.UploadedFile) (*models.Product, error) {
	var updated *models.Product
	err := s.tx.Run(ctx, "update_product", models.UploadedFilenames(uploads), func(tx *gorm.DB) ([]string, error) {
		products := s.products.WithTx(tx)
		product, err := products.GetByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "Product with ID '%s' not found", id)
		}
		if err := in.validate(); err != nil {
			return nil, err
		}

		categoryID, err := ResolveCategory(ctx, s.categories.WithTx(tx), in.CategoryName, in.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = categoryID
		product.Category = nil
		in.apply(product)

		if err := products.Update(ctx, product); err != nil {
			return nil, persistenceError("failed to update product", err)
		}

		if len(uploads) > 0 {
			assets := s.assets.WithTx(tx)
			last, err := assets.MaxOrder(ctx, id)
			if err != nil {
				return nil, persistenceError("failed to read asset order", err)
			}
			if err := assets.CreateBatch(ctx, newImageAssets(id, last+1, uploads)); err != nil {
				return nil, persistenceError("failed to create product assets", err)
			}
		}

		updated, err = products.GetByID(ctx, id)
		if err != nil {
			return nil, persistenceError("failed to reload product", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventProductUpdated, id)
	return updated, nil
}

// DeleteProduct removes a product and its assets, then their files, and returns the
// product as it was before deletion.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	var snapshot *models.Product
	err := s.tx.Run(ctx, "delete_product", nil, func(tx *gorm.DB) ([]string, error) {
		products := s.products.WithTx(tx)
		product, err := products.GetByID(ctx, id)
		if err != nil {
			return nil, lookupError(err, "Product with ID '%s' not found", id)
		}
		if err := s.assets.WithTx(tx).DeleteByProduct(ctx, id); err != nil {
			return nil, persistenceError("failed to delete product assets", err)
		}
		if err := products.Delete(ctx, id); err != nil {
			return nil, persistenceError("failed to delete product", err)
		}
		snapshot = product
		return models.AssetFiles(product.Assets), nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventProductDeleted, id)
	return snapshot, nil
}

// GetFeaturedProducts returns active products flagged as featured.
func (s *ProductService) GetFeaturedProducts(ctx context.Context) ([]models.Product, error) {
	featured := true
	products, err := s.products.List(ctx, repositories.ProductFilter{Status: models.StatusActive, Featured: &featured})
	if err != nil {
		return nil, persistenceError("failed to list featured products", err)
	}
	return products, nil
}

// SetFeaturedProducts makes ids the complete set of featured products.
func (s *ProductService) SetFeaturedProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	unique := dedupe(ids)

	var featured []models.Product
	err := s.tx.Run(ctx, "set_featured", nil, func(tx *gorm.DB) ([]string, error) {
		products := s.products.WithTx(tx)
		if err := products.ClearFeatured(ctx); err != nil {
			return nil, persistenceError("failed to clear featured products", err)
		}
		marked, err := products.MarkFeatured(ctx, unique)
		if err != nil {
			return nil, persistenceError("failed to mark featured products", err)
		}

		flag := true
		featured, err = products.List(ctx, repositories.ProductFilter{Featured: &flag})
		if err != nil {
			return nil, persistenceError("failed to list featured products", err)
		}
		if marked != int64(len(unique)) {
			return nil, notFoundError("Product with ID '%s' not found", firstMissing(unique, featured))
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, EventFeaturedChanged, "")
	return featured, nil
}

// committed runs the post-commit side effects of a catalog write. Neither step can fail the
// write: it has already been committed.
func (s *ProductService) committed(ctx context.Context, eventType, productID string) {
	invalidateCatalogCache(ctx, s.cache)

	if s.events == nil {
		return
	}
	event := CatalogEvent{Type: eventType, ProductID: productID, At: s.now().UTC()}
	if err := s.events.PublishEvent(eventType, event); err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "failed").Inc()
		logger.Warn().Err(err).Str("event", eventType).Str("product_id", productID).Msg("failed to publish catalog event")
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType, "published").Inc()
}

func newImageAssets(productID string, firstOrder int, uploads []models.UploadedFile) []models.Asset {
	assets := make([]models.Asset, 0, len(uploads))
	for i, f := range uploads {
		assets = append(assets, models.Asset{
			ProductID: productID,
			URL:       f.Filename,
			Alt:       models.DefaultAssetAlt,
			Type:      models.AssetImage,
			Order:     firstOrder + i,
		})
	}
	return assets
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func firstMissing(ids []string, products []models.Product) string {
	found := make(map[string]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return id
		}
	}
	return ""
}
