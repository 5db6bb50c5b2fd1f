package repositories

import (
	"context"
	"errors"
	"time"

	"plastikhb/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	Status     models.ProductStatus
	CategoryID string
	PriceMin   *float64
	PriceMax   *float64
	Featured   *bool
	IDs        []string
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	GetAll(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Search(ctx context.Context, term string) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository defines data access for products. Reads include the category and the
// assets in ascending order.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	DistinctCategoryIDs(ctx context.Context, filter ProductFilter) ([]string, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	ClearFeatured(ctx context.Context) error
	MarkFeatured(ctx context.Context, ids []string) (int64, error)
}

// AssetRepository defines data access for product assets.
type AssetRepository interface {
	WithTx(tx *gorm.DB) AssetRepository
	ListByProduct(ctx context.Context, productID string) ([]models.Asset, error)
	GetByID(ctx context.Context, productID, assetID string) (*models.Asset, error)
	GetByOrder(ctx context.Context, productID string, order int) (*models.Asset, error)
	MaxOrder(ctx context.Context, productID string) (int, error)
	Create(ctx context.Context, asset *models.Asset) error
	CreateBatch(ctx context.Context, assets []models.Asset) error
	Delete(ctx context.Context, assetID string) error
	DeleteByProduct(ctx context.Context, productID string) error
	ShiftDown(ctx context.Context, productID string, after int) error
	UpdateFile(ctx context.Context, assetID, url, alt string) error
	UpdateOrder(ctx context.Context, productID, assetID string, order int) error
}

// UserRepository defines data access for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// SessionRepository defines data access for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PageRepository defines data access for pages and their sections.
type PageRepository interface {
	List(ctx context.Context) ([]models.Page, error)
	GetBySlug(ctx context.Context, slug string) (*models.Page, error)
	Create(ctx context.Context, page *models.Page) error
	GetSection(ctx context.Context, id string) (*models.Section, error)
	FindSectionByType(ctx context.Context, sectionType models.SectionType) (*models.Section, error)
	UpdateSection(ctx context.Context, section *models.Section) error
}

// AnalyticRepository defines data access for visitor events.
type AnalyticRepository interface {
	Create(ctx context.Context, analytic *models.Analytic) error
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Analytic, error)
}
