package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plastikhb/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMPageRepository is a GORM implementation of PageRepository.
type GORMPageRepository struct {
	db *gorm.DB
}

// NewGORMPageRepository creates a new instance of GORMPageRepository.
func NewGORMPageRepository(db *gorm.DB) *GORMPageRepository {
	return &GORMPageRepository{db: db}
}

func withOrderedSections(db *gorm.DB) *gorm.DB {
	return db.Preload("Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

func (r *GORMPageRepository) List(ctx context.Context) ([]models.Page, error) {
	var pages []models.Page
	if err := withOrderedSections(r.db.WithContext(ctx)).Order("slug ASC").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// GetBySlug retrieves a page with its sections in ascending order.
func (r *GORMPageRepository) GetBySlug(ctx context.Context, slug string) (*models.Page, error) {
	var page models.Page
	if err := withOrderedSections(r.db.WithContext(ctx)).First(&page, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("page %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get page %q: %w", slug, err)
	}
	return &page, nil
}

// Create inserts the page together with its sections.
func (r *GORMPageRepository) Create(ctx context.Context, page *models.Page) error {
	if page.ID == "" {
		page.ID = uuid.New().String()
	}
	for i := range page.Sections {
		if page.Sections[i].ID == "" {
			page.Sections[i].ID = uuid.New().String()
		}
	}
	if err := r.db.WithContext(ctx).Create(page).Error; err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

func (r *GORMPageRepository) GetSection(ctx context.Context, id string) (*models.Section, error) {
	var section models.Section
	if err := r.db.WithContext(ctx).First(&section, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("section %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get section %s: %w", id, err)
	}
	return &section, nil
}

// FindSectionByType returns the first section of the given type across all pages.
func (r *GORMPageRepository) FindSectionByType(ctx context.Context, sectionType models.SectionType) (*models.Section, error) {
	var section models.Section
	err := r.db.WithContext(ctx).Where("type = ?", sectionType).Order("created_at ASC").First(&section).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("section of type %s: %w", sectionType, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get section of type %s: %w", sectionType, err)
	}
	return &section, nil
}

// UpdateSection writes the section's data and visibility.
func (r *GORMPageRepository) UpdateSection(ctx context.Context, section *models.Section) error {
	res := r.db.WithContext(ctx).Model(&models.Section{}).
		Where("id = ?", section.ID).
		Updates(map[string]interface{}{
			"data":       section.Data,
			"visible":    section.Visible,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update section %s: %w", section.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("section %s for update: %w", section.ID, ErrNotFound)
	}
	return nil
}

// GORMAnalyticRepository is a GORM implementation of AnalyticRepository.
type GORMAnalyticRepository struct {
	db *gorm.DB
}

// NewGORMAnalyticRepository creates a new instance of GORMAnalyticRepository.
func NewGORMAnalyticRepository(db *gorm.DB) *GORMAnalyticRepository {
	return &GORMAnalyticRepository{db: db}
}

func (r *GORMAnalyticRepository) Create(ctx context.Context, analytic *models.Analytic) error {
	if analytic.ID == "" {
		analytic.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(analytic).Error; err != nil {
		return fmt.Errorf("failed to record analytic: %w", err)
	}
	return nil
}

// ListBetween returns events created in [from, to), oldest first.
func (r *GORMAnalyticRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Analytic, error) {
	var events []models.Analytic
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analytics: %w", err)
	}
	return events, nil
}
