package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"

	"gorm.io/datatypes"
)

// SectionInput creates one section of a new page.
type SectionInput struct {
	Type    models.SectionType `json:"type" validate:"required,oneof=BANNER ACHIEVEMENTS VALUES ADDRESS INFO GOALS HISTORY"`
	Order   int                `json:"order" validate:"required,min=1"`
	Data    json.RawMessage    `json:"data"`
	Visible *bool              `json:"visible"`
}

// PageInput creates a page together with its sections.
type PageInput struct {
	Slug     string         `json:"slug" validate:"required,min=1,max=100"`
	Title    string         `json:"title" validate:"max=255"`
	Sections []SectionInput `json:"sections" validate:"dive"`
}

// SectionUpdate changes the content or visibility of a section. Nil fields are left as is.
type SectionUpdate struct {
	Data    json.RawMessage `json:"data"`
	Visible *bool           `json:"visible"`
}

// PageService serves CMS pages and the contact section.
type PageService struct {
	pages repositories.PageRepository
}

// NewPageService creates a new PageService.
func NewPageService(pages repositories.PageRepository) *PageService {
	return &PageService{pages: pages}
}

func (s *PageService) ListPages(ctx context.Context) ([]models.Page, error) {
	pages, err := s.pages.List(ctx)
	if err != nil {
		return nil, persistenceError("failed to list pages", err)
	}
	return pages, nil
}

// GetPageBySlug returns a page with its sections in order.
func (s *PageService) GetPageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, lookupError(err, "Page not found.")
	}
	return page, nil
}

func (s *PageService) CreatePage(ctx context.Context, in PageInput) (*models.Page, error) {
	slug := strings.TrimSpace(in.Slug)
	if _, err := s.pages.GetBySlug(ctx, slug); err == nil {
		return nil, conflictError("Page '%s' already exists", slug)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, persistenceError("failed to look up page", err)
	}

	page := &models.Page{Slug: slug, Title: strings.TrimSpace(in.Title)}
	for _, sec := range in.Sections {
		visible := true
		if sec.Visible != nil {
			visible = *sec.Visible
		}
		page.Sections = append(page.Sections, models.Section{
			Type:    sec.Type,
			Order:   sec.Order,
			Data:    jsonOrEmpty(sec.Data),
			Visible: visible,
		})
	}

	if err := s.pages.Create(ctx, page); err != nil {
		return nil, persistenceError("failed to create page", err)
	}
	return page, nil
}

// UpdateSection applies update to the section with the given id.
func (s *PageService) UpdateSection(ctx context.Context, id string, update SectionUpdate) (*models.Section, error) {
	section, err := s.pages.GetSection(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Section with ID '%s' not found", id)
	}
	if len(update.Data) == 0 && update.Visible == nil {
		return nil, validationError("Nothing to update: provide data or visible")
	}
	if len(update.Data) > 0 {
		if !json.Valid(update.Data) {
			return nil, validationError("Section data must be valid JSON")
		}
		section.Data = datatypes.JSON(update.Data)
	}
	if update.Visible != nil {
		section.Visible = *update.Visible
	}

	if err := s.pages.UpdateSection(ctx, section); err != nil {
		return nil, lookupError(err, "Section with ID '%s' not found", id)
	}
	return section, nil
}

// GetContactInfo returns the ADDRESS section.
func (s *PageService) GetContactInfo(ctx context.Context) (*models.Section, error) {
	section, err := s.pages.FindSectionByType(ctx, models.SectionAddress)
	if err != nil {
		return nil, lookupError(err, "Contact section not found")
	}
	return section, nil
}

// UpdateContactInfo replaces the data of the ADDRESS section.
func (s *PageService) UpdateContactInfo(ctx context.Context, data json.RawMessage) (*models.Section, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, validationError("Contact data is required")
	}
	if !json.Valid(data) {
		return nil, validationError("Contact data must be valid JSON")
	}

	section, err := s.pages.FindSectionByType(ctx, models.SectionAddress)
	if err != nil {
		return nil, lookupError(err, "Contact section not found")
	}
	section.Data = datatypes.JSON(data)
	if err := s.pages.UpdateSection(ctx, section); err != nil {
		return nil, lookupError(err, "Contact section not found")
	}
	return section, nil
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
