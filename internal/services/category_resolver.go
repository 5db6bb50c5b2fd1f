package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"plastikhb/internal/models"
	"plastikhb/internal/repositories"
)

const (
	minCategoryNameLen = 2
	maxCategoryNameLen = 50
)

// ResolveCategory maps a category id or name to a category id. An id wins over a name and
// must exist. A name is matched case-insensitively; an unknown name creates the category.
// Pass a repository bound to the caller's transaction so the creation rolls back with it.
func ResolveCategory(ctx context.Context, repo repositories.CategoryRepository, name, id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		category, err := repo.GetByID(ctx, id)
		if err != nil {
			return "", lookupError(err, "Category with ID '%s' not found", id)
		}
		return category.ID, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("Either category_name or category_id must be provided")
	}

	existing, err := repo.FindByName(ctx, name)
	switch {
	case err == nil:
		return existing.ID, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return "", persistenceError("failed to look up category", err)
	}

	if err := validateCategoryName(name); err != nil {
		return "", err
	}
	category := &models.Category{Name: name}
	if err := repo.Create(ctx, category); err != nil {
		return "", persistenceError("failed to create category", err)
	}
	return category.ID, nil
}

func validateCategoryName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < minCategoryNameLen || n > maxCategoryNameLen {
		return validationError("Category name must be between %d and %d characters", minCategoryNameLen, maxCategoryNameLen)
	}
	return nil
}
