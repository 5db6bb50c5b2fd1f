package handlers

import (
	"plastikhb/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for product categories.
type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the category routes. Writes go through auth.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	categoryRoutes := router.Group("/categories")
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Get("/search", h.HandleSearchCategories)
	categoryRoutes.Get("/:id", h.HandleGetCategoryByID)
	categoryRoutes.Get("/:id/products", h.HandleGetProductsByCategory)
	categoryRoutes.Get("/:id/stats", h.HandleGetCategoryStats)
	categoryRoutes.Post("/", auth, h.HandleCreateCategory)
	categoryRoutes.Put("/:id", auth, h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", auth, h.HandleDeleteCategory)
}

// CategoryRequest is the body of a category create or rename.
type CategoryRequest struct {
	Category string `json:"category" validate:"required"`
}

// HandleGetCategories lists categories; ?withCount=true adds product counts.
func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(c.UserContext(), c.QueryBool("withCount"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// HandleGetCategoryByID retrieves one category.
func (h *CategoryHandler) HandleGetCategoryByID(c *fiber.Ctx) error {
	category, err := h.service.GetCategoryByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Category retrieved successfully",
		"data":    category,
	})
}

// HandleSearchCategories finds categories whose name contains ?q.
func (h *CategoryHandler) HandleSearchCategories(c *fiber.Ctx) error {
	categories, err := h.service.SearchCategories(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// HandleGetProductsByCategory lists the products of a category.
func (h *CategoryHandler) HandleGetProductsByCategory(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// HandleGetCategoryStats reports product counts of a category.
func (h *CategoryHandler) HandleGetCategoryStats(c *fiber.Ctx) error {
	stats, err := h.service.GetCategoryStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Category stats retrieved successfully",
		"data":    stats,
	})
}

// HandleCreateCategory creates a category.
func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), req.Category)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Category created successfully",
		"data":    category,
	})
}

// HandleUpdateCategory renames a category.
func (h *CategoryHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	category, err := h.service.UpdateCategory(c.UserContext(), c.Params("id"), req.Category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Category updated successfully",
		"data":    category,
	})
}

// HandleDeleteCategory deletes a category no product uses.
func (h *CategoryHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.service.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Category deleted successfully",
	})
}
