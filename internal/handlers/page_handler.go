package handlers

import (
	"encoding/json"

	"plastikhb/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// PageHandler handles HTTP requests for site pages, their sections, and the contact info.
type PageHandler struct {
	service  *services.PageService
	validate *validator.Validate
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(service *services.PageService) *PageHandler {
	return &PageHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the page, section and contact routes. Writes go through auth.
func (h *PageHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	pageRoutes := router.Group("/pages")
	pageRoutes.Get("/", h.HandleGetPages)
	pageRoutes.Get("/:slug", h.HandleGetPageBySlug)
	pageRoutes.Post("/", auth, h.HandleCreatePage)

	router.Put("/sections/:id", auth, h.HandleUpdateSection)

	router.Get("/contact-info", h.HandleGetContactInfo)
	router.Put("/contact-info", auth, h.HandleUpdateContactInfo)
}

// HandleGetPages lists every page with its sections.
func (h *PageHandler) HandleGetPages(c *fiber.Ctx) error {
	pages, err := h.service.ListPages(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Pages retrieved successfully",
		"data":    pages,
	})
}

// HandleGetPageBySlug retrieves one page by slug.
func (h *PageHandler) HandleGetPageBySlug(c *fiber.Ctx) error {
	page, err := h.service.GetPageBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Page retrieved successfully",
		"data":    page,
	})
}

// HandleCreatePage creates a page together with its sections.
func (h *PageHandler) HandleCreatePage(c *fiber.Ctx) error {
	var req services.PageInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	page, err := h.service.CreatePage(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Page created successfully",
		"data":    page,
	})
}

// HandleUpdateSection changes the data or visibility of a section.
func (h *PageHandler) HandleUpdateSection(c *fiber.Ctx) error {
	var req services.SectionUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	section, err := h.service.UpdateSection(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Section updated successfully",
		"data":    section,
	})
}

// HandleGetContactInfo retrieves the contact section.
func (h *PageHandler) HandleGetContactInfo(c *fiber.Ctx) error {
	section, err := h.service.GetContactInfo(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Contact info retrieved successfully",
		"data":    section,
	})
}

// ContactRequest is the body of a contact info update.
type ContactRequest struct {
	Data json.RawMessage `json:"data"`
}

// HandleUpdateContactInfo replaces the data of the contact section.
func (h *PageHandler) HandleUpdateContactInfo(c *fiber.Ctx) error {
	var req ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("Invalid request body")
	}
	section, err := h.service.UpdateContactInfo(c.UserContext(), req.Data)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Contact info updated successfully",
		"data":    section,
	})
}
