package handlers

import (
	"time"

	"plastikhb/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler handles HTTP requests for visitor analytics.
type AnalyticsHandler struct {
	service  *services.AnalyticsService
	validate *validator.Validate
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the analytics routes. Events are recorded anonymously; the
// report needs auth.
func (h *AnalyticsHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	analyticsRoutes := router.Group("/analytics")
	analyticsRoutes.Post("/", h.HandleRecordEvent)
	analyticsRoutes.Get("/", auth, h.HandleGetTraffic)
}

// HandleRecordEvent stores a page view, product click or button click.
func (h *AnalyticsHandler) HandleRecordEvent(c *fiber.Ctx) error {
	var req services.AnalyticInput
	if err := parseBody(c, h.validate, &req); err != nil {
		return err
	}
	req.IPAddress = c.IP()

	event, err := h.service.RecordEvent(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Event recorded",
		"data":    event,
	})
}

// HandleGetTraffic reports the traffic of the last 30 days.
func (h *AnalyticsHandler) HandleGetTraffic(c *fiber.Ctx) error {
	report, err := h.service.GetTrafficAnalytics(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Analytics retrieved successfully",
		"data":    report,
	})
}
