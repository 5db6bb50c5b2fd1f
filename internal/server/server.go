package server

import (
	"time"

	"plastikhb/internal/handlers"
	"plastikhb/internal/middleware"
	"plastikhb/internal/services"
	"plastikhb/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UploadsPrefix is the URL prefix the stored product images are served under.
const UploadsPrefix = "/uploads/products"

// Options tunes the HTTP layer.
type Options struct {
	BodyLimit      int
	CORSOrigins    string
	MaxUploadFiles int
	MaxUploadSize  int64
	AccessLog      bool
}

// Services are the collaborators the routes are served by.
type Services struct {
	Products   *services.ProductService
	Categories *services.CategoryService
	Auth       *services.AuthService
	Pages      *services.PageService
	Analytics  *services.AnalyticsService
	Files      *storage.FileStore
}

// NewApp assembles the fiber app: middleware, health and metrics endpoints, and the API
// routes under /api/v1.
func NewApp(opts Options, svc Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "plastikhb",
		BodyLimit:    opts.BodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New()) // Request logger
	}
	app.Use(middleware.Metrics())
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		}))
	}

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static(UploadsPrefix, svc.Files.Dir())

	// --- API Routes ---
	auth := middleware.AuthRequired(svc.Auth)
	upload := middleware.UploadImages(svc.Files, middleware.UploadConfig{
		Field:    "images",
		MaxFiles: opts.MaxUploadFiles,
		MaxSize:  opts.MaxUploadSize,
	})

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(svc.Auth).RegisterRoutes(apiV1, auth)
	handlers.NewProductHandler(svc.Products, upload).RegisterRoutes(apiV1, auth)
	handlers.NewCategoryHandler(svc.Categories).RegisterRoutes(apiV1, auth)
	handlers.NewPageHandler(svc.Pages).RegisterRoutes(apiV1, auth)
	handlers.NewAnalyticsHandler(svc.Analytics).RegisterRoutes(apiV1, auth)

	return app
}
