package handlers

import (
	"strconv"
	"strings"

	"plastikhb/internal/middleware"
	"plastikhb/internal/models"
	"plastikhb/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products, their assets, and the public catalog.
type ProductHandler struct {
	service  *services.ProductService
	upload   fiber.Handler
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler. upload runs before every handler that
// accepts images.
func NewProductHandler(service *services.ProductService, upload fiber.Handler) *ProductHandler {
	return &ProductHandler{
		service:  service,
		upload:   upload,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Writes go through auth.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	productRoutes := router.Group("/products")

	// Fixed paths first so they are not taken for an :id
	productRoutes.Get("/catalog", h.HandleGetCatalog)
	productRoutes.Get("/categories", h.HandleGetActiveCategories)
	productRoutes.Get("/all-categories", h.HandleGetAllCategories)
	productRoutes.Get("/featured", h.HandleGetFeatured)
	productRoutes.Put("/featured", auth, h.HandleSetFeatured)

	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, h.upload, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, h.upload, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)

	productRoutes.Put("/:id/main-image", auth, h.upload, h.HandleReplaceMainImage)
	productRoutes.Patch("/:id/assets/reorder", auth, h.HandleReorderAssets)
	productRoutes.Put("/:id/assets/order/:order", auth, h.upload, h.HandleReplaceAssetByOrder)
	productRoutes.Put("/:id/assets/:assetId", auth, h.upload, h.HandleReplaceAsset)
	productRoutes.Delete("/:id/assets/:assetId", auth, h.HandleDeleteAsset)
}

// ProductRequest is the body of a product create or update, sent as multipart form fields
// alongside the images or as JSON.
type ProductRequest struct {
	Name          string   `json:"name" form:"name"`
	Price         *float64 `json:"price" form:"price"`
	Description   *string  `json:"description" form:"description"`
	Specification *string  `json:"specification" form:"specification"`
	CategoryName  string   `json:"category_name" form:"category_name"`
	CategoryID    string   `json:"category_id" form:"category_id"`
	Discount      *int     `json:"discount" form:"discount" validate:"omitempty,min=0,max=100"`
	Featured      *bool    `json:"featured" form:"featured"`
	Status        *string  `json:"status" form:"status"`
}

func (r ProductRequest) input() services.ProductInput {
	in := services.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Specification: r.Specification,
		CategoryName:  strings.TrimSpace(r.CategoryName),
		CategoryID:    strings.TrimSpace(r.CategoryID),
		Discount:      r.Discount,
		Featured:      r.Featured,
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Status != nil {
		status := normalizeStatus(*r.Status)
		in.Status = &status
	}
	return in
}

// normalizeStatus accepts the Indonesian labels the admin panel sends.
func normalizeStatus(s string) models.ProductStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "aktif":
		return models.StatusActive
	case "draft", "draf":
		return models.StatusDraft
	default:
		return models.ProductStatus(s)
	}
}

func (h *ProductHandler) parseProduct(c *fiber.Ctx) (services.ProductInput, error) {
	var req ProductRequest
	if err := parseBody(c, h.validate, &req); err != nil {
		return services.ProductInput{}, err
	}
	if strings.TrimSpace(req.Name) == "" || req.Price == nil {
		return services.ProductInput{}, badRequest("Name and price are required.")
	}
	if strings.TrimSpace(req.CategoryName) == "" && strings.TrimSpace(req.CategoryID) == "" {
		return services.ProductInput{}, badRequest("Either category_name or category_id is required.")
	}
	return req.input(), nil
}

// HandleGetProducts retrieves every product, drafts included.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product retrieved successfully",
		"data":    product,
	})
}

// HandleCreateProduct creates a product from form fields and the uploaded images.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in, err := h.parseProduct(c)
	if err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.UserContext(), in, middleware.UploadedFiles(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"data":    product,
	})
}

// HandleUpdateProduct updates a product and appends any uploaded images to its assets.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	in, err := h.parseProduct(c)
	if err != nil {
		return err
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), in, middleware.UploadedFiles(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"data":    product,
	})
}

// HandleDeleteProduct deletes a product with its assets.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
		"data":    product,
	})
}

func singleUpload(c *fiber.Ctx) (models.UploadedFile, error) {
	files := middleware.UploadedFiles(c)
	switch len(files) {
	case 0:
		return models.UploadedFile{}, badRequest("No image file provided")
	case 1:
		return files[0], nil
	default:
		return models.UploadedFile{}, badRequest("Exactly one image file is required")
	}
}

// HandleReplaceMainImage replaces the first image of a product.
func (h *ProductHandler) HandleReplaceMainImage(c *fiber.Ctx) error {
	file, err := singleUpload(c)
	if err != nil {
		return err
	}
	product, err := h.service.ReplaceMainImage(c.UserContext(), c.Params("id"), file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Main image replaced successfully",
		"data":    product,
	})
}

// HandleReplaceAsset swaps the file behind an existing asset.
func (h *ProductHandler) HandleReplaceAsset(c *fiber.Ctx) error {
	file, err := singleUpload(c)
	if err != nil {
		return err
	}
	product, err := h.service.ReplaceAssetByID(c.UserContext(), c.Params("id"), c.Params("assetId"), file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Asset replaced successfully",
		"data":    product,
	})
}

// HandleReplaceAssetByOrder puts the uploaded image at a position of the product's assets.
func (h *ProductHandler) HandleReplaceAssetByOrder(c *fiber.Ctx) error {
	order, err := strconv.Atoi(c.Params("order"))
	if err != nil {
		return badRequest("Order must be a number")
	}
	file, err := singleUpload(c)
	if err != nil {
		return err
	}
	product, err := h.service.ReplaceAssetByOrder(c.UserContext(), c.Params("id"), order, file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Asset replaced successfully",
		"data":    product,
	})
}

// ReorderRequest is the body of an asset reorder.
type ReorderRequest struct {
	AssetOrderMap []services.AssetOrder `json:"assetOrderMap" validate:"dive"`
}

// HandleReorderAssets applies a new order to every asset of a product.
func (h *ProductHandler) HandleReorderAssets(c *fiber.Ctx) error {
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil || len(req.AssetOrderMap) == 0 {
		return badRequest("assetOrderMap is required and must be an array")
	}
	if err := validateStruct(h.validate, req); err != nil {
		return err
	}
	product, err := h.service.ReorderAssets(c.UserContext(), c.Params("id"), req.AssetOrderMap)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Assets reordered successfully",
		"data":    product,
	})
}

// HandleDeleteAsset removes one asset of a product.
func (h *ProductHandler) HandleDeleteAsset(c *fiber.Ctx) error {
	asset, err := h.service.DeleteAsset(c.UserContext(), c.Params("id"), c.Params("assetId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Asset deleted successfully",
		"data":    asset,
	})
}

// HandleGetFeatured retrieves the featured products shown on the home page.
func (h *ProductHandler) HandleGetFeatured(c *fiber.Ctx) error {
	products, err := h.service.GetFeaturedProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Featured products retrieved successfully",
		"data":    products,
	})
}

// FeaturedRequest is the body of a featured products update.
type FeaturedRequest struct {
	ProductIDs []string `json:"productIds"`
}

// HandleSetFeatured replaces the set of featured products.
func (h *ProductHandler) HandleSetFeatured(c *fiber.Ctx) error {
	var req FeaturedRequest
	if err := c.BodyParser(&req); err != nil || req.ProductIDs == nil {
		return badRequest("productIds must be an array")
	}
	featured, err := h.service.SetFeaturedProducts(c.UserContext(), req.ProductIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Featured products updated",
		"data":    featured,
	})
}

// CatalogQuery holds the optional filters of the public catalog.
type CatalogQuery struct {
	CategoryID string   `query:"categoryId"`
	PriceMin   *float64 `query:"priceMin"`
	PriceMax   *float64 `query:"priceMax"`
	Featured   *bool    `query:"featured"`
}

// HandleGetCatalog lists active products matching the query filters.
func (h *ProductHandler) HandleGetCatalog(c *fiber.Ctx) error {
	var q CatalogQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest("Invalid catalog filter")
	}
	products, err := h.service.ListActiveProducts(c.UserContext(), services.CatalogFilter{
		CategoryID: strings.TrimSpace(q.CategoryID),
		PriceMin:   q.PriceMin,
		PriceMax:   q.PriceMax,
		Featured:   q.Featured,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Catalog products retrieved successfully",
		"data":    products,
	})
}

// HandleGetActiveCategories lists the categories that have active products.
func (h *ProductHandler) HandleGetActiveCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListActiveCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Active categories retrieved successfully",
		"data":    categories,
	})
}

// HandleGetAllCategories lists every category for the catalog filter.
func (h *ProductHandler) HandleGetAllCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategoriesForCatalog(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "All categories retrieved successfully",
		"data":    categories,
	})
}
