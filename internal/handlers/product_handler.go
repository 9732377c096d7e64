package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the catalog and reviews.
type ProductHandler struct {
	service  *services.ProductService
	logger   *zap.Logger
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes. Writes require the catalog:manage capability.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, policy middleware.Policy) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/top", h.HandleTopProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/:id/reviews", auth, h.HandleAddReview)

	manage := middleware.Authorize(policy, middleware.CapCatalogManage)
	productRoutes.Post("/", auth, manage, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, manage, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, manage, h.HandleDeleteProduct)
}

// HandleListProducts returns one page of products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := models.ProductQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Sort:     models.ProductSort(c.Query("sort")),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", services.DefaultPageSize),
	}
	page, err := h.service.ListProducts(c.UserContext(), query)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleTopProducts returns the highest-rated products.
func (h *ProductHandler) HandleTopProducts(c *fiber.Ctx) error {
	products, err := h.service.TopProducts(c.UserContext(), c.QueryInt("limit", services.DefaultTopLimit))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve top products")
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

// createProductRequest is the body of POST /products.
type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Brand       string   `json:"brand" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Images      []string `json:"images"`
}

// HandleCreateProduct creates a product owned by the calling admin.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.CreateProduct(c.UserContext(), middleware.ActorFrom(c).UserID, services.ProductInput(req))
	if err != nil {
		return respondError(c, h.logger, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct applies a partial update to a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var update services.ProductUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}

	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not delete product")
	}
	return c.JSON(fiber.Map{
		"message": "Product removed",
	})
}

// reviewRequest is the body of POST /products/:id/reviews.
type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// HandleAddReview adds the caller's review to a product.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	product, err := h.service.AddReview(c.UserContext(), c.Params("id"), middleware.ActorFrom(c).UserID, req.Rating, req.Comment)
	if err != nil {
		return respondError(c, h.logger, err, "Could not add review")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Review added",
		"rating":     product.Rating,
		"numReviews": product.NumReviews,
	})
}
