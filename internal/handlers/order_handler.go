package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	logger   *zap.Logger
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		logger:   logger,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. Every route requires a token; listing all orders and
// changing status require the orders:manage capability.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, policy middleware.Policy) {
	orderRoutes := router.Group("/orders", auth)
	manage := middleware.Authorize(policy, middleware.CapOrdersManage)

	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/myorders", h.HandleGetMyOrders)
	orderRoutes.Get("/", manage, h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Put("/:id/pay", h.HandlePayOrder)
	orderRoutes.Put("/:id/status", manage, h.HandleUpdateOrderStatus)
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), middleware.ActorFrom(c).UserID, req)
	if err != nil {
		return respondError(c, h.logger, err, "Could not create order")
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders returns the caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetUserOrders(c.UserContext(), middleware.ActorFrom(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve orders")
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order visible to the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// HandlePayOrder marks an order as paid.
func (h *OrderHandler) HandlePayOrder(c *fiber.Ctx) error {
	order, err := h.service.PayOrder(c.UserContext(), c.Params("id"), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, h.logger, err, "Could not update payment")
	}
	return c.JSON(order)
}

// statusRequest is the body of PUT /orders/:id/status.
type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), models.OrderStatus(req.Status))
	if err != nil {
		return respondError(c, h.logger, err, "Could not update order status")
	}
	return c.JSON(order)
}
