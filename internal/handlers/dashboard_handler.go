package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DashboardHandler serves the admin dashboard.
type DashboardHandler struct {
	service *services.DashboardService
	logger  *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service *services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

// RegisterRoutes registers GET /admin/dashboard, which requires the dashboard:view capability.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, policy middleware.Policy) {
	router.Get("/admin/dashboard", auth, middleware.Authorize(policy, middleware.CapDashboardView), h.HandleDashboard)
}

// HandleDashboard returns freshly computed dashboard figures.
func (h *DashboardHandler) HandleDashboard(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not compute dashboard")
	}
	return c.JSON(stats)
}
