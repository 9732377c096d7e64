package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler handles administrative user management.
type UserHandler struct {
	service *services.UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// RegisterRoutes registers the user management routes. They require the users:manage capability.
// Call it after AuthHandler.RegisterRoutes so /users/profile wins over /users/:id.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler, policy middleware.Policy) {
	manage := middleware.Authorize(policy, middleware.CapUsersManage)
	userRoutes := router.Group("/users")
	userRoutes.Get("/", auth, manage, h.HandleListUsers)
	userRoutes.Get("/:id", auth, manage, h.HandleGetUser)
	userRoutes.Put("/:id", auth, manage, h.HandleUpdateUser)
	userRoutes.Delete("/:id", auth, manage, h.HandleDeleteUser)
}

// HandleListUsers returns every user.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve users")
	}
	return c.JSON(users)
}

// HandleGetUser returns a user by ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve user")
	}
	return c.JSON(user)
}

// HandleUpdateUser changes name, email, role or active flag of a user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var update services.UserUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.service.UpdateUser(c.UserContext(), c.Params("id"), update)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update user")
	}
	return c.JSON(user)
}

// HandleDeleteUser deletes a user other than the caller.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), middleware.ActorFrom(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "Could not delete user")
	}
	return c.JSON(fiber.Map{
		"message": "User removed",
	})
}
