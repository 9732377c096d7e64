package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login and the caller's own account.
type AuthHandler struct {
	authService *services.AuthService
	logger      *zap.Logger
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the account routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Get("/profile", auth, h.HandleGetProfile)
	userRoutes.Put("/profile", auth, h.HandleUpdateProfile)
	userRoutes.Put("/password", auth, h.HandleUpdatePassword)
}

// RegisterRequest represents the request body for registration.
// A role in the body is ignored; new accounts are always standard users.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.logger, err, "Could not register user")
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		return respondError(c, h.logger, err, "Authentication failed")
	}
	return c.JSON(result)
}

// HandleGetProfile returns the caller's account.
func (h *AuthHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.authService.GetProfile(c.UserContext(), middleware.ActorFrom(c).UserID)
	if err != nil {
		return respondError(c, h.logger, err, "Could not retrieve profile")
	}
	return c.JSON(user)
}

// HandleUpdateProfile changes the caller's name and/or email.
func (h *AuthHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.authService.UpdateProfile(c.UserContext(), middleware.ActorFrom(c).UserID, update)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update profile")
	}
	return c.JSON(user)
}

// PasswordRequest represents the request body for a password change.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// HandleUpdatePassword changes the caller's password.
func (h *AuthHandler) HandleUpdatePassword(c *fiber.Ctx) error {
	var req PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	err := h.authService.UpdatePassword(c.UserContext(), middleware.ActorFrom(c).UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return respondError(c, h.logger, err, "Could not update password")
	}
	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}
