package middleware

import (
	"errors"
	"strings"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Keys of the values AuthRequired stores in fiber.Ctx locals.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
// The user is reloaded on every request, so deleted or deactivated accounts lose access at once and
// role changes apply without a new token.
func AuthRequired(authService *services.AuthService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		userID, _ := claims["user_id"].(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		user, err := authService.GetProfile(c.UserContext(), userID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			logger.Error("failed to load token holder", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Internal server error",
			})
		}
		if err != nil || !user.IsActive {
			logger.Debug("token holder rejected", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "User no longer has access",
			})
		}

		// Store the caller in Fiber context for subsequent handlers
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalRole, user.Role)

		return c.Next()
	}
}

// ActorFrom returns the caller stored by AuthRequired.
func ActorFrom(c *fiber.Ctx) services.Actor {
	userID, _ := c.Locals(LocalUserID).(string)
	role, _ := c.Locals(LocalRole).(models.Role)
	return services.Actor{UserID: userID, Role: role}
}
