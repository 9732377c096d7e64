package middleware

import (
	"storefront/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Capability names an administrative permission.
type Capability string

const (
	CapCatalogManage Capability = "catalog:manage"
	CapOrdersManage  Capability = "orders:manage"
	CapUsersManage   Capability = "users:manage"
	CapDashboardView Capability = "dashboard:view"
)

// Policy maps each role to the capabilities it grants.
type Policy map[models.Role][]Capability

// DefaultPolicy grants every capability to admins and none to standard users.
func DefaultPolicy() Policy {
	return Policy{
		models.RoleAdmin:    {CapCatalogManage, CapOrdersManage, CapUsersManage, CapDashboardView},
		models.RoleStandard: {},
	}
}

// Allows reports whether role holds every capability in caps.
func (p Policy) Allows(role models.Role, caps ...Capability) bool {
	granted := p[role]
	for _, want := range caps {
		found := false
		for _, have := range granted {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Authorize rejects callers whose role lacks any of caps. It runs after AuthRequired.
func Authorize(policy Policy, caps ...Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required",
			})
		}
		if !policy.Allows(actor.Role, caps...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Not authorized for this action",
			})
		}
		return c.Next()
	}
}
