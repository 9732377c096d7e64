package services

import "storefront/internal/models"

// Actor is the authenticated user a request acts on behalf of.
type Actor struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
