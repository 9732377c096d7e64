package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
// Listings are ordered newest first.
type OrderRepository interface {
	GetAll(ctx context.Context) ([]models.Order, error)
	GetByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	// Orders are never deleted.
}
