package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderLine is one requested product and quantity. Client-sent prices are never trusted.
type OrderLine struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// CreateOrderInput is the content of a checkout.
type CreateOrderInput struct {
	Items           []OrderLine            `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	publisher   EventPublisher
	logger      *zap.Logger
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, publisher EventPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateOrder places a pending order for userID.
// Name, first image and unit price of every line are copied from the catalog. Stock is neither checked
// nor decremented.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	if err := validateShippingAddress(input.ShippingAddress); err != nil {
		return nil, err
	}
	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		return nil, apperr.Validation("payment method is required")
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, apperr.Validation("quantity for product %s must be at least 1", line.ProductID)
		}
		product, err := s.productRepo.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.Validation("product %s does not exist", line.ProductID)
			}
			return nil, fmt.Errorf("failed to load product %s: %w", line.ProductID, err)
		}

		item := models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
		}
		if len(product.Images) > 0 {
			item.Image = product.Images[0]
		}
		items = append(items, item)
	}

	totals := models.PriceItems(items)
	now := time.Now()
	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   paymentMethod,
		ItemsPrice:      totals.Items,
		ShippingPrice:   totals.Shipping,
		TotalPrice:      totals.Total,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}
	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items", len(items)),
		zap.Float64("total_price", order.TotalPrice),
	)

	publish(s.publisher, s.logger, EventOrderCreated, order)
	return order, nil
}

// GetUserOrders returns the orders placed by userID, newest first.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orderRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders of user %s: %w", userID, err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetAllOrders returns every order, newest first.
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns an order visible to actor: its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor Actor) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(actor.UserID) && !actor.IsAdmin() {
		return nil, apperr.Forbidden("not authorized to view order %s", id)
	}
	return order, nil
}

// UpdateOrderStatus sets the status of an order. Any transition between known statuses is allowed;
// reaching delivered stamps DeliveredAt.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid order status: %s", status)
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = status
	if status == models.StatusDelivered && order.DeliveredAt == nil {
		now := time.Now()
		order.DeliveredAt = &now
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", string(status)))

	publish(s.publisher, s.logger, EventOrderStatusUpdated, order)
	return order, nil
}

// PayOrder marks an order as paid on behalf of its owner or an admin.
func (s *OrderService) PayOrder(ctx context.Context, id string, actor Actor) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, apperr.Validation("order %s is already paid", id)
	}
	if order.Status == models.StatusCancelled {
		return nil, apperr.Validation("order %s is cancelled", id)
	}

	now := time.Now()
	order.IsPaid = true
	order.PaidAt = &now
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to mark order %s as paid: %w", id, err)
	}
	s.logger.Info("order paid", zap.String("order_id", id), zap.Float64("total_price", order.TotalPrice))

	publish(s.publisher, s.logger, EventOrderPaid, order)
	return order, nil
}

func validateShippingAddress(addr models.ShippingAddress) error {
	var missing []string
	if strings.TrimSpace(addr.Address) == "" {
		missing = append(missing, "address")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if strings.TrimSpace(addr.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return apperr.Validation("shipping address is missing: %s", strings.Join(missing, ", "))
	}
	return nil
}
