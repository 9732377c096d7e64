package services

import (
	"time"

	"storefront/internal/models"

	"go.uber.org/zap"
)

// Routing keys of order lifecycle events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
	EventOrderPaid          = "order.paid"
)

// EventPublisher publishes order events to a message broker.
// *rabbitmq.Client satisfies it.
type EventPublisher interface {
	Publish(routingKey string, payload interface{}) error
}

// OrderEvent is the payload of every order lifecycle event.
type OrderEvent struct {
	Event      string             `json:"event"`
	OrderID    string             `json:"orderId"`
	UserID     string             `json:"userId"`
	Status     models.OrderStatus `json:"status"`
	TotalPrice float64            `json:"totalPrice"`
	IsPaid     bool               `json:"isPaid"`
	OccurredAt time.Time          `json:"occurredAt"`
}

func newOrderEvent(event string, order *models.Order) OrderEvent {
	return OrderEvent{
		Event:      event,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		IsPaid:     order.IsPaid,
		OccurredAt: time.Now().UTC(),
	}
}

// publish sends an order event. Broker failures are logged and never fail the request.
func publish(publisher EventPublisher, logger *zap.Logger, event string, order *models.Order) {
	if publisher == nil {
		logger.Debug("event publisher is not configured, skipping", zap.String("event", event), zap.String("order_id", order.ID))
		return
	}
	if err := publisher.Publish(event, newOrderEvent(event, order)); err != nil {
		logger.Warn("failed to publish order event", zap.String("event", event), zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	logger.Info("published order event", zap.String("event", event), zap.String("order_id", order.ID))
}
