package models

import "time"

// OrderStatus is the lifecycle label of an order.
// The expected path is pending → processing → shipped → delivered; any status may be set from any other.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// OrderItem represents a single item within an order.
// Name, Image and Price are copied from the product when the order is placed.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// ShippingAddress is the delivery address copied into an order.
type ShippingAddress struct {
	Address    string `json:"address" bson:"address" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
}

// Order represents a customer order.
type Order struct {
	ID              string          `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"userId" bson:"userId" gorm:"index;type:varchar(36)"`
	Items           []OrderItem     `json:"items" bson:"items" gorm:"serializer:json;type:text"`
	ShippingAddress ShippingAddress `json:"shippingAddress" bson:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   string          `json:"paymentMethod" bson:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice" bson:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice" bson:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice" bson:"totalPrice"`
	Status          OrderStatus     `json:"status" bson:"status" gorm:"index;type:varchar(20)"`
	IsPaid          bool            `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID == userID
}

// DashboardStats are the admin dashboard figures. They are computed on every read.
type DashboardStats struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	OrderCount    int     `json:"orderCount"`
	ProductCount  int64   `json:"productCount"`
	UserCount     int64   `json:"userCount"`
	PendingOrders int     `json:"pendingOrders"`
	RecentOrders  []Order `json:"recentOrders"`
}
