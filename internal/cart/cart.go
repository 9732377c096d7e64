// Package cart holds the client-side shopping cart.
//
// A Cart is a plain value owned by whoever creates it; nothing in this package is global.
package cart

import (
	"encoding/json"
	"sync"

	"storefront/internal/apperr"
	"storefront/internal/models"
)

// Line is one product in the cart with the catalog data shown to the shopper.
type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
}

// Cart maps products to quantities, keeping lines in the order they were first added.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts qty units of product into the cart, merging with an existing line.
// The quantity is capped at the product's stock.
func (c *Cart) Add(product models.Product, qty int) (Line, error) {
	if qty < 1 {
		return Line{}, apperr.Validation("quantity must be at least 1")
	}
	if product.Stock <= 0 {
		return Line{}, apperr.Validation("%s is out of stock", product.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(product.ID)
	if i < 0 {
		line := Line{ProductID: product.ID}
		c.lines = append(c.lines, line)
		i = len(c.lines) - 1
	}
	line := &c.lines[i]
	line.Name = product.Name
	line.Price = product.Price
	line.Stock = product.Stock
	line.Image = ""
	if len(product.Images) > 0 {
		line.Image = product.Images[0]
	}
	line.Quantity = capQuantity(line.Quantity+qty, line.Stock)
	return *line, nil
}

// SetQuantity replaces the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) SetQuantity(productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return apperr.NotFound("product %s is not in the cart", productID)
	}
	if qty <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	}
	c.lines[i].Quantity = capQuantity(qty, c.lines[i].Stock)
	return nil
}

// Remove drops a line and reports whether it was present.
func (c *Cart) Remove(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line{}, c.lines...)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// OrderItems converts the lines into order items at the cart's displayed prices.
func (c *Cart) OrderItems() []models.OrderItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]models.OrderItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, models.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}
	return items
}

// Totals prices the cart with the same rule the server applies to orders.
func (c *Cart) Totals() models.Totals {
	return models.PriceItems(c.OrderItems())
}

// Subtotal is the sum of price × quantity.
func (c *Cart) Subtotal() float64 { return c.Totals().Items }

// Shipping is the flat fee charged when the subtotal is positive.
func (c *Cart) Shipping() float64 { return c.Totals().Shipping }

// Total is subtotal plus shipping.
func (c *Cart) Total() float64 { return c.Totals().Total }

// MarshalJSON encodes the cart as its list of lines.
func (c *Cart) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Lines())
}

// UnmarshalJSON replaces the cart's lines with the decoded list.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	c.mu.Lock()
	c.lines = lines
	c.mu.Unlock()
	return nil
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func capQuantity(qty, stock int) int {
	if stock > 0 && qty > stock {
		return stock
	}
	return qty
}
