package client

import (
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/services"
)

// Session is a shopper's client state: API client, signed-in user and cart.
type Session struct {
	Client *Client
	User   *models.User
	Cart   *cart.Cart
}

// NewSession creates a session over client with the given cart. A nil cart starts empty.
func NewSession(client *Client, c *cart.Cart) *Session {
	if c == nil {
		c = cart.New()
	}
	return &Session{Client: client, Cart: c}
}

// SignedIn reports whether the session holds a token.
func (s *Session) SignedIn() bool {
	return s.Client.Token() != ""
}

// Login signs in and keeps the returned token.
func (s *Session) Login(email, password string) error {
	result, err := s.Client.Login(email, password)
	if err != nil {
		return err
	}
	s.Client.SetToken(result.Token)
	s.User = result.User
	return nil
}

// Register creates an account and signs in with it.
func (s *Session) Register(name, email, password string) error {
	result, err := s.Client.Register(name, email, password)
	if err != nil {
		return err
	}
	s.Client.SetToken(result.Token)
	s.User = result.User
	return nil
}

// Logout forgets the token and user. The cart is kept.
func (s *Session) Logout() {
	s.Client.SetToken("")
	s.User = nil
}

// AddToCart fetches the product and adds qty units of it to the cart.
func (s *Session) AddToCart(productID string, qty int) (cart.Line, error) {
	product, err := s.Client.GetProduct(productID)
	if err != nil {
		return cart.Line{}, err
	}
	return s.Cart.Add(*product, qty)
}

// Checkout submits the cart as an order. The cart is cleared only when the order was accepted.
func (s *Session) Checkout(address models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	if !s.SignedIn() {
		return nil, apperr.Unauthorized("sign in before checking out")
	}
	if s.Cart.IsEmpty() {
		return nil, apperr.Validation("cart is empty")
	}

	lines := s.Cart.Lines()
	input := services.CreateOrderInput{
		Items:           make([]services.OrderLine, 0, len(lines)),
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
	}
	for _, l := range lines {
		input.Items = append(input.Items, services.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	order, err := s.Client.CreateOrder(input)
	if err != nil {
		return nil, fmt.Errorf("checkout failed: %w", err)
	}
	s.Cart.Clear()
	return order, nil
}
