// Package client is a Go client for the storefront REST API.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer of the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string // per-field validation failures
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make([]string, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, e.Fields[key])
	}
	return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, strings.Join(fields, "; "))
}

// StatusOf returns the HTTP status of an *APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client calls the API at a base URL. It is safe for concurrent use once configured.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api",
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. An empty token sends anonymous requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// do sends body as JSON (when non-nil) and decodes a 2xx answer into out (when non-nil).
func (c *Client) do(method, path string, query url.Values, body, out interface{}) error {
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	agent.Timeout(c.timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if body != nil {
		agent.JSON(body)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("failed to prepare %s %s: %w", method, path, err)
	}

	code, respBody, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s failed: %w", method, path, errors.Join(errs...))
	}

	if code < 200 || code > 299 {
		return decodeAPIError(code, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(code int, body []byte) error {
	var payload struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Message == "" {
		payload.Message = strings.TrimSpace(string(body))
		if payload.Message == "" {
			payload.Message = fiber.NewError(code).Message
		}
	}
	return &APIError{Status: code, Message: payload.Message, Fields: payload.Errors}
}

// --- Users ---

// Register creates a standard account.
func (c *Client) Register(name, email, password string) (*services.AuthResult, error) {
	var result services.AuthResult
	err := c.do(fiber.MethodPost, "/users", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges credentials for a token.
func (c *Client) Login(email, password string) (*services.AuthResult, error) {
	var result services.AuthResult
	err := c.do(fiber.MethodPost, "/users/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Profile returns the authenticated user.
func (c *Client) Profile() (*models.User, error) {
	var user models.User
	if err := c.do(fiber.MethodGet, "/users/profile", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the authenticated user's name and/or email.
func (c *Client) UpdateProfile(update services.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(fiber.MethodPut, "/users/profile", nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the authenticated user's password.
func (c *Client) UpdatePassword(current, next string) error {
	return c.do(fiber.MethodPut, "/users/password", nil, map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

// ListUsers returns every user. Admin only.
func (c *Client) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := c.do(fiber.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser changes another user's account. Admin only.
func (c *Client) UpdateUser(id string, update services.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(fiber.MethodPut, "/users/"+url.PathEscape(id), nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user. Admin only.
func (c *Client) DeleteUser(id string) error {
	return c.do(fiber.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// --- Products ---

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(query models.ProductQuery) (*models.ProductPage, error) {
	params := url.Values{}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Category != "" {
		params.Set("category", query.Category)
	}
	if query.Sort != "" {
		params.Set("sort", string(query.Sort))
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	var page models.ProductPage
	if err := c.do(fiber.MethodGet, "/products", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopProducts returns the highest-rated products.
func (c *Client) TopProducts(limit int) ([]models.Product, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var products []models.Product
	if err := c.do(fiber.MethodGet, "/products/top", params, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns a product by ID.
func (c *Client) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	if err := c.do(fiber.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct adds a product. Admin only.
func (c *Client) CreateProduct(input services.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.do(fiber.MethodPost, "/products", nil, input, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct changes the supplied fields of a product. Admin only.
func (c *Client) UpdateProduct(id string, update services.ProductUpdate) (*models.Product, error) {
	var product models.Product
	if err := c.do(fiber.MethodPut, "/products/"+url.PathEscape(id), nil, update, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product. Admin only.
func (c *Client) DeleteProduct(id string) error {
	return c.do(fiber.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}

// ReviewResult is the product rating after a review was added.
type ReviewResult struct {
	Message    string  `json:"message"`
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"numReviews"`
}

// AddReview reviews a product as the authenticated user.
func (c *Client) AddReview(productID string, rating int, comment string) (*ReviewResult, error) {
	var result ReviewResult
	err := c.do(fiber.MethodPost, "/products/"+url.PathEscape(productID)+"/reviews", nil, map[string]interface{}{
		"rating":  rating,
		"comment": comment,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Orders ---

// CreateOrder places an order.
func (c *Client) CreateOrder(input services.CreateOrderInput) (*models.Order, error) {
	var order models.Order
	if err := c.do(fiber.MethodPost, "/orders", nil, input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// MyOrders returns the authenticated user's orders, newest first.
func (c *Client) MyOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(fiber.MethodGet, "/orders/myorders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns an order of the authenticated user (or any order for admins).
func (c *Client) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(fiber.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PayOrder marks an order as paid.
func (c *Client) PayOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(fiber.MethodPut, "/orders/"+url.PathEscape(id)+"/pay", nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// AllOrders returns every order. Admin only.
func (c *Client) AllOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(fiber.MethodGet, "/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus sets the status of an order. Admin only.
func (c *Client) UpdateOrderStatus(id string, status models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := c.do(fiber.MethodPut, "/orders/"+url.PathEscape(id)+"/status", nil, map[string]string{"status": string(status)}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Dashboard returns the admin dashboard figures. Admin only.
func (c *Client) Dashboard() (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(fiber.MethodGet, "/admin/dashboard", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
