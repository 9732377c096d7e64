package client_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records requests and serves canned answers.
type fakeAPI struct {
	mu       sync.Mutex
	t        *testing.T
	lastAuth string
	lastBody []byte
	orderErr bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
	f.lastBody, _ = io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/users/login":
		var creds map[string]string
		_ = json.Unmarshal(f.lastBody, &creds)
		if creds["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","name":"Alice","email":"alice@example.com","role":"standard","isActive":true}}`))

	case r.Method == http.MethodGet && r.URL.Path == "/api/products":
		assert.Equal(f.t, "wid", r.URL.Query().Get("search"))
		assert.Equal(f.t, "price-asc", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{"products":[{"id":"w","name":"Widget","price":10,"stock":3}],"page":1,"totalPages":1,"total":1}`))

	case r.Method == http.MethodGet && r.URL.Path == "/api/products/w":
		_, _ = w.Write([]byte(`{"id":"w","name":"Widget","price":10,"stock":3,"images":["/img/w.png"]}`))

	case r.Method == http.MethodGet && r.URL.Path == "/api/products/missing":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"product with ID missing not found"}`))

	case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
		if f.orderErr {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"Validation failed","errors":{"City":"Field 'City' failed on the 'required' tag"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"o1","userId":"u1","totalPrice":30,"status":"pending","items":[{"productId":"w","quantity":2,"price":10}]}`))

	case r.Method == http.MethodGet && r.URL.Path == "/api/orders/myorders":
		if f.lastAuth == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Authorization header is required"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))

	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`oops`))
	}
}

func (f *fakeAPI) snapshot() (auth string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastAuth, f.lastBody
}

func (f *fakeAPI) failOrders(fail bool) {
	f.mu.Lock()
	f.orderErr = fail
	f.mu.Unlock()
}

func setup(t *testing.T) (*fakeAPI, *client.Client) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, client.New(srv.URL + "/")
}

var address = models.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"}

func TestClient_LoginAndOrders(t *testing.T) {
	api, c := setup(t)

	_, err := c.MyOrders()
	assert.Equal(t, http.StatusUnauthorized, client.StatusOf(err))

	_, err = c.Login("alice@example.com", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)

	result, err := c.Login("alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, models.RoleStandard, result.User.Role)

	c.SetToken(result.Token)
	orders, err := c.MyOrders()
	require.NoError(t, err)
	assert.Empty(t, orders)
	auth, _ := api.snapshot()
	assert.Equal(t, "Bearer tok-1", auth)
}

func TestClient_Products(t *testing.T) {
	_, c := setup(t)

	page, err := c.ListProducts(models.ProductQuery{Search: "wid", Sort: models.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, int64(1), page.Total)

	_, err = c.GetProduct("missing")
	assert.Equal(t, http.StatusNotFound, client.StatusOf(err))

	_, err = c.TopProducts(3)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "oops", apiErr.Message)
}

func TestSession_Checkout(t *testing.T) {
	api, c := setup(t)
	session := client.NewSession(c, cart.New())

	_, err := session.Checkout(address, "PayPal")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.NoError(t, session.Login("alice@example.com", "password123"))
	assert.True(t, session.SignedIn())
	assert.Equal(t, "Alice", session.User.Name)

	_, err = session.Checkout(address, "PayPal")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	line, err := session.AddToCart("w", 2)
	require.NoError(t, err)
	assert.Equal(t, "/img/w.png", line.Image)
	assert.Equal(t, 30.0, session.Cart.Total())

	// A rejected order keeps the cart.
	api.failOrders(true)
	_, err = session.Checkout(address, "PayPal")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Fields, "City")
	assert.False(t, session.Cart.IsEmpty())

	api.failOrders(false)
	order, err := session.Checkout(address, "PayPal")
	require.NoError(t, err)
	assert.Equal(t, 30.0, order.TotalPrice)
	assert.True(t, session.Cart.IsEmpty())

	var sent services.CreateOrderInput
	_, body := api.snapshot()
	require.NoError(t, json.Unmarshal(body, &sent))
	require.Len(t, sent.Items, 1)
	assert.Equal(t, services.OrderLine{ProductID: "w", Quantity: 2}, sent.Items[0])
	assert.Equal(t, "PayPal", sent.PaymentMethod)

	session.Logout()
	assert.False(t, session.SignedIn())
}

func TestAPIError_Error(t *testing.T) {
	plain := &client.APIError{Status: 404, Message: "Product not found"}
	assert.Equal(t, "api error 404: Product not found", plain.Error())

	fields := &client.APIError{
		Status:  400,
		Message: "Validation failed",
		Fields:  map[string]string{"Name": "name is required", "Email": "email is invalid", "Password": "password is too short"},
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "api error 400: Validation failed (email is invalid; name is required; password is too short)", fields.Error())
	}
	assert.Equal(t, 400, client.StatusOf(fields))
}
