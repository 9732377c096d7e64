package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validProductInput() services.ProductInput {
	return services.ProductInput{
		Name:        "Widget",
		Description: "A useful widget",
		Brand:       "Acme",
		Category:    "Tools",
		Price:       10,
		Stock:       5,
	}
}

func TestProductService_ListProducts_Defaults(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())
	ctx := context.Background()

	expectedQuery := models.ProductQuery{Search: "wid", Sort: models.SortNewest, Page: 1, Limit: services.DefaultPageSize}
	mockRepo.On("List", ctx, expectedQuery).Return([]models.Product{{ID: "p1"}}, int64(17), nil).Once()

	page, err := productService.ListProducts(ctx, models.ProductQuery{Search: "  wid "})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(17), page.Total)
	assert.Len(t, page.Products, 1)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListProducts_ClampsLimit(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())
	ctx := context.Background()

	expectedQuery := models.ProductQuery{Sort: models.SortPriceAsc, Page: 2, Limit: services.MaxPageSize}
	mockRepo.On("List", ctx, expectedQuery).Return(nil, int64(0), nil).Once()

	page, err := productService.ListProducts(ctx, models.ProductQuery{Sort: models.SortPriceAsc, Page: 2, Limit: 5000})
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
	assert.Equal(t, 0, page.TotalPages)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListProducts_Errors(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())
	ctx := context.Background()

	_, err := productService.ListProducts(ctx, models.ProductQuery{Sort: "random"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	mockRepo.On("List", ctx, mock.Anything).Return(nil, int64(0), errors.New("db down")).Once()
	_, err = productService.ListProducts(ctx, models.ProductQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Equal(t, 500, apperr.Status(err))
}

func TestProductService_TopProducts_DefaultLimit(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())
	ctx := context.Background()

	mockRepo.On("Top", ctx, services.DefaultTopLimit).Return([]models.Product{{ID: "a"}, {ID: "b"}}, nil).Once()

	products, err := productService.TopProducts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(nil).Once()

	product, err := productService.CreateProduct(ctx, "admin-1", validProductInput())
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "admin-1", product.UserID)
	assert.NotNil(t, product.Images)
	assert.NotNil(t, product.Reviews)
	assert.Equal(t, 0.0, product.Rating)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *services.ProductInput)
	}{
		{"missing name", func(in *services.ProductInput) { in.Name = "  " }},
		{"missing description", func(in *services.ProductInput) { in.Description = "" }},
		{"missing brand", func(in *services.ProductInput) { in.Brand = "" }},
		{"missing category", func(in *services.ProductInput) { in.Category = "" }},
		{"negative price", func(in *services.ProductInput) { in.Price = -1 }},
		{"sub-cent price", func(in *services.ProductInput) { in.Price = 0.005 }},
		{"negative stock", func(in *services.ProductInput) { in.Stock = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			productService := services.NewProductService(mockRepo, new(MockUserRepository), zap.NewNop())

			input := validProductInput()
			tt.mutate(&input)
			_, err := productService.CreateProduct(context.Background(), "admin-1", input)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestProductService_UpdateProduct_Partial(t *testing.T) {
	repos := repositories.NewMemorySet()
	productService := services.NewProductService(repos.Products, repos.Users, zap.NewNop())
	ctx := context.Background()

	created, err := productService.CreateProduct(ctx, "admin-1", validProductInput())
	require.NoError(t, err)

	price := 12.5
	updated, err := productService.UpdateProduct(ctx, created.ID, services.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Price)
	assert.Equal(t, "Widget", updated.Name)
	assert.Equal(t, 5, updated.Stock)

	fractional := 9.999
	_, err = productService.UpdateProduct(ctx, created.ID, services.ProductUpdate{Price: &fractional})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	empty := ""
	_, err = productService.UpdateProduct(ctx, created.ID, services.ProductUpdate{Brand: &empty})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = productService.UpdateProduct(ctx, "missing", services.ProductUpdate{Price: &price})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	stored, err := productService.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Brand)
}

func TestProductService_DeleteProduct(t *testing.T) {
	repos := repositories.NewMemorySet()
	productService := services.NewProductService(repos.Products, repos.Users, zap.NewNop())
	ctx := context.Background()

	created, err := productService.CreateProduct(ctx, "admin-1", validProductInput())
	require.NoError(t, err)

	require.NoError(t, productService.DeleteProduct(ctx, created.ID))
	assert.ErrorIs(t, productService.DeleteProduct(ctx, created.ID), apperr.ErrNotFound)

	_, err = productService.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductService_AddReview(t *testing.T) {
	repos := repositories.NewMemorySet()
	productService := services.NewProductService(repos.Products, repos.Users, zap.NewNop())
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com", Role: models.RoleStandard, IsActive: true}
	bob := &models.User{Name: "Bob", Email: "bob@example.com", Role: models.RoleStandard, IsActive: true}
	require.NoError(t, repos.Users.Create(ctx, alice))
	require.NoError(t, repos.Users.Create(ctx, bob))

	product, err := productService.CreateProduct(ctx, "admin-1", validProductInput())
	require.NoError(t, err)

	reviewed, err := productService.AddReview(ctx, product.ID, alice.ID, 5, "Great")
	require.NoError(t, err)
	assert.Equal(t, 5.0, reviewed.Rating)
	assert.Equal(t, 1, reviewed.NumReviews)
	assert.Equal(t, "Alice", reviewed.Reviews[0].Name)

	reviewed, err = productService.AddReview(ctx, product.ID, bob.ID, 2, "Meh")
	require.NoError(t, err)
	assert.Equal(t, 3.5, reviewed.Rating)
	assert.Equal(t, 2, reviewed.NumReviews)

	t.Run("duplicate review", func(t *testing.T) {
		_, err := productService.AddReview(ctx, product.ID, alice.ID, 4, "Again")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, err := productService.AddReview(ctx, product.ID, bob.ID, 6, "Too high")
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = productService.AddReview(ctx, product.ID, bob.ID, 0, "Too low")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("missing comment", func(t *testing.T) {
		_, err := productService.AddReview(ctx, product.ID, bob.ID, 3, " ")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := productService.AddReview(ctx, "missing", bob.ID, 3, "Fine")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	stored, err := productService.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.NumReviews)
	assert.Equal(t, 3.5, stored.Rating)
}
