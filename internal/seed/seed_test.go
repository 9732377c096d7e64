package seed_test

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/seed"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSeeder() (*seed.Seeder, *repositories.MemoryProductRepository) {
	repo := repositories.NewMemoryProductRepository()
	productService := services.NewProductService(repo, repositories.NewMemoryUserRepository(), zap.NewNop())
	return seed.NewSeeder(repo, productService, zap.NewNop()), repo
}

func TestLoadFile(t *testing.T) {
	catalog, err := seed.LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)
	require.Len(t, catalog.Products, 3)
	assert.Equal(t, "Apple", catalog.Products[0].Brand)
	assert.Equal(t, 929.99, catalog.Products[1].Price)
	assert.Equal(t, []string{"/images/mouse.jpg"}, catalog.Products[2].Images)

	_, err = seed.LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	catalog, err := seed.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, catalog.Products)

	_, err = seed.Parse(strings.NewReader("products:\n  - name: X\n    colour: red\n"))
	assert.Error(t, err)
}

func TestSeeder_Seed(t *testing.T) {
	seeder, repo := newSeeder()
	ctx := context.Background()

	catalog, err := seed.LoadFile("testdata/catalog.yaml")
	require.NoError(t, err)

	created, err := seeder.Seed(ctx, "admin-1", catalog)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	products, total, err := repo.List(ctx, models.ProductQuery{Sort: models.SortNameAsc, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, "admin-1", products[0].UserID)

	// A populated store is left alone.
	created, err = seeder.Seed(ctx, "admin-1", catalog)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestSeeder_Seed_InvalidEntry(t *testing.T) {
	seeder, _ := newSeeder()

	_, err := seeder.Seed(context.Background(), "admin-1", &seed.Catalog{Products: []seed.Product{{Name: "No brand"}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
