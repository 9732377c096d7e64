package models_test

import (
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestProduct_RecalculateRating(t *testing.T) {
	p := &models.Product{}
	p.RecalculateRating()
	assert.Equal(t, 0.0, p.Rating)
	assert.Equal(t, 0, p.NumReviews)

	p.Reviews = []models.Review{{UserID: "u1", Rating: 5}, {UserID: "u2", Rating: 4}, {UserID: "u3", Rating: 3}}
	p.RecalculateRating()
	assert.Equal(t, 4.0, p.Rating)
	assert.Equal(t, 3, p.NumReviews)

	p.Reviews = append(p.Reviews, models.Review{UserID: "u4", Rating: 1})
	p.RecalculateRating()
	assert.InDelta(t, 3.25, p.Rating, 1e-9)
	assert.Equal(t, 4, p.NumReviews)
}

func TestProduct_ReviewedBy(t *testing.T) {
	p := &models.Product{Reviews: []models.Review{{UserID: "u1", Rating: 5}}}
	assert.True(t, p.ReviewedBy("u1"))
	assert.False(t, p.ReviewedBy("u2"))
}

func TestPriceItems(t *testing.T) {
	t.Run("empty items carry no shipping", func(t *testing.T) {
		totals := models.PriceItems(nil)
		assert.Equal(t, models.Totals{}, totals)
	})

	t.Run("widget scenario", func(t *testing.T) {
		totals := models.PriceItems([]models.OrderItem{{ProductID: "w", Price: 10, Quantity: 2}})
		assert.Equal(t, 20.0, totals.Items)
		assert.Equal(t, 10.0, totals.Shipping)
		assert.Equal(t, 30.0, totals.Total)
	})

	t.Run("cents do not drift", func(t *testing.T) {
		totals := models.PriceItems([]models.OrderItem{
			{Price: 0.1, Quantity: 3},
			{Price: 19.99, Quantity: 1},
		})
		assert.Equal(t, 20.29, totals.Items)
		assert.Equal(t, 30.29, totals.Total)
	})

	t.Run("free items skip shipping", func(t *testing.T) {
		totals := models.PriceItems([]models.OrderItem{{Price: 0, Quantity: 4}})
		assert.Equal(t, 0.0, totals.Total)
	})
}

func TestEnums(t *testing.T) {
	assert.True(t, models.StatusCancelled.Valid())
	assert.False(t, models.OrderStatus("refunded").Valid())
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("root").Valid())
	assert.True(t, models.SortPriceDesc.Valid())
	assert.False(t, models.ProductSort("random").Valid())
}

func TestProductQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, models.ProductQuery{Page: 0, Limit: 8}.Offset())
	assert.Equal(t, 0, models.ProductQuery{Page: 1, Limit: 8}.Offset())
	assert.Equal(t, 16, models.ProductQuery{Page: 3, Limit: 8}.Offset())
}
