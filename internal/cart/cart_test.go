package cart_test

import (
	"os"
	"path/filepath"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	widget = models.Product{ID: "w", Name: "Widget", Price: 10, Stock: 3, Images: []string{"/img/w.png"}}
	gadget = models.Product{ID: "g", Name: "Gadget", Price: 2.5, Stock: 100}
)

func TestCart_AddMergesAndCaps(t *testing.T) {
	c := cart.New()

	line, err := c.Add(widget, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "/img/w.png", line.Image)

	line, err = c.Add(widget, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)

	_, err = c.Add(gadget, 4)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "w", lines[0].ProductID)
	assert.Equal(t, "g", lines[1].ProductID)

	_, err = c.Add(gadget, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = c.Add(models.Product{ID: "x", Name: "Sold out", Price: 1}, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCart_Totals(t *testing.T) {
	c := cart.New()
	assert.Equal(t, 0.0, c.Total())
	assert.Equal(t, 0.0, c.Shipping())

	_, err := c.Add(widget, 2)
	require.NoError(t, err)
	assert.Equal(t, 20.0, c.Subtotal())
	assert.Equal(t, 10.0, c.Shipping())
	assert.Equal(t, 30.0, c.Total())

	_, err = c.Add(gadget, 3)
	require.NoError(t, err)
	assert.Equal(t, 27.5, c.Subtotal())
	assert.Equal(t, 37.5, c.Total())

	items := c.OrderItems()
	require.Len(t, items, 2)
	assert.Equal(t, models.OrderItem{ProductID: "w", Name: "Widget", Image: "/img/w.png", Quantity: 2, Price: 10}, items[0])
}

func TestCart_SetQuantityAndRemove(t *testing.T) {
	c := cart.New()
	_, err := c.Add(widget, 1)
	require.NoError(t, err)
	_, err = c.Add(gadget, 1)
	require.NoError(t, err)

	require.NoError(t, c.SetQuantity("w", 10))
	assert.Equal(t, 3, c.Lines()[0].Quantity)

	require.NoError(t, c.SetQuantity("w", 0))
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "g", c.Lines()[0].ProductID)

	assert.ErrorIs(t, c.SetQuantity("missing", 1), apperr.ErrNotFound)

	assert.True(t, c.Remove("g"))
	assert.False(t, c.Remove("g"))
	assert.True(t, c.IsEmpty())
}

func TestCart_Clear(t *testing.T) {
	c := cart.New()
	_, err := c.Add(widget, 1)
	require.NoError(t, err)
	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Lines())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	store := cart.NewFileStore(path)

	empty, err := store.Load()
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := cart.New()
	_, err = c.Add(widget, 2)
	require.NoError(t, err)
	_, err = c.Add(gadget, 1)
	require.NoError(t, err)
	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, c.Lines(), loaded.Lines())
	assert.Equal(t, 32.5, loaded.Total())

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = store.Load()
	assert.Error(t, err)
}
