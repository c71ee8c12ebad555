//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeJSON[[]productResponse](t, resp)
	require.Len(t, products, 8)

	byID := make(map[string]productResponse, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	chai, ok := byID["chai-classic"]
	require.True(t, ok)
	assert.Equal(t, "Classic Masala Chai", chai.Name)
	assert.Equal(t, "beverages", chai.CategoryID)
	assert.InDelta(t, 120, chai.Price, 0.001)
}

func TestGetProduct(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		resp := doGet(t, "/api/products/kurta-cotton")
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		p := decodeJSON[productResponse](t, resp)
		assert.Equal(t, "kurta-cotton", p.ID)
		assert.Equal(t, "apparel", p.CategoryID)
		assert.InDelta(t, 899, p.Price, 0.001)
	})

	t.Run("not found", func(t *testing.T) {
		resp := doGet(t, "/api/products/no-such-product")
		defer resp.Body.Close()

		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		e := decodeJSON[errorResponse](t, resp)
		assert.Equal(t, "product_not_found", e.Reason)
	})
}
