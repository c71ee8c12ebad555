//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	h := decodeJSON[healthResponse](t, resp)
	assert.Equal(t, "ok", h.Status)
}

func TestReadiness(t *testing.T) {
	resp := doGet(t, "/readyz")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	h := decodeJSON[healthResponse](t, resp)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Checks["postgres"])
	assert.Equal(t, "ok", h.Checks["redis"])
}
