package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthz_AlwaysOK(t *testing.T) {
	r, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyz_OKWhenStoreReachable(t *testing.T) {
	r, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics_ExposesPrometheusFormat(t *testing.T) {
	r, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# HELP")
}
