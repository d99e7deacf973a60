package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNamespace_DefaultsToCosineAndReturns201(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces", map[string]interface{}{
		"name":       "docs",
		"dimensions": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp namespaceResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "docs", resp.Name)
	assert.Equal(t, 4, resp.Dimensions)
	assert.EqualValues(t, "cosine", resp.DistanceMetric)
}

func TestCreateNamespace_DuplicateReturns409(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces", map[string]interface{}{
		"name":       "docs",
		"dimensions": 4,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateNamespace_MissingFieldsReturns400(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces", map[string]interface{}{
		"name": "docs",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetNamespace_UnknownReturns404(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/v1/namespaces/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNamespaces_ReturnsEveryCreatedNamespace(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "a", 4)
	mustCreateNamespace(t, r, "b", 8)

	w := doJSON(t, r, http.MethodGet, "/v1/namespaces", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []namespaceResponse
	decodeJSON(t, w, &resp)
	assert.Len(t, resp, 2)
}

func TestDeleteNamespace_RemovesIt(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodDelete, "/v1/namespaces/docs", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/namespaces/docs", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteNamespace_RemovesAllObjectsAndDoesNotLeakIntoRecreatedNamespace(t *testing.T) {
	r, store := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{
			{"id": "v1", "values": []float32{1, 0, 0, 0}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/v1/namespaces/docs", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	keys, err := store.ListPrefix(context.Background(), "docs/")
	require.NoError(t, err)
	assert.Empty(t, keys, "delete must remove every object under the namespace's prefix, not just meta.json")

	mustCreateNamespace(t, r, "docs", 4)
	w = doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/query", map[string]interface{}{
		"vector":      []float32{1, 0, 0, 0},
		"top_k":       10,
		"consistency": "strong",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp queryResponse
	decodeJSON(t, w, &resp)
	assert.Empty(t, resp.Results, "re-created namespace must not see the deleted namespace's vectors")
}

func TestCreateNamespace_CarriesFullTextSearchConfig(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces", map[string]interface{}{
		"name":       "docs",
		"dimensions": 4,
		"full_text_search": map[string]interface{}{
			"fields": []string{" title ", "", "body"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp namespaceResponse
	decodeJSON(t, w, &resp)
	require.NotNil(t, resp.FTSConfig)
	assert.Equal(t, []string{"title", "body"}, resp.FTSConfig.Fields)
}
