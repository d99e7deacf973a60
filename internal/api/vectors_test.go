package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertVectors_Succeeds(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{
			{"id": "v1", "values": []float32{1, 0, 0, 0}},
			{"id": "v2", "values": []float32{0, 1, 0, 0}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp upsertVectorsResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, 2, resp.Upserted)
}

func TestUpsertVectors_DimensionMismatchReturns400(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{
			{"id": "v1", "values": []float32{1, 0}},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpsertVectors_UnknownNamespaceReturns404(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/missing/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{{"id": "v1", "values": []float32{1, 0}}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertVectors_EmptyBatchReturns400(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteVectors_Succeeds(t *testing.T) {
	r, _ := newTestServer(t)
	mustCreateNamespace(t, r, "docs", 4)
	doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors", map[string]interface{}{
		"vectors": []map[string]interface{}{{"id": "v1", "values": []float32{1, 0, 0, 0}}},
	})

	w := doJSON(t, r, http.MethodPost, "/v1/namespaces/docs/vectors/delete", map[string]interface{}{
		"ids": []string{"v1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp deleteVectorsResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, 1, resp.Deleted)
}
