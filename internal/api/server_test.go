package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/launix-de/zeppelin/internal/config"
	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/namespace"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/query"
	"github.com/launix-de/zeppelin/internal/wal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*gin.Engine, objectstore.Store) {
	t.Helper()
	store := objectstore.NewMemoryStore()
	registry, err := namespace.NewRegistry(context.Background(), store)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	writer := wal.NewWriter(store)
	cache, err := diskcache.New(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	planner := query.NewPlanner(store, cache)

	cfg := config.Default()
	cfg.Server.MaxBatchSize = 1000
	cfg.Server.MaxTopK = 1000
	cfg.Indexing.DefaultNProbe = 8
	cfg.Indexing.MaxNProbe = 64

	s := NewServer(store, cache, registry, writer, planner, cfg)
	return s.Router(), store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func mustCreateNamespace(t *testing.T, r *gin.Engine, name string, dims int) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/v1/namespaces", map[string]interface{}{
		"name":       name,
		"dimensions": dims,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create namespace: status %d body %s", w.Code, w.Body.String())
	}
}
