package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/filter"
	"github.com/launix-de/zeppelin/internal/ivf"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/wal"
)

func newTestPlanner(t *testing.T) (*Planner, objectstore.Store) {
	t.Helper()
	store := objectstore.NewMemoryStore()
	cache, err := diskcache.New(t.TempDir(), 64*1024*1024)
	require.NoError(t, err)
	return NewPlanner(store, cache), store
}

func buildSegment(t *testing.T, store objectstore.Store, namespace, segmentID string, vectors []types.VectorEntry) {
	t.Helper()
	cfg := ivf.DefaultIndexingConfig()
	cfg.DefaultNumCentroids = 2
	cfg.SampleSize = 0
	result, err := ivf.Build(context.Background(), store, namespace, segmentID, vectors, cfg, types.Euclidean)
	require.NoError(t, err)

	manifest, err := wal.ReadManifest(context.Background(), store, namespace)
	require.NoError(t, err)
	manifest.AddSegment(result.SegmentRef)
	require.NoError(t, wal.WriteManifest(context.Background(), store, namespace, manifest))
}

func TestPlanner_EventualNoSegmentReturnsEmpty(t *testing.T) {
	p, _ := newTestPlanner(t)

	resp, err := p.Run(context.Background(), Params{
		Namespace:   "ns",
		Query:       []float32{1, 2, 3},
		TopK:        5,
		NProbe:      4,
		Consistency: types.Eventual,
		Metric:      types.Euclidean,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.ScannedFragments)
	assert.Equal(t, 0, resp.ScannedSegments)
}

func TestPlanner_EventualFindsSegmentVector(t *testing.T) {
	p, store := newTestPlanner(t)
	vectors := []types.VectorEntry{
		{ID: "a", Values: []float32{1, 0, 0}},
		{ID: "b", Values: []float32{0, 1, 0}},
		{ID: "c", Values: []float32{0, 0, 1}},
	}
	buildSegment(t, store, "ns", "seg1", vectors)

	resp, err := p.Run(context.Background(), Params{
		Namespace:   "ns",
		Query:       []float32{1, 0, 0},
		TopK:        1,
		NProbe:      4,
		Consistency: types.Eventual,
		Metric:      types.Euclidean,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "a", resp.Results[0].ID)
	assert.Equal(t, 1, resp.ScannedSegments)
}

func TestPlanner_StrongMergesWalOverSegment(t *testing.T) {
	p, store := newTestPlanner(t)
	vectors := []types.VectorEntry{
		{ID: "a", Values: []float32{1, 0, 0}},
		{ID: "b", Values: []float32{0, 1, 0}},
	}
	buildSegment(t, store, "ns", "seg1", vectors)

	// WAL overwrites "a" with a value far from the query, and adds "d".
	writer := wal.NewWriter(store)
	_, err := writer.Append(context.Background(), "ns", []types.VectorEntry{
		{ID: "a", Values: []float32{100, 100, 100}},
		{ID: "d", Values: []float32{1, 0.01, 0}},
	}, nil)
	require.NoError(t, err)

	resp, err := p.Run(context.Background(), Params{
		Namespace:   "ns",
		Query:       []float32{1, 0, 0},
		TopK:        10,
		NProbe:      4,
		Consistency: types.Strong,
		Metric:      types.Euclidean,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ScannedFragments)
	assert.Equal(t, 1, resp.ScannedSegments)

	byID := make(map[string]types.SearchResult)
	for _, r := range resp.Results {
		byID[r.ID] = r
	}
	// "a" must reflect the WAL's overwritten value, not the segment's.
	aResult, ok := byID["a"]
	require.True(t, ok)
	assert.Greater(t, aResult.Score, float32(1.0))
	_, hasD := byID["d"]
	assert.True(t, hasD)
}

func TestPlanner_StrongRespectsDeletes(t *testing.T) {
	p, store := newTestPlanner(t)
	vectors := []types.VectorEntry{
		{ID: "a", Values: []float32{1, 0, 0}},
		{ID: "b", Values: []float32{0, 1, 0}},
	}
	buildSegment(t, store, "ns", "seg1", vectors)

	writer := wal.NewWriter(store)
	_, err := writer.Append(context.Background(), "ns", nil, []types.VectorID{"a"})
	require.NoError(t, err)

	resp, err := p.Run(context.Background(), Params{
		Namespace:   "ns",
		Query:       []float32{1, 0, 0},
		TopK:        10,
		NProbe:      4,
		Consistency: types.Strong,
		Metric:      types.Euclidean,
	})
	require.NoError(t, err)
	for _, r := range resp.Results {
		assert.NotEqual(t, "a", r.ID)
	}
}

func TestPlanner_FilterAppliesToWalScan(t *testing.T) {
	p, store := newTestPlanner(t)
	buildSegment(t, store, "ns", "seg1", []types.VectorEntry{
		{ID: "a", Values: []float32{1, 0, 0}},
	})

	writer := wal.NewWriter(store)
	_, err := writer.Append(context.Background(), "ns", []types.VectorEntry{
		{ID: "fresh-match", Values: []float32{1, 0, 0}, Attributes: map[string]types.AttributeValue{"tag": types.StringAttr("keep")}},
		{ID: "fresh-nomatch", Values: []float32{1, 0, 0}, Attributes: map[string]types.AttributeValue{"tag": types.StringAttr("drop")}},
	}, nil)
	require.NoError(t, err)

	f := &filter.Filter{Op: filter.OpEq, Field: "tag", Value: attrPtr(types.StringAttr("keep"))}
	resp, err := p.Run(context.Background(), Params{
		Namespace:   "ns",
		Query:       []float32{1, 0, 0},
		TopK:        10,
		NProbe:      4,
		Consistency: types.Strong,
		Metric:      types.Euclidean,
		Filter:      f,
	})
	require.NoError(t, err)
	for _, r := range resp.Results {
		if r.ID == "fresh-nomatch" {
			t.Fatalf("fresh-nomatch should have been filtered out")
		}
	}
}

func attrPtr(v types.AttributeValue) *types.AttributeValue {
	return &v
}
