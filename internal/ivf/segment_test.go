package ivf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
)

func TestLoadSegmentVectors_RoundTripsAfterBuild(t *testing.T) {
	store := objectstore.NewMemoryStore()
	cfg := DefaultIndexingConfig()
	cfg.DefaultNumCentroids = 4
	cfg.SampleSize = 0

	vectors := buildVectorSet(50, 6)
	_, err := Build(context.Background(), store, "ns", "seg1", vectors, cfg, types.Euclidean)
	require.NoError(t, err)

	loaded, err := LoadSegmentVectors(context.Background(), store, "ns", "seg1")
	require.NoError(t, err)
	assert.Len(t, loaded, len(vectors))

	byID := make(map[string]types.VectorEntry, len(loaded))
	for _, v := range loaded {
		byID[v.ID] = v
	}
	for _, want := range vectors {
		got, ok := byID[want.ID]
		require.True(t, ok)
		assert.Equal(t, want.Values, got.Values)
		assert.Equal(t, want.Attributes, got.Attributes)
	}
}

func TestLoadSegmentVectors_EmptySegmentReturnsNoVectors(t *testing.T) {
	store := objectstore.NewMemoryStore()
	cfg := DefaultIndexingConfig()

	_, err := Build(context.Background(), store, "ns", "seg-empty", nil, cfg, types.Euclidean)
	require.NoError(t, err)

	loaded, err := LoadSegmentVectors(context.Background(), store, "ns", "seg-empty")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
