package wal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/objectstore"
)

func TestManifest_ReadMissingReturnsEmpty(t *testing.T) {
	store := objectstore.NewMemoryStore()
	m, err := ReadManifest(context.Background(), store, "ghost")
	require.NoError(t, err)
	assert.Empty(t, m.Fragments)
	assert.Empty(t, m.Segments)
}

func TestManifest_WriteReadRoundTrip(t *testing.T) {
	store := objectstore.NewMemoryStore()
	ctx := context.Background()
	m := NewManifest()
	m.AddFragment(FragmentRef{ID: "01A", VectorCount: 2})
	m.AddFragment(FragmentRef{ID: "01B", VectorCount: 1, DeleteCount: 1})

	require.NoError(t, WriteManifest(ctx, store, "ns1", m))

	got, err := ReadManifest(ctx, store, "ns1")
	require.NoError(t, err)
	assert.Len(t, got.Fragments, 2)
	assert.Equal(t, "01B", got.Fragments[1].ID)
}

func TestManifest_RemoveCompactedFragmentsKeepsOnlyAboveWatermark(t *testing.T) {
	m := NewManifest()
	m.AddFragment(FragmentRef{ID: "01A"})
	m.AddFragment(FragmentRef{ID: "01B"})
	m.AddFragment(FragmentRef{ID: "01C"})

	m.RemoveCompactedFragments("01B")

	require.Len(t, m.Fragments, 1)
	assert.Equal(t, "01C", m.Fragments[0].ID)
	assert.Equal(t, "01B", m.CompactionWatermark)
	for _, f := range m.Fragments {
		assert.Greater(t, f.ID, m.CompactionWatermark)
	}
}

func TestManifest_AddSegmentSetsActiveSegment(t *testing.T) {
	m := NewManifest()
	m.AddSegment(SegmentRef{ID: "seg1", VectorCount: 10, ClusterCount: 4})
	assert.Equal(t, "seg1", m.ActiveSegment)
	assert.Equal(t, 10, m.SegmentVectorCount())

	m.AddSegment(SegmentRef{ID: "seg2", VectorCount: 5})
	assert.Equal(t, "seg2", m.ActiveSegment)
	assert.Equal(t, 15, m.SegmentVectorCount())
}
