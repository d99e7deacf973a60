package wal

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
)

func TestWriter_AppendCreatesFragmentAndManifestEntry(t *testing.T) {
	store := objectstore.NewMemoryStore()
	w := NewWriter(store)
	ctx := context.Background()

	frag, err := w.Append(ctx, "ns1", []types.VectorEntry{{ID: "v1", Values: []float32{1, 2}}}, nil)
	require.NoError(t, err)

	data, err := store.Get(ctx, Key("ns1", frag.ID))
	require.NoError(t, err)
	stored, err := UnmarshalFragment(data)
	require.NoError(t, err)
	assert.Equal(t, frag.ID, stored.ID)

	manifest, err := ReadManifest(ctx, store, "ns1")
	require.NoError(t, err)
	require.Len(t, manifest.Fragments, 1)
	assert.Equal(t, frag.ID, manifest.Fragments[0].ID)
	assert.Equal(t, 1, manifest.Fragments[0].VectorCount)
}

func TestWriter_AppendsPreserveAscendingOrder(t *testing.T) {
	store := objectstore.NewMemoryStore()
	w := NewWriter(store)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		f, err := w.Append(ctx, "ns1", []types.VectorEntry{{ID: "v", Values: []float32{1}}}, nil)
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	manifest, err := ReadManifest(ctx, store, "ns1")
	require.NoError(t, err)
	require.Len(t, manifest.Fragments, 5)
	for i, ref := range manifest.Fragments {
		assert.Equal(t, ids[i], ref.ID)
		if i > 0 {
			assert.Less(t, manifest.Fragments[i-1].ID, ref.ID)
		}
	}
}

func TestWriter_SerializesConcurrentAppendsPerNamespace(t *testing.T) {
	store := objectstore.NewMemoryStore()
	w := NewWriter(store)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Append(ctx, "ns1", []types.VectorEntry{{ID: "v", Values: []float32{1}}}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	manifest, err := ReadManifest(ctx, store, "ns1")
	require.NoError(t, err)
	assert.Len(t, manifest.Fragments, n)

	seen := make(map[string]bool)
	for _, ref := range manifest.Fragments {
		assert.False(t, seen[ref.ID], "duplicate fragment id %s", ref.ID)
		seen[ref.ID] = true
	}
}

func TestWriter_NamespaceLockIsStableAcrossCalls(t *testing.T) {
	store := objectstore.NewMemoryStore()
	w := NewWriter(store)
	a := w.namespaceLock("ns1")
	b := w.namespaceLock("ns1")
	assert.Same(t, a, b, "must return the same mutex for repeated lookups of the same namespace")
}
