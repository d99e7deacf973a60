package diskcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PutGetRoundTrip(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Put("centroids/ns1.bin", []byte("abc")))
	data, ok := c.Get("centroids/ns1.bin")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)
}

func TestCache_GetMissReturnsFalse(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestCache_RebuildsIndexFromExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "segments"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segments", "seg1.bin"), []byte("hello"), 0640))
	// a stray empty file and a leftover .tmp should both be dropped silently
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.bin"), []byte{}, 0640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partial.bin.tmp"), []byte("half"), 0640))

	c, err := New(dir, 1<<20)
	require.NoError(t, err)

	data, ok := c.Get("segments/seg1.bin")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), data)

	_, ok = c.Get("empty.bin")
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(dir, "partial.bin.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestCache_EvictsLeastRecentlyUsedUnderPressure(t *testing.T) {
	c, err := New(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, c.Put("a", []byte("12345")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Put("b", []byte("12345")))
	// touch a so it's more recently used than b
	time.Sleep(2 * time.Millisecond)
	_, _ = c.Get("a")
	time.Sleep(2 * time.Millisecond)

	// pushes total past maxBytes; b is the least recently used unpinned entry
	require.NoError(t, c.Put("c", []byte("12345")))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Get("b"); !ok {
			break
		}
		time.Sleep(time.Millisecond)
	}
	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_PinnedEntrySurvivesEviction(t *testing.T) {
	c, err := New(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, c.Put("a", []byte("12345")))
	c.Pin("a")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Put("b", []byte("12345")))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, c.Put("c", []byte("12345")))

	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("a")
	assert.True(t, ok, "pinned entry must not be evicted")
}

func TestCache_InvalidateRemovesEntry(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Put("k", []byte("v")))
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_InvalidatePrefix(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Put("ns/a/centroids.bin", []byte("1")))
	require.NoError(t, c.Put("ns/a/cluster_0.bin", []byte("2")))
	require.NoError(t, c.Put("ns/b/centroids.bin", []byte("3")))

	c.InvalidatePrefix("ns/a/")

	_, ok := c.Get("ns/a/centroids.bin")
	assert.False(t, ok)
	_, ok = c.Get("ns/a/cluster_0.bin")
	assert.False(t, ok)
	_, ok = c.Get("ns/b/centroids.bin")
	assert.True(t, ok)
}

func TestCache_GetOrFetchSingleFlight(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return []byte("fetched"), nil
	}

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			data, err := c.GetOrFetch(context.Background(), "artifact", fetch)
			require.NoError(t, err)
			results[idx] = data
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, []byte("fetched"), r)
	}
}

func TestCache_GetOrFetchPropagatesError(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	wantErr := fmt.Errorf("object store unreachable")
	_, err = c.GetOrFetch(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	require.Error(t, err)
	assert.Equal(t, wantErr, err)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_TotalSize(t *testing.T) {
	c, err := New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	require.NoError(t, c.Put("a", []byte("1234")))
	require.NoError(t, c.Put("b", []byte("12")))
	assert.EqualValues(t, 6, c.TotalSize())

	c.Invalidate("a")
	assert.EqualValues(t, 2, c.TotalSize())
}
