/*
Copyright (C) 2024-2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package diskcache implements the bounded, pinned, single-flight LRU of
// spec.md §4.2: a persistent cache that fronts the object store for hot
// artifacts (centroids, codebooks, cluster files) and survives restarts by
// rebuilding its index from whatever is already on disk.
package diskcache

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/zerr"
	"github.com/launix-de/zeppelin/internal/zlog"
)

type entry struct {
	size     int64
	lastUsed time.Time
	pinned   bool
}

// Cache is a directory-backed LRU with pinning and single-flight fills.
// All index mutations are serialized by mu; reads of already-resident
// bytes go straight to disk without taking mu for the file I/O itself.
type Cache struct {
	dir      string
	maxBytes int64

	mu        sync.Mutex
	index     map[string]*entry
	totalSize int64

	fillGroup singleflight.Group
}

// New opens (or creates) the cache directory at dir and rebuilds the index
// by scanning it. Zero-length files and leftover .tmp files are dropped
// silently; other files are indexed without any check of their contents.
func New(dir string, maxBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, zerr.Cache("creating cache directory: " + err.Error())
	}
	c := &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		index:    make(map[string]*entry),
	}
	if err := c.rebuildIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) rebuildIndex() error {
	log := zlog.WithComponent("diskcache")
	return filepath.Walk(c.dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(p, ".tmp") {
			_ = os.Remove(p)
			return nil
		}
		if info.Size() == 0 {
			log.Debug().Str("path", p).Msg("dropping empty cached file")
			_ = os.Remove(p)
			return nil
		}
		rel, err := filepath.Rel(c.dir, p)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		c.index[key] = &entry{
			size:     info.Size(),
			lastUsed: info.ModTime(),
		}
		c.totalSize += info.Size()
		return nil
	})
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, filepath.FromSlash(key))
}

// Get returns the cached bytes for key, if resident, and updates recency.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.index[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		// evicted out-of-band or corrupted; drop from index
		c.mu.Lock()
		c.removeLocked(key)
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	e.lastUsed = time.Now()
	c.mu.Unlock()
	return data, true
}

// Put writes data for key and evicts, if necessary, to respect maxBytes.
func (c *Cache) Put(key string, data []byte) error {
	p := c.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return zerr.Cache(err.Error())
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return zerr.Cache(err.Error())
	}
	if err := os.Rename(tmp, p); err != nil {
		return zerr.Cache(err.Error())
	}

	c.mu.Lock()
	if old, ok := c.index[key]; ok {
		c.totalSize -= old.size
	}
	c.index[key] = &entry{size: int64(len(data)), lastUsed: time.Now()}
	c.totalSize += int64(len(data))
	c.evictLocked()
	c.mu.Unlock()
	return nil
}

// Pin marks a resident entry for hot retention. A no-op if key isn't
// present; callers normally pin right after a Put/GetOrFetch of a hot
// artifact (centroids, quantizer codebooks).
func (c *Cache) Pin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.index[key]; ok {
		e.pinned = true
	}
}

func (c *Cache) Unpin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.index[key]; ok {
		e.pinned = false
		c.evictLocked()
	}
}

// Invalidate removes key from disk and the index.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
	_ = os.Remove(c.path(key))
}

func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	var toRemove []string
	for k := range c.index {
		if strings.HasPrefix(k, prefix) {
			toRemove = append(toRemove, k)
		}
	}
	for _, k := range toRemove {
		c.removeLocked(k)
	}
	c.mu.Unlock()
	for _, k := range toRemove {
		_ = os.Remove(c.path(k))
	}
}

func (c *Cache) removeLocked(key string) {
	if e, ok := c.index[key]; ok {
		c.totalSize -= e.size
		delete(c.index, key)
	}
}

// TotalSize returns the aggregate resident bytes across all entries
// (pinned and unpinned).
func (c *Cache) TotalSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalSize
}

// evictLocked evicts ascending-lastUsed unpinned entries until
// totalSize <= maxBytes, or until only pinned entries remain (in which
// case the cache accepts oversubscription). Caller must hold mu.
func (c *Cache) evictLocked() {
	if c.totalSize <= c.maxBytes {
		return
	}
	type cand struct {
		key string
		e   *entry
	}
	var candidates []cand
	for k, e := range c.index {
		if !e.pinned {
			candidates = append(candidates, cand{k, e})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].e.lastUsed.Before(candidates[j].e.lastUsed)
	})

	log := zlog.WithComponent("diskcache")
	for _, cd := range candidates {
		if c.totalSize <= c.maxBytes {
			break
		}
		c.totalSize -= cd.e.size
		delete(c.index, cd.key)
		p := c.path(cd.key)
		go func() {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", p).Msg("failed to evict cached file")
			}
		}()
	}
}

// FetchFunc produces the bytes for a cache miss, e.g. by reading from the
// backing object store.
type FetchFunc func(ctx context.Context) ([]byte, error)

// GetOrFetch returns cached bytes for key if resident; otherwise it invokes
// fetch under a single-flight guard so at most one fetch is in flight per
// key even under concurrent callers. The guard never holds the cache-wide
// lock across fetch — singleflight.Group serializes purely on the key
// string, independent of c.mu.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
		return data, nil
	}

	v, err, _ := c.fillGroup.Do(key, func() (interface{}, error) {
		// Re-check: another flight may have filled it while we waited to
		// enter Do (the group dedupes concurrent callers, but a prior,
		// now-completed flight could already have populated the cache).
		if data, ok := c.Get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("hit").Inc()
			return data, nil
		}
		metrics.CacheHitsTotal.WithLabelValues("miss").Inc()
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, data); err != nil {
			// fetch succeeded; a caching failure shouldn't fail the read
			zlog.WithComponent("diskcache").Warn().Err(err).Str("key", key).Msg("failed to persist fetched artifact")
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
