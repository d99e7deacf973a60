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

// Package compaction folds uncompacted WAL fragments and the current
// segment into a fresh IVF segment, per namespace, one pass at a time.
package compaction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/launix-de/zeppelin/internal/diskcache"
	"github.com/launix-de/zeppelin/internal/ids"
	"github.com/launix-de/zeppelin/internal/ivf"
	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/wal"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// Config carries the compaction.* knobs of spec.md §6.
type Config struct {
	MinFragmentsToCompact int
	GCDelay               time.Duration
}

// DefaultConfig mirrors the teacher's sane zero-config default.
func DefaultConfig() Config {
	return Config{
		MinFragmentsToCompact: 4,
		GCDelay:               10 * time.Minute,
	}
}

// Compactor runs at most one compaction pass per namespace at a time. A
// per-namespace mutex serializes passes; writers append fragments
// concurrently and are unaffected.
type Compactor struct {
	store objectstore.Store
	cache *diskcache.Cache
	cfg   Config

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewCompactor(store objectstore.Store, cache *diskcache.Cache, cfg Config) *Compactor {
	return &Compactor{
		store: store,
		cache: cache,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}
}

// namespaceLock returns the same *sync.Mutex on every call for a given
// namespace, so concurrent Compact calls for the same namespace actually
// serialize against each other.
func (c *Compactor) namespaceLock(namespace string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		c.locks[namespace] = l
	}
	return l
}

// Result reports what a compaction pass did, mainly for tests and the
// admin console.
type Result struct {
	Ran           bool
	NewSegmentID  string
	VectorCount   int
	FragmentCount int
}

// Compact runs a single compaction pass for a namespace: replay
// uncompacted fragments, carry forward live vectors from the active
// segment, build a fresh IVF segment, and commit a new manifest. It is a
// no-op if no fragment is pending or fewer than cfg.MinFragmentsToCompact
// fragments are pending.
func (c *Compactor) Compact(ctx context.Context, namespace string, dimensions int, metric types.DistanceMetric, quantCfg ivf.IndexingConfig) (*Result, error) {
	lock := c.namespaceLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	log := zlog.WithNamespace("compactor", namespace)

	status := "error"
	defer func() { metrics.CompactionsTotal.WithLabelValues(namespace, status).Inc() }()

	manifest, err := wal.ReadManifest(ctx, c.store, namespace)
	if err != nil {
		return nil, err
	}
	if len(manifest.Fragments) < c.cfg.MinFragmentsToCompact {
		status = "skipped"
		return &Result{Ran: false}, nil
	}

	reader := wal.NewReader(c.store)
	fragments, err := reader.ReadUncompactedFragments(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		status = "skipped"
		return &Result{Ran: false}, nil
	}

	liveVectors, tombstones := replayFragments(fragments)

	if manifest.ActiveSegment != "" {
		carryover, err := loadCarryoverVectors(ctx, c.store, namespace, manifest.ActiveSegment, liveVectors, tombstones)
		if err != nil {
			return nil, err
		}
		for id, v := range carryover {
			if _, overwritten := liveVectors[id]; !overwritten {
				liveVectors[id] = v
			}
		}
	}

	allVectors := make([]types.VectorEntry, 0, len(liveVectors))
	for _, v := range liveVectors {
		allVectors = append(allVectors, v)
	}
	sort.Slice(allVectors, func(i, j int) bool { return allVectors[i].ID < allVectors[j].ID })

	newSegmentID := ids.NewSegmentID()
	buildResult, err := ivf.Build(ctx, c.store, namespace, newSegmentID, allVectors, quantCfg, metric)
	if err != nil {
		return nil, err
	}

	highestFragmentID := fragments[len(fragments)-1].ID
	oldFragmentKeys := make([]string, len(fragments))
	for i, f := range fragments {
		oldFragmentKeys[i] = wal.Key(namespace, f.ID)
	}
	priorSegmentID := manifest.ActiveSegment

	manifest.AddSegment(buildResult.SegmentRef)
	manifest.RemoveCompactedFragments(highestFragmentID)
	if err := wal.WriteManifest(ctx, c.store, namespace, manifest); err != nil {
		return nil, err
	}

	c.cache.InvalidatePrefix(namespace + "/segments/")
	for _, key := range oldFragmentKeys {
		c.cache.Invalidate(key)
	}

	status = "ok"
	log.Info().
		Str("new_segment", newSegmentID).
		Int("vectors", len(allVectors)).
		Int("fragments_consumed", len(fragments)).
		Msg("compaction committed")

	c.scheduleGC(namespace, oldFragmentKeys, priorSegmentID)

	return &Result{
		Ran:           true,
		NewSegmentID:  newSegmentID,
		VectorCount:   len(allVectors),
		FragmentCount: len(fragments),
	}, nil
}

// scheduleGC deletes now-unreferenced fragment objects and the prior
// segment's artifacts after cfg.GCDelay, giving any in-flight strong-read
// that already loaded the old manifest time to finish before the objects
// it might still reference disappear.
func (c *Compactor) scheduleGC(namespace string, fragmentKeys []string, priorSegmentID string) {
	log := zlog.WithNamespace("compactor", namespace)
	time.AfterFunc(c.cfg.GCDelay, func() {
		ctx := context.Background()
		for _, key := range fragmentKeys {
			if err := c.store.Delete(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to garbage collect compacted fragment")
			}
		}
		if priorSegmentID != "" {
			prefix := namespace + "/segments/" + priorSegmentID + "/"
			if _, err := c.store.DeletePrefix(ctx, prefix); err != nil {
				log.Warn().Err(err).Str("segment", priorSegmentID).Msg("failed to garbage collect prior segment")
			}
		}
	})
}

// replayFragments folds fragments in ID order into (live_vectors,
// tombstones): each delete drops the id and tombstones it, each upsert
// clears any tombstone and overwrites.
func replayFragments(fragments []*wal.Fragment) (map[string]types.VectorEntry, map[string]struct{}) {
	live := make(map[string]types.VectorEntry)
	tombstones := make(map[string]struct{})

	for _, f := range fragments {
		for _, id := range f.Deletes {
			delete(live, id)
			tombstones[id] = struct{}{}
		}
		for _, v := range f.Vectors {
			delete(tombstones, v.ID)
			live[v.ID] = v
		}
	}
	return live, tombstones
}

// loadCarryoverVectors reads every vector in a namespace's active segment
// and keeps the ones that are neither tombstoned nor already present in
// the freshly replayed WAL state.
func loadCarryoverVectors(ctx context.Context, store objectstore.Store, namespace, segmentID string, liveVectors map[string]types.VectorEntry, tombstones map[string]struct{}) (map[string]types.VectorEntry, error) {
	vectors, err := ivf.LoadSegmentVectors(ctx, store, namespace, segmentID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.VectorEntry, len(vectors))
	for _, v := range vectors {
		if _, tombstoned := tombstones[v.ID]; tombstoned {
			continue
		}
		if _, overwritten := liveVectors[v.ID]; overwritten {
			continue
		}
		out[v.ID] = v
	}
	return out, nil
}
