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

// Package namespace is the typed metadata registry: create/get/list/delete
// of namespaces, backed by the object store and kept in an in-memory
// ordered index for fast listing.
package namespace

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// FTSConfig is carried on namespace metadata as configuration only; no
// lexical ranker reads it yet.
type FTSConfig struct {
	Fields []string `json:"fields"`
}

// Metadata is a namespace's persistent record. Immutable after creation
// except for the VectorCount/UpdatedAt statistics fields.
type Metadata struct {
	Name           string              `json:"name"`
	Dimensions     int                 `json:"dimensions"`
	DistanceMetric types.DistanceMetric `json:"distance_metric"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	VectorCount    int                 `json:"vector_count"`
	FTSConfig      *FTSConfig          `json:"fts_config,omitempty"`
}

func metaKey(name string) string {
	return name + "/meta.json"
}

type entry struct {
	name string
	meta *Metadata
}

func entryLess(a, b entry) bool {
	return a.name < b.name
}

// Registry provides concurrent-map-like semantics over namespace metadata:
// reads share a read lock, create and delete are serialized.
type Registry struct {
	store objectstore.Store

	mu   sync.RWMutex
	tree *btree.BTreeG[entry]
}

// NewRegistry constructs a registry and loads existing namespace metadata
// from the object store by scanning for `*/meta.json` objects.
func NewRegistry(ctx context.Context, store objectstore.Store) (*Registry, error) {
	r := &Registry{
		store: store,
		tree:  btree.NewG[entry](8, entryLess),
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	keys, err := r.store.ListPrefix(ctx, "")
	if err != nil {
		return err
	}
	log := zlog.WithComponent("namespace_registry")
	for _, k := range keys {
		if len(k) < len("/meta.json") || k[len(k)-len("/meta.json"):] != "/meta.json" {
			continue
		}
		data, err := r.store.Get(ctx, k)
		if err != nil {
			log.Warn().Err(err).Str("key", k).Msg("failed to load namespace metadata, skipping")
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("corrupt namespace metadata, skipping")
			continue
		}
		r.tree.ReplaceOrInsert(entry{name: meta.Name, meta: &meta})
	}
	return nil
}

// Create persists a new namespace's metadata. Fails with
// NamespaceAlreadyExists if the name is taken.
func (r *Registry) Create(ctx context.Context, name string, dimensions int, metric types.DistanceMetric, fts *FTSConfig) (*Metadata, error) {
	if name == "" {
		return nil, zerr.Validation("namespace name must not be empty")
	}
	if dimensions <= 0 {
		return nil, zerr.Validation("dimensions must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tree.Get(entry{name: name}); ok {
		return nil, zerr.NamespaceAlreadyExists(name)
	}

	now := time.Now()
	meta := &Metadata{
		Name:           name,
		Dimensions:     dimensions,
		DistanceMetric: metric,
		CreatedAt:      now,
		UpdatedAt:      now,
		FTSConfig:      fts,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, zerr.Serialization(err)
	}
	if err := r.store.Put(ctx, metaKey(name), data); err != nil {
		return nil, err
	}

	r.tree.ReplaceOrInsert(entry{name: name, meta: meta})
	return meta, nil
}

// Get returns a namespace's metadata, or NamespaceNotFound.
func (r *Registry) Get(name string) (*Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tree.Get(entry{name: name})
	if !ok {
		return nil, zerr.NamespaceNotFound(name)
	}
	return e.meta, nil
}

// List returns every namespace's metadata in name order.
func (r *Registry) List() []*Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Metadata, 0, r.tree.Len())
	r.tree.Ascend(func(e entry) bool {
		out = append(out, e.meta)
		return true
	})
	return out
}

// Delete removes a namespace's metadata from the object store and index.
// Removing the namespace's WAL/manifest/segment objects is the caller's
// responsibility (the registry only owns meta.json).
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tree.Get(entry{name: name}); !ok {
		return zerr.NamespaceNotFound(name)
	}
	if err := r.store.Delete(ctx, metaKey(name)); err != nil {
		return err
	}
	r.tree.Delete(entry{name: name})
	return nil
}

// UpdateVectorCount bumps a namespace's statistics and persists them. Does
// not touch any other field, honoring metadata's post-creation immutability.
func (r *Registry) UpdateVectorCount(ctx context.Context, name string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.tree.Get(entry{name: name})
	if !ok {
		return zerr.NamespaceNotFound(name)
	}

	updated := *e.meta
	updated.VectorCount += delta
	updated.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(&updated, "", "  ")
	if err != nil {
		return zerr.Serialization(err)
	}
	if err := r.store.Put(ctx, metaKey(name), data); err != nil {
		return err
	}

	r.tree.ReplaceOrInsert(entry{name: name, meta: &updated})
	return nil
}
