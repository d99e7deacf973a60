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

package wal

import (
	"context"
	"sync"

	"github.com/launix-de/zeppelin/internal/metrics"
	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// Writer serializes fragment appends per namespace: one in-process lock per
// namespace, created lazily and held for the full append.
//
// The per-namespace lock is stored once and reused; namespaceLock must
// never hand back a fresh mutex for an existing namespace, or two writers
// believing they each hold "the" lock could interleave their fragment PUT
// and manifest PUT, corrupting the ascending-ID invariant.
type Writer struct {
	store objectstore.Store

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewWriter(store objectstore.Store) *Writer {
	return &Writer{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (w *Writer) namespaceLock(namespace string) *sync.Mutex {
	w.locksMu.Lock()
	defer w.locksMu.Unlock()
	l, ok := w.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		w.locks[namespace] = l
	}
	return l
}

// Append constructs a fragment from vectors/deletes, writes it, then folds
// its reference into the manifest. The critical section (fragment PUT,
// then manifest GET-modify-PUT) runs under the namespace's write lock and
// must not be interrupted by ctx cancellation once the fragment PUT has
// begun: an orphaned fragment is a safe but wasteful outcome, a torn
// manifest write is not.
func (w *Writer) Append(ctx context.Context, namespace string, vectors []types.VectorEntry, deletes []types.VectorID) (*Fragment, error) {
	lock := w.namespaceLock(namespace)
	lock.Lock()
	defer lock.Unlock()

	fragment := NewFragment(vectors, deletes)

	data, err := fragment.Marshal()
	if err != nil {
		return nil, err
	}

	log := zlog.WithNamespace("wal_writer", namespace)

	// Shielded from cancellation: once the fragment is durable, the
	// manifest update must also complete or we log and surface a fatal
	// error rather than silently dropping a written fragment.
	commitCtx := context.WithoutCancel(ctx)

	if err := w.store.Put(commitCtx, Key(namespace, fragment.ID), data); err != nil {
		return nil, err
	}
	log.Debug().Str("fragment_id", fragment.ID).Int("vectors", len(fragment.Vectors)).Int("deletes", len(fragment.Deletes)).Msg("wrote WAL fragment")

	manifest, err := ReadManifest(commitCtx, w.store, namespace)
	if err != nil {
		log.Error().Err(err).Str("fragment_id", fragment.ID).Msg("fragment written but manifest read failed; fragment is orphaned")
		return nil, err
	}

	manifest.AddFragment(FragmentRef{
		ID:          fragment.ID,
		VectorCount: len(fragment.Vectors),
		DeleteCount: len(fragment.Deletes),
	})

	if err := WriteManifest(commitCtx, w.store, namespace, manifest); err != nil {
		log.Error().Err(err).Str("fragment_id", fragment.ID).Msg("fragment written but manifest update failed; fragment is orphaned")
		return nil, err
	}

	log.Debug().Int("fragment_count", len(manifest.Fragments)).Msg("updated manifest")
	metrics.WALAppendsTotal.WithLabelValues(namespace).Inc()
	return fragment, nil
}
