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
	"sort"
	"strings"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// Reader lists and replays WAL fragments for a namespace.
type Reader struct {
	store objectstore.Store
}

func NewReader(store objectstore.Store) *Reader {
	return &Reader{store: store}
}

// ListFragmentKeys enumerates every `.wal` object under a namespace's WAL
// prefix, independent of what the manifest references.
func (r *Reader) ListFragmentKeys(ctx context.Context, namespace string) ([]string, error) {
	keys, err := r.store.ListPrefix(ctx, namespace+"/wal/")
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ".wal") {
			out = append(out, k)
		}
	}
	return out, nil
}

// ReadFragment fetches and checksum-validates a single fragment by ID.
func (r *Reader) ReadFragment(ctx context.Context, namespace, fragmentID string) (*Fragment, error) {
	data, err := r.store.Get(ctx, Key(namespace, fragmentID))
	if err != nil {
		return nil, err
	}
	return UnmarshalFragment(data)
}

// ReadUncompactedFragments reads the manifest and pulls every referenced
// fragment, sorted ascending by ID (they're appended in order already;
// sorting here is a cheap safety net, not a correctness requirement). A
// checksum failure or a missing object fails the entire replay, since the
// manifest's fragment refs are the source of truth for what must exist.
func (r *Reader) ReadUncompactedFragments(ctx context.Context, namespace string) ([]*Fragment, error) {
	manifest, err := ReadManifest(ctx, r.store, namespace)
	if err != nil {
		return nil, err
	}

	fragments := make([]*Fragment, 0, len(manifest.Fragments))
	for _, ref := range manifest.Fragments {
		f, err := r.ReadFragment(ctx, namespace, ref.ID)
		if err != nil {
			return nil, err
		}
		fragments = append(fragments, f)
	}

	sort.Slice(fragments, func(i, j int) bool {
		return fragments[i].ID < fragments[j].ID
	})

	zlog.WithNamespace("wal_reader", namespace).Debug().Int("fragment_count", len(fragments)).Msg("read uncompacted fragments")
	return fragments, nil
}
