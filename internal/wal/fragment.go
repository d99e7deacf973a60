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

// Package wal implements the write-ahead log: immutable fragments, the
// per-namespace manifest, and the writer/reader pair that keep them in
// agreement.
package wal

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/launix-de/zeppelin/internal/ids"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// Fragment is an immutable batch of upserts and deletes, stamped with a
// time-ordered ID so that lexicographic sort equals creation order.
type Fragment struct {
	ID       string              `json:"id"`
	Vectors  []types.VectorEntry `json:"vectors"`
	Deletes  []types.VectorID    `json:"deletes"`
	Checksum uint64              `json:"checksum"`
}

// NewFragment builds a fragment from a batch of vectors and deletes,
// assigning it a fresh ID and its checksum.
func NewFragment(vectors []types.VectorEntry, deletes []types.VectorID) *Fragment {
	id := ids.NewFragmentID()
	return &Fragment{
		ID:       id,
		Vectors:  vectors,
		Deletes:  deletes,
		Checksum: computeChecksum(vectors, deletes),
	}
}

// canonicalVector mirrors Fragment's vectors but with attributes flattened
// into a key-sorted slice, so that JSON's map key ordering (which Go's
// encoding/json does sort by default, unlike a naive hash map) doesn't
// become the only thing standing between us and a stable checksum across
// re-serialization.
type canonicalVector struct {
	ID     string                `json:"id"`
	Values []float32             `json:"values"`
	Attrs  []canonicalAttributes `json:"attrs,omitempty"`
}

type canonicalAttributes struct {
	Key   string               `json:"key"`
	Value types.AttributeValue `json:"value"`
}

func computeChecksum(vectors []types.VectorEntry, deletes []types.VectorID) uint64 {
	canonical := make([]canonicalVector, len(vectors))
	for i, v := range vectors {
		cv := canonicalVector{ID: v.ID, Values: v.Values}
		if len(v.Attributes) > 0 {
			keys := make([]string, 0, len(v.Attributes))
			for k := range v.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			cv.Attrs = make([]canonicalAttributes, len(keys))
			for i, k := range keys {
				cv.Attrs[i] = canonicalAttributes{Key: k, Value: v.Attributes[k]}
			}
		}
		canonical[i] = cv
	}
	sortedDeletes := make([]types.VectorID, len(deletes))
	copy(sortedDeletes, deletes)
	sort.Strings(sortedDeletes)

	payload, err := json.Marshal([]interface{}{canonical, sortedDeletes})
	if err != nil {
		// canonicalVector contains no unmarshalable types (no channels,
		// funcs, or cycles), so this cannot fail in practice.
		panic(fmt.Sprintf("wal: canonical serialization failed: %v", err))
	}
	return xxhash.Sum64(payload)
}

// ValidateChecksum recomputes the checksum and compares it to the stored
// one, failing fast on any single-byte corruption.
func (f *Fragment) ValidateChecksum() error {
	expected := computeChecksum(f.Vectors, f.Deletes)
	if expected != f.Checksum {
		return zerr.ChecksumMismatch(expected, f.Checksum)
	}
	return nil
}

// OperationCount is the total number of upserts plus deletes in the
// fragment.
func (f *Fragment) OperationCount() int {
	return len(f.Vectors) + len(f.Deletes)
}

// Key returns the object-store key for a fragment of the given namespace.
func Key(namespace, fragmentID string) string {
	return fmt.Sprintf("%s/wal/%s.wal", namespace, fragmentID)
}

// Marshal serializes the fragment to its on-disk JSON form.
func (f *Fragment) Marshal() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, zerr.Serialization(err)
	}
	return data, nil
}

// UnmarshalFragment deserializes and checksum-validates a fragment.
func UnmarshalFragment(data []byte) (*Fragment, error) {
	var f Fragment
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, zerr.Serialization(err)
	}
	if err := f.ValidateChecksum(); err != nil {
		return nil, err
	}
	return &f, nil
}
