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
	"encoding/json"
	"time"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// FragmentRef is the manifest's record of a WAL fragment: enough to locate
// and size it without reading the fragment itself.
type FragmentRef struct {
	ID          string `json:"id"`
	VectorCount int    `json:"vector_count"`
	DeleteCount int    `json:"delete_count"`
}

// SegmentRef is the manifest's record of a compacted IVF segment.
type SegmentRef struct {
	ID           string             `json:"id"`
	VectorCount  int                `json:"vector_count"`
	ClusterCount int                `json:"cluster_count"`
	Quantization types.Quantization `json:"quantization"`
	FTSFields    []string           `json:"fts_fields,omitempty"`
}

// Manifest is the single source of truth for what data exists in a
// namespace: the uncompacted fragments and the compacted segments.
type Manifest struct {
	Fragments           []FragmentRef `json:"fragments"`
	Segments            []SegmentRef  `json:"segments"`
	CompactionWatermark string        `json:"compaction_watermark,omitempty"`
	ActiveSegment       string        `json:"active_segment,omitempty"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{UpdatedAt: time.Now()}
}

// ManifestKey returns the object-store key for a namespace's manifest.
func ManifestKey(namespace string) string {
	return namespace + "/manifest.json"
}

// AddFragment appends a fragment reference and bumps updated_at.
func (m *Manifest) AddFragment(ref FragmentRef) {
	m.Fragments = append(m.Fragments, ref)
	m.UpdatedAt = time.Now()
}

// RemoveCompactedFragments drops every fragment ref at or below watermark
// and records it as the new compaction watermark.
func (m *Manifest) RemoveCompactedFragments(watermark string) {
	kept := m.Fragments[:0]
	for _, f := range m.Fragments {
		if f.ID > watermark {
			kept = append(kept, f)
		}
	}
	m.Fragments = kept
	m.CompactionWatermark = watermark
	m.UpdatedAt = time.Now()
}

// AddSegment appends a segment reference and makes it the active segment.
func (m *Manifest) AddSegment(ref SegmentRef) {
	m.ActiveSegment = ref.ID
	m.Segments = append(m.Segments, ref)
	m.UpdatedAt = time.Now()
}

// SegmentVectorCount sums vector_count across all segments.
func (m *Manifest) SegmentVectorCount() int {
	total := 0
	for _, s := range m.Segments {
		total += s.VectorCount
	}
	return total
}

func (m *Manifest) marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, zerr.Serialization(err)
	}
	return data, nil
}

func unmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.Serialization(err)
	}
	return &m, nil
}

// ReadManifest reads a namespace's manifest, returning a fresh empty
// manifest (not an error) if none has been written yet.
func ReadManifest(ctx context.Context, store objectstore.Store, namespace string) (*Manifest, error) {
	data, err := store.Get(ctx, ManifestKey(namespace))
	if err != nil {
		if zerr.Is(err, zerr.KindNotFound) {
			return NewManifest(), nil
		}
		return nil, err
	}
	return unmarshalManifest(data)
}

// WriteManifest persists a namespace's manifest.
func WriteManifest(ctx context.Context, store objectstore.Store, namespace string, m *Manifest) error {
	data, err := m.marshal()
	if err != nil {
		return err
	}
	return store.Put(ctx, ManifestKey(namespace), data)
}
