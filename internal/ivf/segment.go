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

package ivf

import (
	"context"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
)

// LoadSegmentVectors reconstructs every full-precision vector stored in a
// segment, by reading centroids to discover the cluster count and then
// every cluster_i.bin/attrs_i.bin pair. Used by compaction to carry
// forward the active segment's vectors into the next one.
func LoadSegmentVectors(ctx context.Context, store objectstore.Store, namespace, segmentID string) ([]types.VectorEntry, error) {
	data, err := store.Get(ctx, centroidsKey(namespace, segmentID))
	if err != nil {
		return nil, err
	}
	var cArt centroidsArtifact
	if err := decodeArtifact(data, &cArt); err != nil {
		return nil, err
	}

	var out []types.VectorEntry
	for i := range cArt.Centroids {
		key := clusterKey(namespace, segmentID, i)
		exists, err := store.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		cdata, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		var cluster clusterArtifact
		if err := decodeArtifact(cdata, &cluster); err != nil {
			return nil, err
		}

		var attrs attrsArtifact
		adata, err := store.Get(ctx, attrsKey(namespace, segmentID, i))
		if err == nil {
			if err := decodeArtifact(adata, &attrs); err != nil {
				return nil, err
			}
		}

		for j, id := range cluster.IDs {
			entry := types.VectorEntry{ID: id, Values: cluster.Values[j]}
			if j < len(attrs.Records) {
				entry.Attributes = attrs.Records[j]
			}
			out = append(out, entry)
		}
	}
	return out, nil
}
