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
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/launix-de/zeppelin/internal/objectstore"
	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/wal"
	"github.com/launix-de/zeppelin/internal/zlog"
)

// BuildResult is everything a compaction needs to record in the manifest
// after a successful build.
type BuildResult struct {
	SegmentRef wal.SegmentRef
}

// seedFor derives a deterministic RNG seed from (namespace, segment id) so
// rebuilds of the same inputs are reproducible.
func seedFor(namespace, segmentID string) int64 {
	return int64(xxhash.Sum64String(namespace + "/" + segmentID))
}

// Build trains an IVF index over vectors and persists its artifacts under
// {namespace}/segments/{segmentID}/. It samples up to cfg.SampleSize
// vectors for training, assigns the full dataset to the trained centroids,
// and applies the configured quantization on top of the clustering.
func Build(ctx context.Context, store objectstore.Store, namespace, segmentID string, vectors []types.VectorEntry, cfg IndexingConfig, metric types.DistanceMetric) (*BuildResult, error) {
	log := zlog.WithSegment(zlog.WithNamespace("ivf_builder", namespace), segmentID)

	if len(vectors) == 0 {
		if err := putArtifact(ctx, store, centroidsKey(namespace, segmentID), centroidsArtifact{}); err != nil {
			return nil, err
		}
		return &BuildResult{SegmentRef: wal.SegmentRef{ID: segmentID, Quantization: cfg.Quantization}}, nil
	}

	dim := len(vectors[0].Values)
	rng := rand.New(rand.NewSource(seedFor(namespace, segmentID)))

	values := make([][]float32, len(vectors))
	for i, v := range vectors {
		values[i] = v.Values
	}

	sample := sampleVectors(values, cfg.SampleSize, rng)
	k := cfg.DefaultNumCentroids
	if k > len(sample) {
		k = len(sample)
	}

	result := RunKMeans(sample, k, cfg.KMeansMaxIterations, cfg.KMeansConvergenceEpsilon, rng)
	if !result.Converged {
		warnNotConverged(namespace, segmentID, cfg.KMeansMaxIterations)
	}

	// full-dataset assignment: every vector, not just the sample
	assignment := make([]int, len(vectors))
	for i, v := range values {
		assignment[i] = nearestCentroid(v, result.Centroids)
	}

	clusters := make([][]int, len(result.Centroids))
	for i, c := range assignment {
		clusters[c] = append(clusters[c], i)
	}

	if err := putArtifact(ctx, store, centroidsKey(namespace, segmentID), centroidsArtifact{Centroids: result.Centroids}); err != nil {
		return nil, err
	}

	nonEmptyClusters := 0
	var sq SQ8Calibration
	if cfg.Quantization == types.QuantizationScalar {
		sq = TrainSQ8(values)
		if err := putArtifact(ctx, store, sqCalibrationKey(namespace, segmentID), sqCalibrationArtifact{Min: sq.Min, Scale: sq.Scale}); err != nil {
			return nil, err
		}
	}
	var pq PQCodebook
	if cfg.Quantization == types.QuantizationPQ {
		m := cfg.PQSubquantizers
		if dim%m != 0 {
			m = gcdSubquantizers(dim, m)
		}
		pq = TrainPQ(sample, m, rng)
		if err := putArtifact(ctx, store, pqCodebookKey(namespace, segmentID), pqCodebookArtifact{M: pq.M, SubDim: pq.SubDim, Centroids: pq.Centroids}); err != nil {
			return nil, err
		}
	}

	for i, members := range clusters {
		if len(members) == 0 {
			continue
		}
		nonEmptyClusters++

		ids := make([]string, len(members))
		vals := make([][]float32, len(members))
		attrs := make([]map[string]types.AttributeValue, len(members))
		for j, idx := range members {
			ids[j] = vectors[idx].ID
			vals[j] = vectors[idx].Values
			attrs[j] = vectors[idx].Attributes
		}

		if err := putArtifact(ctx, store, clusterKey(namespace, segmentID, i), clusterArtifact{IDs: ids, Values: vals}); err != nil {
			return nil, err
		}
		if err := putArtifact(ctx, store, attrsKey(namespace, segmentID, i), attrsArtifact{Records: attrs}); err != nil {
			return nil, err
		}

		if cfg.Quantization == types.QuantizationScalar {
			codes := make([][]byte, len(members))
			for j := range members {
				codes[j] = EncodeSQ8(vals[j], sq)
			}
			if err := putArtifact(ctx, store, sqClusterKey(namespace, segmentID, i), sqClusterArtifact{IDs: ids, Codes: codes}); err != nil {
				return nil, err
			}
		}
		if cfg.Quantization == types.QuantizationPQ {
			codes := make([][]byte, len(members))
			for j := range members {
				codes[j] = EncodePQ(vals[j], pq)
			}
			if err := putArtifact(ctx, store, pqClusterKey(namespace, segmentID, i), pqClusterArtifact{IDs: ids, Codes: codes}); err != nil {
				return nil, err
			}
		}
	}

	log.Info().Int("vectors", len(vectors)).Int("clusters", nonEmptyClusters).Bool("converged", result.Converged).Msg("built IVF segment")

	return &BuildResult{SegmentRef: wal.SegmentRef{
		ID:           segmentID,
		VectorCount:  len(vectors),
		ClusterCount: nonEmptyClusters,
		Quantization: cfg.Quantization,
	}}, nil
}

func sampleVectors(values [][]float32, sampleSize int, rng *rand.Rand) [][]float32 {
	if sampleSize <= 0 || len(values) <= sampleSize {
		return values
	}
	perm := rng.Perm(len(values))[:sampleSize]
	sample := make([][]float32, sampleSize)
	for i, idx := range perm {
		sample[i] = values[idx]
	}
	return sample
}

func gcdSubquantizers(dim, m int) int {
	for m > 1 {
		if dim%m == 0 {
			return m
		}
		m--
	}
	return 1
}

func putArtifact(ctx context.Context, store objectstore.Store, key string, v interface{}) error {
	data, err := encodeArtifact(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, data)
}
