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
	"math/rand"

	"github.com/launix-de/zeppelin/internal/types"
)

const pqCodesPerSubquantizer = 256

// PQCodebook holds m independently trained sub-quantizers, each with 256
// centroids over a d/m-dimensional subspace.
type PQCodebook struct {
	M         int
	SubDim    int
	Centroids [][][]float32 // [subquantizer][code 0..255][subDim]
}

// TrainPQ splits each training vector into m subspaces and runs an
// independent k-means (256 centroids) per subspace.
func TrainPQ(vectors [][]float32, m int, rng *rand.Rand) PQCodebook {
	dim := len(vectors[0])
	subDim := dim / m
	cb := PQCodebook{M: m, SubDim: subDim, Centroids: make([][][]float32, m)}

	for s := 0; s < m; s++ {
		sub := make([][]float32, len(vectors))
		for i, v := range vectors {
			sub[i] = v[s*subDim : (s+1)*subDim]
		}
		k := pqCodesPerSubquantizer
		if k > len(sub) {
			k = len(sub)
		}
		res := RunKMeans(sub, k, 25, 1e-5, rng)
		// pad to 256 codes by repeating the last centroid so encoding
		// always has exactly pqCodesPerSubquantizer entries to index into
		centroids := res.Centroids
		for len(centroids) < pqCodesPerSubquantizer {
			centroids = append(centroids, cloneVector(centroids[len(centroids)-1]))
		}
		cb.Centroids[s] = centroids
	}
	return cb
}

// EncodePQ maps a full-precision vector to m byte codes, one nearest
// sub-centroid index per subspace.
func EncodePQ(v []float32, cb PQCodebook) []byte {
	codes := make([]byte, cb.M)
	for s := 0; s < cb.M; s++ {
		sub := v[s*cb.SubDim : (s+1)*cb.SubDim]
		codes[s] = byte(nearestCentroid(sub, cb.Centroids[s]))
	}
	return codes
}

// PQLookupTable is a per-query ADC table: table[s][c] is the partial
// distance between the query's s-th subvector and sub-centroid c.
type PQLookupTable [][]float32

// BuildPQLookupTable precomputes, for every subspace and every one of its
// 256 sub-centroids, the partial distance to the query's corresponding
// subvector.
func BuildPQLookupTable(query []float32, cb PQCodebook, metric types.DistanceMetric) PQLookupTable {
	table := make(PQLookupTable, cb.M)
	for s := 0; s < cb.M; s++ {
		sub := query[s*cb.SubDim : (s+1)*cb.SubDim]
		table[s] = make([]float32, len(cb.Centroids[s]))
		for c, centroid := range cb.Centroids[s] {
			table[s][c] = Distance(metric, sub, centroid)
		}
	}
	return table
}

// ApproxDistancePQ sums the table's per-subspace partial distances for a
// database vector's codes.
func ApproxDistancePQ(codes []byte, table PQLookupTable) float32 {
	var sum float32
	for s, c := range codes {
		sum += table[s][c]
	}
	return sum
}
