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
	"math"
	"math/rand"

	"github.com/launix-de/zeppelin/internal/zlog"
)

// KMeansResult is the outcome of training: the final centroids and, for
// every training vector (in input order), the index of its assigned
// centroid.
type KMeansResult struct {
	Centroids  [][]float32
	Assignment []int
	Converged  bool
}

// RunKMeans clusters vectors into k groups via k-means++ seeding followed
// by Lloyd iterations. Convergence failure (max iterations exhausted
// without the displacement threshold being met) is reported via
// Converged=false rather than an error: the caller still gets usable
// centroids.
func RunKMeans(vectors [][]float32, k int, maxIterations int, convergenceEpsilon float64, rng *rand.Rand) *KMeansResult {
	n := len(vectors)
	if k > n {
		k = n
	}
	if k <= 0 {
		return &KMeansResult{Converged: true}
	}

	centroids := seedPlusPlus(vectors, k, rng)
	assignment := make([]int, n)
	converged := false

	for iter := 0; iter < maxIterations; iter++ {
		for i, v := range vectors {
			assignment[i] = nearestCentroid(v, centroids)
		}

		newCentroids, counts := recomputeCentroids(vectors, assignment, len(centroids[0]), k)
		reseedEmptyClusters(vectors, assignment, newCentroids, counts, rng)

		displacement := totalDisplacement(centroids, newCentroids)
		centroids = newCentroids

		if displacement < convergenceEpsilon {
			converged = true
			break
		}
	}

	// final assignment pass against the converged (or last) centroids
	for i, v := range vectors {
		assignment[i] = nearestCentroid(v, centroids)
	}

	return &KMeansResult{Centroids: centroids, Assignment: assignment, Converged: converged}
}

func seedPlusPlus(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, cloneVector(vectors[rng.Intn(n)]))

	distSq := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			d := float64(squaredL2(v, centroids[len(centroids)-1]))
			if len(centroids) == 1 || d < distSq[i] {
				distSq[i] = d
			}
			total += distSq[i]
		}
		if total == 0 {
			// all remaining points coincide with an existing centroid;
			// fall back to uniform pick to keep making progress
			centroids = append(centroids, cloneVector(vectors[rng.Intn(n)]))
			continue
		}
		target := rng.Float64() * total
		var cum float64
		chosen := n - 1
		for i, d := range distSq {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVector(vectors[chosen]))
	}
	return centroids
}

func nearestCentroid(v []float32, centroids [][]float32) int {
	best := 0
	bestDist := squaredL2(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := squaredL2(v, centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func recomputeCentroids(vectors [][]float32, assignment []int, dim, k int) ([][]float32, []int) {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float64, dim)
	}
	for i, v := range vectors {
		c := assignment[i]
		counts[c]++
		for d := 0; d < dim; d++ {
			sums[c][d] += float64(v[d])
		}
	}
	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		centroids[c] = make([]float32, dim)
		if counts[c] == 0 {
			continue // reseeded by reseedEmptyClusters
		}
		for d := 0; d < dim; d++ {
			centroids[c][d] = float32(sums[c][d] / float64(counts[c]))
		}
	}
	return centroids, counts
}

// reseedEmptyClusters replaces any centroid with zero members with the
// training point currently farthest from its own assigned centroid,
// guaranteeing k non-degenerate clusters as long as there are at least k
// distinct points.
func reseedEmptyClusters(vectors [][]float32, assignment []int, centroids [][]float32, counts []int, rng *rand.Rand) {
	for c, n := range counts {
		if n > 0 {
			continue
		}
		farthestIdx, farthestDist := -1, float32(-1)
		for i, v := range vectors {
			d := squaredL2(v, centroids[assignment[i]])
			if d > farthestDist {
				farthestDist = d
				farthestIdx = i
			}
		}
		if farthestIdx < 0 {
			farthestIdx = rng.Intn(len(vectors))
		}
		centroids[c] = cloneVector(vectors[farthestIdx])
		assignment[farthestIdx] = c
	}
}

func totalDisplacement(old, updated [][]float32) float64 {
	var total float64
	for i := range old {
		total += float64(squaredL2(old[i], updated[i]))
	}
	return math.Sqrt(total)
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// warnNotConverged is called by the builder, not here, so that the
// namespace/segment fields are available on the logger.
func warnNotConverged(namespace, segmentID string, iterations int) {
	zlog.WithSegment(zlog.WithNamespace("ivf_builder", namespace), segmentID).
		Warn().Int("max_iterations", iterations).Msg("k-means did not converge within the iteration budget")
}
