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

// Package ivf implements the flat inverted-file ANN index: k-means
// clustering, optional scalar/product quantization, and the two-phase
// search that probes a handful of clusters instead of the whole segment.
package ivf

import (
	"gonum.org/v1/gonum/floats"

	"github.com/launix-de/zeppelin/internal/types"
)

// Distance scores b against a under metric, smaller-is-better throughout:
// cosine is 1-cosθ, euclidean is squared L2 (monotonic with L2, skips the
// square root), dot product is negated to keep the same ordering sense.
func Distance(metric types.DistanceMetric, a, b []float32) float32 {
	switch metric {
	case types.Euclidean:
		return squaredL2(a, b)
	case types.DotProduct:
		return -dot(a, b)
	default:
		return cosineDistance(a, b)
	}
}

func dot(a, b []float32) float32 {
	af := make([]float64, len(a))
	bf := make([]float64, len(b))
	for i := range a {
		af[i] = float64(a[i])
		bf[i] = float64(b[i])
	}
	return float32(floats.Dot(af, bf))
}

func norm(a []float32) float32 {
	af := make([]float64, len(a))
	for i := range a {
		af[i] = float64(a[i])
	}
	return float32(floats.Norm(af, 2))
}

func cosineDistance(a, b []float32) float32 {
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot(a, b)/(na*nb)
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
