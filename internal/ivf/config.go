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

import "github.com/launix-de/zeppelin/internal/types"

// IndexingConfig carries the indexing.* configuration knobs of spec.md §6.
type IndexingConfig struct {
	DefaultNumCentroids      int
	KMeansMaxIterations      int
	KMeansConvergenceEpsilon float64
	SampleSize               int
	DefaultNProbe            int
	MaxNProbe                int
	OversampleFactor         int
	Quantization             types.Quantization
	PQSubquantizers          int
}

// DefaultIndexingConfig mirrors the teacher's convention of a sane
// zero-config default, tuned for a few hundred thousand vectors.
func DefaultIndexingConfig() IndexingConfig {
	return IndexingConfig{
		DefaultNumCentroids:      256,
		KMeansMaxIterations:      25,
		KMeansConvergenceEpsilon: 1e-4,
		SampleSize:               100_000,
		DefaultNProbe:            8,
		MaxNProbe:                64,
		OversampleFactor:         4,
		Quantization:             types.QuantizationNone,
		PQSubquantizers:          8,
	}
}
