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

// SQ8Calibration holds the per-dimension min/scale used to map a float32
// onto an 8-bit code and back.
type SQ8Calibration struct {
	Min   []float32
	Scale []float32
}

// TrainSQ8 computes per-dimension min and scale over the full dataset so
// that (value-min)/scale rounds to a value in [0,255].
func TrainSQ8(vectors [][]float32) SQ8Calibration {
	dim := len(vectors[0])
	min := make([]float32, dim)
	max := make([]float32, dim)
	for d := 0; d < dim; d++ {
		min[d] = vectors[0][d]
		max[d] = vectors[0][d]
	}
	for _, v := range vectors {
		for d := 0; d < dim; d++ {
			if v[d] < min[d] {
				min[d] = v[d]
			}
			if v[d] > max[d] {
				max[d] = v[d]
			}
		}
	}
	scale := make([]float32, dim)
	for d := 0; d < dim; d++ {
		span := max[d] - min[d]
		if span == 0 {
			scale[d] = 1
		} else {
			scale[d] = span / 255
		}
	}
	return SQ8Calibration{Min: min, Scale: scale}
}

// EncodeSQ8 maps a full-precision vector to 8-bit codes under calibration.
func EncodeSQ8(v []float32, cal SQ8Calibration) []byte {
	codes := make([]byte, len(v))
	for d := range v {
		q := (v[d] - cal.Min[d]) / cal.Scale[d]
		if q < 0 {
			q = 0
		}
		if q > 255 {
			q = 255
		}
		codes[d] = byte(q + 0.5)
	}
	return codes
}

// DecodeSQ8 reconstructs an approximate full-precision vector from codes,
// used for asymmetric distance computation against a full-precision query.
func DecodeSQ8(codes []byte, cal SQ8Calibration) []float32 {
	out := make([]float32, len(codes))
	for d, c := range codes {
		out[d] = cal.Min[d] + float32(c)*cal.Scale[d]
	}
	return out
}

// ApproxDistanceSQ8 scores a query against an SQ8-coded database vector by
// dequantizing the code and running the ordinary metric.
func ApproxDistanceSQ8(metric types.DistanceMetric, query []float32, codes []byte, cal SQ8Calibration) float32 {
	return Distance(metric, query, DecodeSQ8(codes, cal))
}
