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
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/launix-de/zeppelin/internal/types"
	"github.com/launix-de/zeppelin/internal/zerr"
)

// Segment artifact payloads, one struct per file named in spec.md's
// object-store layout. gob provides the self-describing binary codec (no
// protobuf/flatbuffers is grounded anywhere in the corpus); lz4 compresses
// the encoded bytes, since cluster and code files are the bulk of a
// segment's footprint.

type centroidsArtifact struct {
	Centroids [][]float32
}

type clusterArtifact struct {
	IDs    []string
	Values [][]float32
}

type attrsArtifact struct {
	Records []map[string]types.AttributeValue
}

type sqCalibrationArtifact struct {
	Min   []float32
	Scale []float32
}

type sqClusterArtifact struct {
	IDs   []string
	Codes [][]byte
}

type pqCodebookArtifact struct {
	M         int
	SubDim    int
	Centroids [][][]float32 // [subquantizer][code][subDim]
}

type pqClusterArtifact struct {
	IDs   []string
	Codes [][]byte // len(Codes[i]) == M
}

func encodeArtifact(v interface{}) ([]byte, error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(v); err != nil {
		return nil, zerr.Serialization(fmt.Errorf("encoding artifact: %w", err))
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, zerr.Serialization(fmt.Errorf("compressing artifact: %w", err))
	}
	if err := zw.Close(); err != nil {
		return nil, zerr.Serialization(fmt.Errorf("closing artifact compressor: %w", err))
	}
	return compressed.Bytes(), nil
}

func decodeArtifact(data []byte, v interface{}) error {
	zr := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return zerr.Serialization(fmt.Errorf("decompressing artifact: %w", err))
	}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(v); err != nil {
		return zerr.Serialization(fmt.Errorf("decoding artifact: %w", err))
	}
	return nil
}

func centroidsKey(namespace, segmentID string) string {
	return fmt.Sprintf("%s/segments/%s/centroids.bin", namespace, segmentID)
}

func clusterKey(namespace, segmentID string, i int) string {
	return fmt.Sprintf("%s/segments/%s/cluster_%d.bin", namespace, segmentID, i)
}

func attrsKey(namespace, segmentID string, i int) string {
	return fmt.Sprintf("%s/segments/%s/attrs_%d.bin", namespace, segmentID, i)
}

func sqCalibrationKey(namespace, segmentID string) string {
	return fmt.Sprintf("%s/segments/%s/sq_calibration.bin", namespace, segmentID)
}

func sqClusterKey(namespace, segmentID string, i int) string {
	return fmt.Sprintf("%s/segments/%s/sq_cluster_%d.bin", namespace, segmentID, i)
}

func pqCodebookKey(namespace, segmentID string) string {
	return fmt.Sprintf("%s/segments/%s/pq_codebook.bin", namespace, segmentID)
}

func pqClusterKey(namespace, segmentID string, i int) string {
	return fmt.Sprintf("%s/segments/%s/pq_cluster_%d.bin", namespace, segmentID, i)
}
