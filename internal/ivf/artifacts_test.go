package ivf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launix-de/zeppelin/internal/types"
)

func TestEncodeDecodeArtifact_Centroids(t *testing.T) {
	want := centroidsArtifact{Centroids: [][]float32{{1, 2, 3}, {4, 5, 6}}}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got centroidsArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_Cluster(t *testing.T) {
	want := clusterArtifact{
		IDs:    []string{"a", "b"},
		Values: [][]float32{{1, 2}, {3, 4}},
	}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got clusterArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_Attrs(t *testing.T) {
	want := attrsArtifact{Records: []map[string]types.AttributeValue{
		{"color": types.StringAttr("red")},
		{"price": types.FloatAttr(9.5)},
	}}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got attrsArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_SQCalibration(t *testing.T) {
	want := sqCalibrationArtifact{Min: []float32{-1, -2}, Scale: []float32{0.1, 0.2}}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got sqCalibrationArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_SQCluster(t *testing.T) {
	want := sqClusterArtifact{IDs: []string{"a"}, Codes: [][]byte{{1, 2, 3}}}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got sqClusterArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_PQCodebook(t *testing.T) {
	want := pqCodebookArtifact{
		M:      2,
		SubDim: 3,
		Centroids: [][][]float32{
			{{1, 2, 3}, {4, 5, 6}},
			{{7, 8, 9}, {10, 11, 12}},
		},
	}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got pqCodebookArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestEncodeDecodeArtifact_PQCluster(t *testing.T) {
	want := pqClusterArtifact{IDs: []string{"a", "b"}, Codes: [][]byte{{1, 2}, {3, 4}}}
	data, err := encodeArtifact(want)
	require.NoError(t, err)

	var got pqClusterArtifact
	require.NoError(t, decodeArtifact(data, &got))
	assert.Equal(t, want, got)
}

func TestDecodeArtifact_RejectsGarbage(t *testing.T) {
	var got centroidsArtifact
	err := decodeArtifact([]byte("not a valid lz4 stream at all"), &got)
	assert.Error(t, err)
}

func TestArtifactKeys_MatchObjectStoreLayout(t *testing.T) {
	assert.Equal(t, "ns/segments/seg/centroids.bin", centroidsKey("ns", "seg"))
	assert.Equal(t, "ns/segments/seg/cluster_3.bin", clusterKey("ns", "seg", 3))
	assert.Equal(t, "ns/segments/seg/attrs_3.bin", attrsKey("ns", "seg", 3))
	assert.Equal(t, "ns/segments/seg/sq_calibration.bin", sqCalibrationKey("ns", "seg"))
	assert.Equal(t, "ns/segments/seg/sq_cluster_3.bin", sqClusterKey("ns", "seg", 3))
	assert.Equal(t, "ns/segments/seg/pq_codebook.bin", pqCodebookKey("ns", "seg"))
	assert.Equal(t, "ns/segments/seg/pq_cluster_3.bin", pqClusterKey("ns", "seg", 3))
}
