package ivf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/launix-de/zeppelin/internal/types"
)

func sqTrainingSet() [][]float32 {
	rng := rand.New(rand.NewSource(1))
	vectors := make([][]float32, 200)
	for i := range vectors {
		vectors[i] = []float32{
			rng.Float32()*10 - 5,
			rng.Float32()*2 + 3,
			rng.Float32() * 100,
		}
	}
	return vectors
}

func TestTrainSQ8_CalibrationSpansObservedRange(t *testing.T) {
	vectors := sqTrainingSet()
	cal := TrainSQ8(vectors)

	assert.Len(t, cal.Min, 3)
	assert.Len(t, cal.Scale, 3)
	for d := 0; d < 3; d++ {
		assert.Greater(t, cal.Scale[d], float32(0))
	}
}

func TestEncodeDecodeSQ8_RoundTripsApproximately(t *testing.T) {
	vectors := sqTrainingSet()
	cal := TrainSQ8(vectors)

	for _, v := range vectors[:10] {
		codes := EncodeSQ8(v, cal)
		decoded := DecodeSQ8(codes, cal)
		assert.Len(t, decoded, len(v))
		for d := range v {
			// quantization error should stay within one code's worth of scale
			diff := v[d] - decoded[d]
			if diff < 0 {
				diff = -diff
			}
			assert.LessOrEqual(t, diff, cal.Scale[d]+1e-3)
		}
	}
}

func TestEncodeSQ8_ClampsOutOfRangeValues(t *testing.T) {
	cal := SQ8Calibration{Min: []float32{0}, Scale: []float32{1}}
	codes := EncodeSQ8([]float32{-100}, cal)
	assert.Equal(t, byte(0), codes[0])

	codes = EncodeSQ8([]float32{1000}, cal)
	assert.Equal(t, byte(255), codes[0])
}

func TestApproxDistanceSQ8_ClosePointsScoreLowerThanFarPoints(t *testing.T) {
	vectors := sqTrainingSet()
	cal := TrainSQ8(vectors)

	query := vectors[0]
	near := EncodeSQ8(vectors[0], cal)
	far := EncodeSQ8([]float32{-5, 5, 100}, cal)

	dNear := ApproxDistanceSQ8(types.Euclidean, query, near, cal)
	dFar := ApproxDistanceSQ8(types.Euclidean, query, far, cal)
	assert.Less(t, dNear, dFar)
}
