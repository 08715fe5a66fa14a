package pipeline

import (
	"testing"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/bitutil"
	"github.com/qrscan/qrscan/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopLeft(t *testing.T) {
	points := []internal.ResultPoint{
		{X: 50, Y: 10},
		{X: 5, Y: 10},
		{X: 100, Y: 1},
	}
	x, y := topLeft(points)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 1.0, y)
}

func TestTopLeft_Empty(t *testing.T) {
	x, y := topLeft(nil)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)
}

func TestDecodeAll_AllFail_ReturnsErrNotFound(t *testing.T) {
	// A bit matrix with an unsupported dimension fails at parser
	// construction, so every symbol's decode fails.
	bad := bitutil.NewBitMatrix(20)
	detectorResults := []*internal.DetectorResult{
		internal.NewDetectorResult(bad, []internal.ResultPoint{{X: 0, Y: 0}}),
		internal.NewDetectorResult(bad, []internal.ResultPoint{{X: 1, Y: 1}}),
	}

	results, err := DecodeAll(detectorResults, "", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, qrscan.ErrNotFound)
	assert.Nil(t, results)
}
