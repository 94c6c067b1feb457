package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd(t *testing.T) {
	t.Run("sample standard deviation", func(t *testing.T) {
		mean, std, ok := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		require.True(t, ok)
		assert.Equal(t, 5.0, mean)
		assert.InDelta(t, math.Sqrt(32.0/7.0), std, 1e-12)
	})

	t.Run("missing values are excluded", func(t *testing.T) {
		mean, _, ok := meanStd([]float64{1, math.NaN(), 3})
		require.True(t, ok)
		assert.Equal(t, 2.0, mean)
	})

	t.Run("fewer than two clean values has no baseline", func(t *testing.T) {
		_, _, ok := meanStd([]float64{5, math.NaN()})
		assert.False(t, ok)
	})
}

func TestPairwise(t *testing.T) {
	nan := math.NaN()
	px, py := pairwise([]float64{1, nan, 3, 4}, []float64{10, 20, nan, 40})
	assert.Equal(t, []float64{1, 4}, px)
	assert.Equal(t, []float64{10, 40}, py)
}

func TestPearson(t *testing.T) {
	t.Run("perfect positive correlation", func(t *testing.T) {
		r, p, ok := pearson([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
		require.True(t, ok)
		assert.InDelta(t, 1.0, r, 1e-12)
		assert.InDelta(t, 0.0, p, 1e-9)
	})

	t.Run("perfect negative correlation", func(t *testing.T) {
		r, p, ok := pearson([]float64{1, 2, 3}, []float64{9, 6, 3})
		require.True(t, ok)
		assert.InDelta(t, -1.0, r, 1e-12)
		assert.InDelta(t, 0.0, p, 1e-9)
	})

	t.Run("known noisy sample", func(t *testing.T) {
		// scipy.stats.pearsonr([1,2,3],[1,2,2]) == (0.8660, 0.3333)
		r, p, ok := pearson([]float64{1, 2, 3}, []float64{1, 2, 2})
		require.True(t, ok)
		assert.InDelta(t, math.Sqrt(3)/2, r, 1e-9)
		assert.InDelta(t, 1.0/3.0, p, 1e-9)
	})

	t.Run("fewer than three points", func(t *testing.T) {
		_, _, ok := pearson([]float64{1, 2}, []float64{3, 4})
		assert.False(t, ok)
	})

	t.Run("constant series has no correlation", func(t *testing.T) {
		_, _, ok := pearson([]float64{5, 5, 5}, []float64{1, 2, 3})
		assert.False(t, ok)
	})
}
