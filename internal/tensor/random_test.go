package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandnSeeded(t *testing.T) {
	seed := uint64(42)
	a := Randn(64, NewRand(&seed))
	b := Randn(64, NewRand(&seed))
	require.Len(t, a, 64)
	assert.Equal(t, a, b, "same seed must give the same samples")

	other := uint64(43)
	assert.NotEqual(t, a, Randn(64, NewRand(&other)))
}

func TestRandnUnseededDiffers(t *testing.T) {
	a := Randn(32, NewRand(nil))
	b := Randn(32, NewRand(nil))
	assert.NotEqual(t, a, b)
}

func TestRandnDistribution(t *testing.T) {
	seed := uint64(7)
	const n = 20000
	data := Randn(n, NewRand(&seed))

	var sum, sumSq float64
	for _, v := range data {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, variance, 0.05)
}

func TestRandnEmpty(t *testing.T) {
	assert.Empty(t, Randn(0, NewRand(nil)))
}
