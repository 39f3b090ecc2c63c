package onnx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestConvOutputDim(t *testing.T) {
	tests := []struct {
		name                     string
		in, k, pb, pe, stride    int
		want                     int
	}{
		{"same padding 3x3", 8, 3, 1, 1, 1, 8},
		{"valid stride 2 height", 10, 3, 0, 0, 2, 4},
		{"valid stride 2 width", 6, 3, 0, 0, 2, 2},
		{"kernel equals input", 5, 5, 0, 0, 1, 1},
		{"kernel larger than input", 4, 5, 0, 0, 1, 0},
		{"negative numerator floors", 4, 5, 0, 0, 2, 0},
		{"far too large kernel", 2, 5, 0, 0, 1, -2},
		{"asymmetric pads", 7, 3, 0, 2, 2, 4},
		{"zero stride", 8, 3, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvOutputDim(tt.in, tt.k, tt.pb, tt.pe, tt.stride))
		})
	}
}

func TestConvOutputDimDilated(t *testing.T) {
	// Effective kernel (3-1)*2+1 = 5.
	assert.Equal(t, int64(4), ConvOutputDimDilated[int64](8, 3, 0, 0, 1, 2))
	assert.Equal(t, ConvOutputDim[int64](8, 3, 1, 1, 1), ConvOutputDimDilated[int64](8, 3, 1, 1, 1, 1))
}

func TestSameOutputDim(t *testing.T) {
	assert.Equal(t, 4, sameOutputDim(8, 2))
	assert.Equal(t, 5, sameOutputDim(9, 2))
	assert.Equal(t, 9, sameOutputDim(9, 1))
	assert.Equal(t, 0, sameOutputDim(9, 0))
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 3, floorDiv(7, 2))
	assert.Equal(t, -4, floorDiv(-7, 2))
	assert.Equal(t, -4, floorDiv(7, -2))
	assert.Equal(t, 3, floorDiv(-7, -2))
	assert.Equal(t, -1, floorDiv(-2, 2))
}

// The output size law must agree with real-valued floor for any input.
func TestConvOutputDimMatchesFloorLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.IntRange(-64, 512).Draw(t, "in")
		k := rapid.IntRange(1, 32).Draw(t, "kernel")
		pad := rapid.IntRange(0, 16).Draw(t, "pad")
		stride := rapid.IntRange(1, 8).Draw(t, "stride")

		want := int(math.Floor(float64(in+2*pad-k)/float64(stride))) + 1
		if got := ConvOutputDim(in, k, pad, pad, stride); got != want {
			t.Fatalf("ConvOutputDim(%d, %d, %d, %d, %d) = %d, want %d", in, k, pad, pad, stride, got, want)
		}
	})
}
