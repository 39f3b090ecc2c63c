package tensor

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElementsChecked returns the element count (1 for a scalar), failing on
// a negative dimension or when the product does not fit in an int.
func (s Shape) NumElementsChecked() (int, error) {
	n := uint64(1)
	for i, dim := range s {
		if dim < 0 {
			return 0, errors.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
		hi, lo := bits.Mul64(n, uint64(dim))
		if hi != 0 || lo > math.MaxInt {
			return 0, errors.Errorf("shape %s has more than %d elements", s, math.MaxInt)
		}
		n = lo
	}
	return int(n), nil
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Int64s converts the shape to the int64 dims used by ONNX messages.
func (s Shape) Int64s() []int64 {
	dims := make([]int64, len(s))
	for i, d := range s {
		dims[i] = int64(d)
	}
	return dims
}

// FromInt64s builds a Shape from ONNX dims.
func FromInt64s(dims []int64) Shape {
	s := make(Shape, len(dims))
	for i, d := range dims {
		s[i] = int(d)
	}
	return s
}

// String renders the shape the way the fixture console output prints it, e.g. "[1, 1, 8, 8]".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
