// Package tensor provides the shape and element type vocabulary shared by the
// ONNX model builder and the NumPy array writer.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors. Fixtures only carry float32 weights.
const (
	Float32 DataType = iota
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	default:
		return "unknown"
	}
}

// NumpyDescr returns the little-endian NumPy dtype descriptor, "<f4" for Float32.
func (dt DataType) NumpyDescr() string {
	switch dt {
	case Float32:
		return "<f4"
	default:
		return ""
	}
}

// ONNX returns the ONNX TensorProto.DataType code for dt.
func (dt DataType) ONNX() int32 {
	switch dt {
	case Float32:
		return 1
	default:
		return 0
	}
}
