// Package onnx lets Go test suites read and check the Conv fixtures written by convgen.
//
// It exposes the parser, the structural checker and a model summary on top
// of the internal ONNX layer. Only the message types are re-exported; the
// builders stay internal.
//
// # Example Usage
//
//	model, err := onnx.ParseFile("conv_test.onnx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := onnx.Check(model); err != nil {
//	    log.Fatal(err)
//	}
//	w, _ := model.Initializer("W").Float32s()
//
// # Supported Operators
//
// The checker knows the schemas returned by [ListSupportedOps]. Models using
// any other operator fail with [ErrSchema].
package onnx

import (
	internalonnx "github.com/hipdnn-ep/convgen/internal/onnx"
)

// Validation error kinds. Use errors.Is against these.
var (
	ErrInvalidModel       = internalonnx.ErrInvalidModel
	ErrUnsupportedVersion = internalonnx.ErrUnsupportedVersion
	ErrDuplicateName      = internalonnx.ErrDuplicateName
	ErrUndefinedName      = internalonnx.ErrUndefinedName
	ErrInvalidTensor      = internalonnx.ErrInvalidTensor
	ErrInvalidAttribute   = internalonnx.ErrInvalidAttribute
	ErrSchema             = internalonnx.ErrSchema
	ErrShapeInference     = internalonnx.ErrShapeInference
	ErrMalformed          = internalonnx.ErrMalformed
)

// ValidationError is the detailed error returned by Check.
type ValidationError = internalonnx.ValidationError

// CheckOptions configures Check.
type CheckOptions = internalonnx.CheckOptions

// DefaultCheckOptions runs every check against the built-in schemas.
func DefaultCheckOptions() CheckOptions {
	return internalonnx.DefaultCheckOptions()
}

// ParseFile reads and decodes an ONNX model file.
func ParseFile(path string) (*ModelProto, error) {
	return internalonnx.ParseFile(path)
}

// Parse decodes an ONNX model from its protobuf encoding.
func Parse(data []byte) (*ModelProto, error) {
	return internalonnx.Parse(data)
}

// Marshal encodes a model in the protobuf wire format.
func Marshal(m *ModelProto) ([]byte, error) {
	return internalonnx.Marshal(m)
}

// Check validates the model structure, operator schemas and inferred shapes.
//
// Example:
//
//	var ve *onnx.ValidationError
//	if err := onnx.Check(model); errors.As(err, &ve) {
//	    fmt.Println(ve.Node, ve.Details)
//	}
func Check(m *ModelProto, opts ...CheckOptions) error {
	return internalonnx.Check(m, opts...)
}

// ModelInfo contains basic information about an ONNX model.
type ModelInfo = internalonnx.ModelInfo

// GetModelInfo extracts basic info from an ONNX file without checking it.
func GetModelInfo(path string) (*ModelInfo, error) {
	return internalonnx.GetModelInfo(path)
}

// InfoOf summarises an already decoded model.
func InfoOf(m *ModelProto) *ModelInfo {
	return internalonnx.InfoOf(m)
}

// ListSupportedOps returns the operator types the checker has schemas for.
func ListSupportedOps() []string {
	return internalonnx.ListSupportedOps()
}

// ConvOutputDim is the spatial output size of a convolution:
// floor((in + padBegin + padEnd - kernel) / stride) + 1.
func ConvOutputDim(in, kernel, padBegin, padEnd, stride int64) int64 {
	return internalonnx.ConvOutputDim(in, kernel, padBegin, padEnd, stride)
}
