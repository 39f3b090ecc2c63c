package onnx

import internalonnx "github.com/hipdnn-ep/convgen/internal/onnx"

// Message types of onnx.proto, as decoded by Parse.
type (
	ModelProto       = internalonnx.ModelProto
	GraphProto       = internalonnx.GraphProto
	NodeProto        = internalonnx.NodeProto
	TensorProto      = internalonnx.TensorProto
	ValueInfoProto   = internalonnx.ValueInfoProto
	TypeProto        = internalonnx.TypeProto
	TensorTypeProto  = internalonnx.TensorTypeProto
	TensorShapeProto = internalonnx.TensorShapeProto
	DimensionProto   = internalonnx.DimensionProto
	AttributeProto   = internalonnx.AttributeProto
	OperatorSetID    = internalonnx.OperatorSetID
)

// Element types used by fixtures.
const (
	TensorProtoFloat  = internalonnx.TensorProtoFloat
	TensorProtoDouble = internalonnx.TensorProtoDouble
)
