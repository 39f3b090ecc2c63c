// Package onnx builds, encodes, parses and validates ONNX models.
//
// ONNX (Open Neural Network Exchange) models are protobuf messages. This
// package keeps hand-written Go structs for the messages it needs and
// encodes/decodes them with the protobuf wire primitives from
// google.golang.org/protobuf/encoding/protowire, so no generated code is
// required.
//
// Key components:
//   - ModelProto, GraphProto, NodeProto, TensorProto, ValueInfoProto: message structs
//   - MakeNode, MakeTensor, MakeTensorValueInfo, MakeGraph, MakeModel: builders
//   - Marshal, WriteFile, Parse, ParseFile: wire encoding
//   - Registry, OpSchema: operator schemas per opset version
//   - Check: structural checker with Conv shape inference
//
// Example usage:
//
//	x := onnx.MakeTensorValueInfo("X", onnx.TensorProtoFloat, []int64{1, 1, 8, 8})
//	w := onnx.MakeTensor("W", onnx.TensorProtoFloat, []int64{1, 1, 3, 3}, weights)
//	y := onnx.MakeTensorValueInfo("Y", onnx.TensorProtoFloat, []int64{1, 1, 8, 8})
//	node := onnx.MakeNode("Conv", []string{"X", "W"}, []string{"Y"},
//	    onnx.AttrInts("kernel_shape", 3, 3),
//	    onnx.AttrInts("pads", 1, 1, 1, 1),
//	    onnx.AttrInts("strides", 1, 1))
//	graph := onnx.MakeGraph([]onnx.NodeProto{node}, "conv_test",
//	    []onnx.ValueInfoProto{x}, []onnx.ValueInfoProto{y}, []onnx.TensorProto{w})
//	model := onnx.MakeModel(graph, onnx.MakeOpsetID("", 13))
//	model.IRVersion = 8
//
//	if err := onnx.Check(model); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := onnx.WriteFile("conv_test.onnx", model); err != nil {
//	    log.Fatal(err)
//	}
package onnx
