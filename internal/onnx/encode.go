package onnx

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/hipdnn-ep/convgen/internal/fsutil"
)

// Marshal encodes a model in the standard protobuf wire format of onnx.proto.
//
// Repeated scalars follow the proto2 declarations: dims and attribute
// ints/floats are unpacked, the typed data fields of TensorProto are packed.
// Zero-valued optional scalars are omitted except where ONNX requires them
// to be present (opset version, attribute type, tensor data type, dim_value).
func Marshal(m *ModelProto) ([]byte, error) {
	if m == nil {
		return nil, errors.Wrap(ErrInvalidModel, "cannot marshal nil model")
	}
	return appendModel(nil, m)
}

// WriteFile marshals m and writes it to path, replacing any existing file atomically.
// It returns the number of bytes written.
func WriteFile(path string, m *ModelProto) (int, error) {
	data, err := Marshal(m)
	if err != nil {
		return 0, err
	}
	n, err := fsutil.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	return int(n), err
}

func appendModel(b []byte, m *ModelProto) ([]byte, error) {
	if m.IRVersion != 0 {
		b = appendInt64(b, 1, m.IRVersion)
	}
	b = appendString(b, 2, m.ProducerName)
	b = appendString(b, 3, m.ProducerVersion)
	b = appendString(b, 4, m.Domain)
	if m.ModelVersion != 0 {
		b = appendInt64(b, 5, m.ModelVersion)
	}
	b = appendString(b, 6, m.DocString)
	if m.Graph != nil {
		body, err := appendGraph(nil, m.Graph)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 7, body)
	}
	for i := range m.OpsetImport {
		b = appendMessage(b, 8, appendOpsetID(nil, &m.OpsetImport[i]))
	}
	for i := range m.MetadataProps {
		b = appendMessage(b, 14, appendStringStringEntry(nil, &m.MetadataProps[i]))
	}
	return b, nil
}

func appendGraph(b []byte, g *GraphProto) ([]byte, error) {
	for i := range g.Nodes {
		body, err := appendNode(nil, &g.Nodes[i])
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 1, body)
	}
	b = appendString(b, 2, g.Name)
	for i := range g.Initializers {
		b = appendMessage(b, 5, appendTensor(nil, &g.Initializers[i]))
	}
	b = appendString(b, 10, g.DocString)
	for i := range g.Inputs {
		b = appendMessage(b, 11, appendValueInfo(nil, &g.Inputs[i]))
	}
	for i := range g.Outputs {
		b = appendMessage(b, 12, appendValueInfo(nil, &g.Outputs[i]))
	}
	for i := range g.ValueInfo {
		b = appendMessage(b, 13, appendValueInfo(nil, &g.ValueInfo[i]))
	}
	return b, nil
}

func appendNode(b []byte, n *NodeProto) ([]byte, error) {
	for _, in := range n.Inputs {
		b = appendStringAlways(b, 1, in)
	}
	for _, out := range n.Outputs {
		b = appendStringAlways(b, 2, out)
	}
	b = appendString(b, 3, n.Name)
	b = appendString(b, 4, n.OpType)
	for i := range n.Attributes {
		body, err := appendAttribute(nil, &n.Attributes[i])
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", n.OpType)
		}
		b = appendMessage(b, 5, body)
	}
	b = appendString(b, 6, n.DocString)
	b = appendString(b, 7, n.Domain)
	return b, nil
}

//nolint:gocyclo,cyclop // One case per attribute type.
func appendAttribute(b []byte, a *AttributeProto) ([]byte, error) {
	b = appendString(b, 1, a.Name)
	switch a.Type {
	case AttributeProtoFloat:
		b = appendFloat32(b, 2, a.F)
	case AttributeProtoInt:
		b = appendInt64(b, 3, a.I)
	case AttributeProtoString:
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, a.S)
	case AttributeProtoTensor:
		if a.T == nil {
			return nil, errors.Wrapf(ErrInvalidAttribute, "attribute %q of type TENSOR has no tensor", a.Name)
		}
		b = appendMessage(b, 5, appendTensor(nil, a.T))
	case AttributeProtoGraph:
		if a.G == nil {
			return nil, errors.Wrapf(ErrInvalidAttribute, "attribute %q of type GRAPH has no graph", a.Name)
		}
		body, err := appendGraph(nil, a.G)
		if err != nil {
			return nil, err
		}
		b = appendMessage(b, 6, body)
	case AttributeProtoFloats:
		for _, f := range a.Floats {
			b = appendFloat32(b, 7, f)
		}
	case AttributeProtoInts:
		for _, v := range a.Ints {
			b = appendInt64(b, 8, v)
		}
	case AttributeProtoStrings:
		for _, s := range a.Strings {
			b = protowire.AppendTag(b, 9, protowire.BytesType)
			b = protowire.AppendBytes(b, s)
		}
	case AttributeProtoTensors:
		for i := range a.Tensors {
			b = appendMessage(b, 10, appendTensor(nil, &a.Tensors[i]))
		}
	case AttributeProtoGraphs:
		for i := range a.Graphs {
			body, err := appendGraph(nil, &a.Graphs[i])
			if err != nil {
				return nil, err
			}
			b = appendMessage(b, 11, body)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidAttribute, "attribute %q has unknown type %d", a.Name, a.Type)
	}
	b = appendString(b, 13, a.DocString)
	b = appendInt64(b, 20, int64(a.Type))
	return b, nil
}

func appendTensor(b []byte, t *TensorProto) []byte {
	for _, d := range t.Dims {
		b = appendInt64(b, 1, d)
	}
	b = appendInt64(b, 2, int64(t.DataType))
	if len(t.FloatData) > 0 {
		packed := make([]byte, 0, 4*len(t.FloatData))
		for _, f := range t.FloatData {
			packed = protowire.AppendFixed32(packed, math.Float32bits(f))
		}
		b = appendMessage(b, 4, packed)
	}
	if len(t.Int32Data) > 0 {
		var packed []byte
		for _, v := range t.Int32Data {
			packed = protowire.AppendVarint(packed, uint64(int64(v)))
		}
		b = appendMessage(b, 5, packed)
	}
	if len(t.Int64Data) > 0 {
		var packed []byte
		for _, v := range t.Int64Data {
			packed = protowire.AppendVarint(packed, uint64(v))
		}
		b = appendMessage(b, 7, packed)
	}
	b = appendString(b, 8, t.Name)
	if len(t.RawData) > 0 {
		b = appendMessage(b, 9, t.RawData)
	}
	b = appendString(b, 12, t.DocString)
	return b
}

func appendValueInfo(b []byte, vi *ValueInfoProto) []byte {
	b = appendString(b, 1, vi.Name)
	if vi.Type != nil {
		b = appendMessage(b, 2, appendType(nil, vi.Type))
	}
	b = appendString(b, 3, vi.DocString)
	return b
}

func appendType(b []byte, t *TypeProto) []byte {
	if t.TensorType != nil {
		var body []byte
		body = appendInt64(body, 1, int64(t.TensorType.ElemType))
		if t.TensorType.Shape != nil {
			var shape []byte
			for _, d := range t.TensorType.Shape.Dims {
				shape = appendMessage(shape, 1, appendDimension(nil, d))
			}
			body = appendMessage(body, 2, shape)
		}
		b = appendMessage(b, 1, body)
	}
	b = appendString(b, 6, t.Denotation)
	return b
}

func appendDimension(b []byte, d DimensionProto) []byte {
	if d.DimParam != "" {
		return appendStringAlways(b, 2, d.DimParam)
	}
	return appendInt64(b, 1, d.DimValue)
}

func appendOpsetID(b []byte, o *OperatorSetID) []byte {
	b = appendStringAlways(b, 1, o.Domain)
	return appendInt64(b, 2, o.Version)
}

func appendStringStringEntry(b []byte, e *StringStringEntry) []byte {
	b = appendStringAlways(b, 1, e.Key)
	return appendStringAlways(b, 2, e.Value)
}

// Wire primitives.

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendFloat32(b []byte, num protowire.Number, f float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(f))
}

// appendString skips empty strings (unset optional field).
func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	return appendStringAlways(b, num, s)
}

// appendStringAlways emits s even when empty: repeated entries and explicitly set domains.
func appendStringAlways(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}
