package onnx

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// ONNX protobuf messages (hand-written, ONNX field numbers live in encode.go/parser.go).
//
// Only the parts of onnx.proto that a single-operator graph touches are
// modelled. Unknown fields are skipped on parse and never emitted.

// ModelProto is the top-level container: a graph plus version metadata.
type ModelProto struct {
	IRVersion       int64               // field 1
	OpsetImport     []OperatorSetID     // field 8
	ProducerName    string              // field 2
	ProducerVersion string              // field 3
	Domain          string              // field 4
	ModelVersion    int64               // field 5
	DocString       string              // field 6
	Graph           *GraphProto         // field 7
	MetadataProps   []StringStringEntry // field 14
}

// GraphProto is the computation graph.
type GraphProto struct {
	Name         string           // field 2
	Nodes        []NodeProto      // field 1
	Inputs       []ValueInfoProto // field 11
	Outputs      []ValueInfoProto // field 12
	Initializers []TensorProto    // field 5
	DocString    string           // field 10
	ValueInfo    []ValueInfoProto // field 13
}

// NodeProto is a single operator invocation.
type NodeProto struct {
	Name       string           // field 3
	OpType     string           // field 4
	Inputs     []string         // field 1
	Outputs    []string         // field 2
	Attributes []AttributeProto // field 5
	Domain     string           // field 7
	DocString  string           // field 6
}

// TensorProto is a constant tensor (initializer or attribute value).
type TensorProto struct {
	Name      string    // field 8
	DataType  int32     // field 2
	Dims      []int64   // field 1
	FloatData []float32 // field 4, packed
	Int32Data []int32   // field 5, packed
	Int64Data []int64   // field 7, packed
	RawData   []byte    // field 9, little-endian
	DocString string    // field 12
}

// ValueInfoProto declares the name and type of a graph input, output or intermediate value.
type ValueInfoProto struct {
	Name      string     // field 1
	Type      *TypeProto // field 2
	DocString string     // field 3
}

// TypeProto describes a value type. Only tensor types are supported.
type TypeProto struct {
	TensorType *TensorTypeProto // field 1
	Denotation string           // field 6
}

// TensorTypeProto is an element type plus an optional shape.
type TensorTypeProto struct {
	ElemType int32             // field 1
	Shape    *TensorShapeProto // field 2
}

// TensorShapeProto is an ordered list of dimensions.
type TensorShapeProto struct {
	Dims []DimensionProto // field 1
}

// DimensionProto is either a static size or a symbolic name.
type DimensionProto struct {
	DimValue int64  // field 1
	DimParam string // field 2
}

// AttributeProto is a named operator attribute. Type selects which value field is meaningful.
type AttributeProto struct {
	Name      string        // field 1
	Type      int32         // field 20
	F         float32       // field 2
	I         int64         // field 3
	S         []byte        // field 4
	T         *TensorProto  // field 5
	G         *GraphProto   // field 6
	Floats    []float32     // field 7
	Ints      []int64       // field 8
	Strings   [][]byte      // field 9
	Tensors   []TensorProto // field 10
	Graphs    []GraphProto  // field 11
	DocString string        // field 13
}

// OperatorSetID identifies the operator set (domain + version) a model is written against.
type OperatorSetID struct {
	Domain  string // field 1
	Version int64  // field 2
}

// StringStringEntry is a key-value metadata entry.
type StringStringEntry struct {
	Key   string // field 1
	Value string // field 2
}

// ONNX data types (TensorProto.DataType).
const (
	TensorProtoUndefined  = 0
	TensorProtoFloat      = 1  // float32
	TensorProtoUint8      = 2  // uint8
	TensorProtoInt8       = 3  // int8
	TensorProtoUint16     = 4  // uint16
	TensorProtoInt16      = 5  // int16
	TensorProtoInt32      = 6  // int32
	TensorProtoInt64      = 7  // int64
	TensorProtoString     = 8  // string
	TensorProtoBool       = 9  // bool
	TensorProtoFloat16    = 10 // float16
	TensorProtoDouble     = 11 // float64
	TensorProtoUint32     = 12 // uint32
	TensorProtoUint64     = 13 // uint64
	TensorProtoComplex64  = 14 // complex64
	TensorProtoComplex128 = 15 // complex128
	TensorProtoBfloat16   = 16 // bfloat16

	maxKnownDataType = TensorProtoBfloat16
)

// ONNX attribute types (AttributeProto.Type).
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1  // FLOAT
	AttributeProtoInt       = 2  // INT
	AttributeProtoString    = 3  // STRING
	AttributeProtoTensor    = 4  // TENSOR
	AttributeProtoGraph     = 5  // GRAPH
	AttributeProtoFloats    = 6  // FLOATS
	AttributeProtoInts      = 7  // INTS
	AttributeProtoStrings   = 8  // STRINGS
	AttributeProtoTensors   = 9  // TENSORS
	AttributeProtoGraphs    = 10 // GRAPHS
)

// attributeTypeName is used in checker messages.
func attributeTypeName(t int32) string {
	switch t {
	case AttributeProtoFloat:
		return "FLOAT"
	case AttributeProtoInt:
		return "INT"
	case AttributeProtoString:
		return "STRING"
	case AttributeProtoTensor:
		return "TENSOR"
	case AttributeProtoGraph:
		return "GRAPH"
	case AttributeProtoFloats:
		return "FLOATS"
	case AttributeProtoInts:
		return "INTS"
	case AttributeProtoStrings:
		return "STRINGS"
	case AttributeProtoTensors:
		return "TENSORS"
	case AttributeProtoGraphs:
		return "GRAPHS"
	default:
		return "UNDEFINED"
	}
}

// NumElements returns the product of the tensor dims (1 for a scalar). It
// fails on a negative dim or when the product does not fit in an int64.
func (t *TensorProto) NumElements() (int64, error) {
	n := uint64(1)
	for i, d := range t.Dims {
		if d < 0 {
			return 0, errors.Errorf("tensor %q dimension %d is negative (%d)", t.Name, i, d)
		}
		hi, lo := bits.Mul64(n, uint64(d))
		if hi != 0 || lo > math.MaxInt64 {
			return 0, errors.Errorf("tensor %q dims %v overflow the element count", t.Name, t.Dims)
		}
		n = lo
	}
	return int64(n), nil
}

// Float32s returns the tensor values, decoding raw_data when float_data is empty.
func (t *TensorProto) Float32s() ([]float32, error) {
	if t.DataType != TensorProtoFloat {
		return nil, errors.Errorf("tensor %q has data type %d, not FLOAT", t.Name, t.DataType)
	}
	if len(t.RawData) == 0 {
		return t.FloatData, nil
	}
	if len(t.RawData)%4 != 0 {
		return nil, errors.Errorf("tensor %q raw_data length %d is not a multiple of 4", t.Name, len(t.RawData))
	}
	values := make([]float32, len(t.RawData)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.RawData[i*4:]))
	}
	return values, nil
}

// Dims returns the static dims of the value, with -1 for symbolic or missing dims.
// The second result is false when the value has no tensor shape at all.
func (vi *ValueInfoProto) Dims() ([]int64, bool) {
	if vi.Type == nil || vi.Type.TensorType == nil || vi.Type.TensorType.Shape == nil {
		return nil, false
	}
	shape := vi.Type.TensorType.Shape
	dims := make([]int64, len(shape.Dims))
	for i, d := range shape.Dims {
		if d.DimParam != "" {
			dims[i] = -1
			continue
		}
		dims[i] = d.DimValue
	}
	return dims, true
}

// Attribute returns the attribute with the given name, or nil.
func (n *NodeProto) Attribute(name string) *AttributeProto {
	for i := range n.Attributes {
		if n.Attributes[i].Name == name {
			return &n.Attributes[i]
		}
	}
	return nil
}

// AttrInts returns an INTS attribute or def when absent.
func (n *NodeProto) AttrInts(name string, def []int64) []int64 {
	if a := n.Attribute(name); a != nil {
		return a.Ints
	}
	return def
}

// AttrInt returns an INT attribute or def when absent.
func (n *NodeProto) AttrInt(name string, def int64) int64 {
	if a := n.Attribute(name); a != nil {
		return a.I
	}
	return def
}

// AttrString returns a STRING attribute or def when absent.
func (n *NodeProto) AttrString(name, def string) string {
	if a := n.Attribute(name); a != nil {
		return string(a.S)
	}
	return def
}
