package onnx

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ParseFile parses an ONNX model from file.
//
//nolint:gosec // G304: Path is provided by user, file inclusion is intentional for ONNX model loading
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return Parse(data)
}

// Parse parses an ONNX model from bytes.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := newParser(data).readModelProto(model); err != nil {
		return nil, errors.Wrap(err, "failed to parse model")
	}
	return model, nil
}

// parser walks one protobuf message. Embedded messages get their own parser.
type parser struct {
	data []byte
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) done() bool {
	return len(p.data) == 0
}

func (p *parser) readTag() (protowire.Number, protowire.Type, error) {
	num, typ, n := protowire.ConsumeTag(p.data)
	if n < 0 {
		return 0, 0, p.wireError(protowire.ParseError(n))
	}
	p.data = p.data[n:]
	return num, typ, nil
}

func (p *parser) wireError(err error) error {
	return errors.Wrapf(ErrMalformed, "%v", err)
}

func (p *parser) expect(num protowire.Number, got, want protowire.Type) error {
	if got != want {
		return errors.Wrapf(ErrMalformed, "field %d: wire type %d, want %d", num, got, want)
	}
	return nil
}

func (p *parser) readVarint(num protowire.Number, typ protowire.Type) (uint64, error) {
	if err := p.expect(num, typ, protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(p.data)
	if n < 0 {
		return 0, p.wireError(protowire.ParseError(n))
	}
	p.data = p.data[n:]
	return v, nil
}

func (p *parser) readInt64(num protowire.Number, typ protowire.Type) (int64, error) {
	v, err := p.readVarint(num, typ)
	return int64(v), err
}

func (p *parser) readInt32(num protowire.Number, typ protowire.Type) (int32, error) {
	v, err := p.readVarint(num, typ)
	return int32(v), err //nolint:gosec // G115: protobuf int32 fields are sign-extended varints
}

func (p *parser) readBytes(num protowire.Number, typ protowire.Type) ([]byte, error) {
	if err := p.expect(num, typ, protowire.BytesType); err != nil {
		return nil, err
	}
	v, n := protowire.ConsumeBytes(p.data)
	if n < 0 {
		return nil, p.wireError(protowire.ParseError(n))
	}
	p.data = p.data[n:]
	return v, nil
}

func (p *parser) readString(num protowire.Number, typ protowire.Type) (string, error) {
	v, err := p.readBytes(num, typ)
	return string(v), err
}

func (p *parser) readFloat32(num protowire.Number, typ protowire.Type) (float32, error) {
	if err := p.expect(num, typ, protowire.Fixed32Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed32(p.data)
	if n < 0 {
		return 0, p.wireError(protowire.ParseError(n))
	}
	p.data = p.data[n:]
	return math.Float32frombits(v), nil
}

// readInt64s reads one repeated int64 occurrence, packed or unpacked.
func (p *parser) readInt64s(num protowire.Number, typ protowire.Type, dst []int64) ([]int64, error) {
	if typ == protowire.VarintType {
		v, err := p.readInt64(num, typ)
		return append(dst, v), err
	}
	packed, err := p.readBytes(num, typ)
	if err != nil {
		return nil, err
	}
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return nil, p.wireError(protowire.ParseError(n))
		}
		dst = append(dst, int64(v))
		packed = packed[n:]
	}
	return dst, nil
}

// readFloat32s reads one repeated float occurrence, packed or unpacked.
func (p *parser) readFloat32s(num protowire.Number, typ protowire.Type, dst []float32) ([]float32, error) {
	if typ == protowire.Fixed32Type {
		v, err := p.readFloat32(num, typ)
		return append(dst, v), err
	}
	packed, err := p.readBytes(num, typ)
	if err != nil {
		return nil, err
	}
	if len(packed)%4 != 0 {
		return nil, errors.Wrapf(ErrMalformed, "field %d: packed float length %d", num, len(packed))
	}
	for len(packed) > 0 {
		v, n := protowire.ConsumeFixed32(packed)
		dst = append(dst, math.Float32frombits(v))
		packed = packed[n:]
	}
	return dst, nil
}

func (p *parser) skipField(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, p.data)
	if n < 0 {
		return p.wireError(protowire.ParseError(n))
	}
	p.data = p.data[n:]
	return nil
}

// readEmbedded reads a length-delimited field and decodes it with read.
func (p *parser) readEmbedded(num protowire.Number, typ protowire.Type, read func(*parser) error) error {
	data, err := p.readBytes(num, typ)
	if err != nil {
		return err
	}
	return read(newParser(data))
}

// readModelProto reads ModelProto message.
//
//nolint:gocognit,gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readModelProto(m *ModelProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // ir_version
			m.IRVersion, err = p.readInt64(num, typ)
		case 2: // producer_name
			m.ProducerName, err = p.readString(num, typ)
		case 3: // producer_version
			m.ProducerVersion, err = p.readString(num, typ)
		case 4: // domain
			m.Domain, err = p.readString(num, typ)
		case 5: // model_version
			m.ModelVersion, err = p.readInt64(num, typ)
		case 6: // doc_string
			m.DocString, err = p.readString(num, typ)
		case 7: // graph
			m.Graph = &GraphProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readGraphProto(m.Graph)
			})
		case 8: // opset_import
			opset := OperatorSetID{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readOperatorSetID(&opset)
			})
			m.OpsetImport = append(m.OpsetImport, opset)
		case 14: // metadata_props
			entry := StringStringEntry{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readStringStringEntry(&entry)
			})
			m.MetadataProps = append(m.MetadataProps, entry)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrap(err, "ModelProto")
		}
	}
	return nil
}

// readGraphProto reads GraphProto message.
//
//nolint:gocognit,gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readGraphProto(g *GraphProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // node
			node := NodeProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readNodeProto(&node)
			})
			g.Nodes = append(g.Nodes, node)
		case 2: // name
			g.Name, err = p.readString(num, typ)
		case 5: // initializer
			t := TensorProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTensorProto(&t)
			})
			g.Initializers = append(g.Initializers, t)
		case 10: // doc_string
			g.DocString, err = p.readString(num, typ)
		case 11, 12, 13: // input, output, value_info
			vi := ValueInfoProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readValueInfoProto(&vi)
			})
			switch num {
			case 11:
				g.Inputs = append(g.Inputs, vi)
			case 12:
				g.Outputs = append(g.Outputs, vi)
			default:
				g.ValueInfo = append(g.ValueInfo, vi)
			}
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrap(err, "GraphProto")
		}
	}
	return nil
}

// readNodeProto reads NodeProto message.
func (p *parser) readNodeProto(n *NodeProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		var s string
		switch num {
		case 1: // input
			s, err = p.readString(num, typ)
			n.Inputs = append(n.Inputs, s)
		case 2: // output
			s, err = p.readString(num, typ)
			n.Outputs = append(n.Outputs, s)
		case 3: // name
			n.Name, err = p.readString(num, typ)
		case 4: // op_type
			n.OpType, err = p.readString(num, typ)
		case 5: // attribute
			attr := AttributeProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readAttributeProto(&attr)
			})
			n.Attributes = append(n.Attributes, attr)
		case 6: // doc_string
			n.DocString, err = p.readString(num, typ)
		case 7: // domain
			n.Domain, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrap(err, "NodeProto")
		}
	}
	return nil
}

// readTensorProto reads TensorProto message.
//
//nolint:gocyclo,cyclop // Protobuf parsing requires field-by-field switch logic
func (p *parser) readTensorProto(t *TensorProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // dims
			t.Dims, err = p.readInt64s(num, typ, t.Dims)
		case 2: // data_type
			t.DataType, err = p.readInt32(num, typ)
		case 4: // float_data
			t.FloatData, err = p.readFloat32s(num, typ, t.FloatData)
		case 5: // int32_data
			var vals []int64
			vals, err = p.readInt64s(num, typ, nil)
			for _, v := range vals {
				t.Int32Data = append(t.Int32Data, int32(v)) //nolint:gosec // G115: int32 field
			}
		case 7: // int64_data
			t.Int64Data, err = p.readInt64s(num, typ, t.Int64Data)
		case 8: // name
			t.Name, err = p.readString(num, typ)
		case 9: // raw_data
			var raw []byte
			raw, err = p.readBytes(num, typ)
			t.RawData = append([]byte(nil), raw...)
		case 12: // doc_string
			t.DocString, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrap(err, "TensorProto")
		}
	}
	return nil
}

// readValueInfoProto reads ValueInfoProto message.
func (p *parser) readValueInfoProto(vi *ValueInfoProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // name
			vi.Name, err = p.readString(num, typ)
		case 2: // type
			vi.Type = &TypeProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTypeProto(vi.Type)
			})
		case 3: // doc_string
			vi.DocString, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrap(err, "ValueInfoProto")
		}
	}
	return nil
}

// readTypeProto reads TypeProto message. Non-tensor types are skipped.
func (p *parser) readTypeProto(t *TypeProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // tensor_type
			t.TensorType = &TensorTypeProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTensorTypeProto(t.TensorType)
			})
		case 6: // denotation
			t.Denotation, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readTensorTypeProto reads TypeProto.Tensor message.
func (p *parser) readTensorTypeProto(t *TensorTypeProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // elem_type
			t.ElemType, err = p.readInt32(num, typ)
		case 2: // shape
			t.Shape = &TensorShapeProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTensorShapeProto(t.Shape)
			})
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readTensorShapeProto reads TensorShapeProto message.
func (p *parser) readTensorShapeProto(s *TensorShapeProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		if num != 1 {
			if err := p.skipField(num, typ); err != nil {
				return err
			}
			continue
		}
		dim := DimensionProto{}
		if err := p.readEmbedded(num, typ, func(sub *parser) error {
			return sub.readDimensionProto(&dim)
		}); err != nil {
			return err
		}
		s.Dims = append(s.Dims, dim)
	}
	return nil
}

// readDimensionProto reads TensorShapeProto.Dimension message.
func (p *parser) readDimensionProto(d *DimensionProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // dim_value
			d.DimValue, err = p.readInt64(num, typ)
		case 2: // dim_param
			d.DimParam, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readAttributeProto reads AttributeProto message.
//
//nolint:gocognit,gocyclo,cyclop,funlen // Protobuf parsing requires field-by-field switch logic
func (p *parser) readAttributeProto(a *AttributeProto) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // name
			a.Name, err = p.readString(num, typ)
		case 2: // f
			a.F, err = p.readFloat32(num, typ)
		case 3: // i
			a.I, err = p.readInt64(num, typ)
		case 4: // s
			var s []byte
			s, err = p.readBytes(num, typ)
			a.S = append([]byte(nil), s...)
		case 5: // t
			a.T = &TensorProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTensorProto(a.T)
			})
		case 6: // g
			a.G = &GraphProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readGraphProto(a.G)
			})
		case 7: // floats
			a.Floats, err = p.readFloat32s(num, typ, a.Floats)
		case 8: // ints
			a.Ints, err = p.readInt64s(num, typ, a.Ints)
		case 9: // strings
			var s []byte
			s, err = p.readBytes(num, typ)
			a.Strings = append(a.Strings, append([]byte(nil), s...))
		case 10: // tensors
			t := TensorProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readTensorProto(&t)
			})
			a.Tensors = append(a.Tensors, t)
		case 11: // graphs
			g := GraphProto{}
			err = p.readEmbedded(num, typ, func(sub *parser) error {
				return sub.readGraphProto(&g)
			})
			a.Graphs = append(a.Graphs, g)
		case 13: // doc_string
			a.DocString, err = p.readString(num, typ)
		case 20: // type
			a.Type, err = p.readInt32(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return errors.Wrapf(err, "AttributeProto %q", a.Name)
		}
	}
	return nil
}

// readOperatorSetID reads OperatorSetIdProto message.
func (p *parser) readOperatorSetID(o *OperatorSetID) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // domain
			o.Domain, err = p.readString(num, typ)
		case 2: // version
			o.Version, err = p.readInt64(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readStringStringEntry reads StringStringEntryProto message.
func (p *parser) readStringStringEntry(e *StringStringEntry) error {
	for !p.done() {
		num, typ, err := p.readTag()
		if err != nil {
			return err
		}

		switch num {
		case 1: // key
			e.Key, err = p.readString(num, typ)
		case 2: // value
			e.Value, err = p.readString(num, typ)
		default:
			err = p.skipField(num, typ)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
