package onnx

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCheckValidConvModels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *convParams)
	}{
		{"defaults", func(_ *convParams) {}},
		{"non-square stride 2", func(p *convParams) { p.h, p.w, p.ph, p.pw, p.sh, p.sw = 10, 6, 0, 0, 2, 2 }},
		{"multi-channel batch", func(p *convParams) { p.n, p.c, p.m = 4, 3, 16 }},
		{"1x1 kernel", func(p *convParams) { p.kh, p.kw, p.ph, p.pw = 1, 1, 0, 0 }},
		{"opset 11 IR 6", func(p *convParams) { p.opset, p.ir = 11, 6 }},
		{"opset 22 IR 10", func(p *convParams) { p.opset, p.ir = 22, 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultConvParams()
			tt.mutate(&p)
			require.NoError(t, Check(buildConvModel(p)))
		})
	}
}

func TestCheckRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *ModelProto)
		kind   error
	}{
		{"missing ir_version", func(m *ModelProto) { m.IRVersion = 0 }, ErrInvalidModel},
		{"ir_version too new", func(m *ModelProto) { m.IRVersion = MaxIRVersion + 1 }, ErrUnsupportedVersion},
		{"ir_version too old for opset", func(m *ModelProto) { m.IRVersion = 6 }, ErrUnsupportedVersion},
		{"no opset_import", func(m *ModelProto) { m.OpsetImport = nil }, ErrInvalidModel},
		{"opset 0", func(m *ModelProto) { m.OpsetImport[0].Version = 0 }, ErrUnsupportedVersion},
		{"no default domain", func(m *ModelProto) { m.OpsetImport[0].Domain = "com.example" }, ErrInvalidModel},
		{"duplicate domain", func(m *ModelProto) {
			m.OpsetImport = append(m.OpsetImport, MakeOpsetID("ai.onnx", 13))
		}, ErrDuplicateName},
		{"no graph", func(m *ModelProto) { m.Graph = nil }, ErrInvalidModel},
		{"unnamed graph", func(m *ModelProto) { m.Graph.Name = "" }, ErrInvalidModel},
		{"initializer shadows input", func(m *ModelProto) { m.Graph.Initializers[0].Name = "X" }, ErrDuplicateName},
		{"input declared twice", func(m *ModelProto) {
			m.Graph.Inputs = append(m.Graph.Inputs, m.Graph.Inputs[0])
		}, ErrDuplicateName},
		{"undefined node input", func(m *ModelProto) { m.Graph.Nodes[0].Inputs[1] = "B" }, ErrUndefinedName},
		{"node output collides with input", func(m *ModelProto) { m.Graph.Nodes[0].Outputs[0] = "X" }, ErrDuplicateName},
		{"graph output not produced", func(m *ModelProto) { m.Graph.Outputs[0].Name = "Z" }, ErrUndefinedName},
		{"unknown operator", func(m *ModelProto) { m.Graph.Nodes[0].OpType = "Deconv" }, ErrSchema},
		{"missing op type", func(m *ModelProto) { m.Graph.Nodes[0].OpType = "" }, ErrInvalidModel},
		{"too few inputs", func(m *ModelProto) { m.Graph.Nodes[0].Inputs = []string{"X"} }, ErrSchema},
		{"unknown attribute", func(m *ModelProto) {
			m.Graph.Nodes[0].Attributes = append(m.Graph.Nodes[0].Attributes, AttrInts("padding", 1))
		}, ErrInvalidAttribute},
		{"duplicate attribute", func(m *ModelProto) {
			m.Graph.Nodes[0].Attributes = append(m.Graph.Nodes[0].Attributes, AttrInts("strides", 1, 1))
		}, ErrDuplicateName},
		{"attribute type mismatch", func(m *ModelProto) {
			m.Graph.Nodes[0].Attributes[2] = AttrInt("strides", 1)
		}, ErrInvalidAttribute},
		{"attribute without type", func(m *ModelProto) { m.Graph.Nodes[0].Attributes[0].Type = 0 }, ErrInvalidAttribute},
		{"attribute with two payloads", func(m *ModelProto) { m.Graph.Nodes[0].Attributes[0].I = 3 }, ErrInvalidAttribute},
		{"pads wrong length", func(m *ModelProto) { m.Graph.Nodes[0].Attributes[1].Ints = []int64{1, 1, 1} }, ErrSchema},
		{"negative pad", func(m *ModelProto) { m.Graph.Nodes[0].Attributes[1].Ints = []int64{-1, 1, 1, 1} }, ErrSchema},
		{"zero stride", func(m *ModelProto) { m.Graph.Nodes[0].Attributes[2].Ints = []int64{0, 1} }, ErrSchema},
		{"kernel_shape disagrees with W", func(m *ModelProto) {
			m.Graph.Nodes[0].Attributes[0].Ints = []int64{5, 5}
		}, ErrShapeInference},
		{"auto_pad with pads", func(m *ModelProto) {
			m.Graph.Nodes[0].Attributes = append(m.Graph.Nodes[0].Attributes, AttrString("auto_pad", "SAME_UPPER"))
		}, ErrSchema},
		{"channel mismatch", func(m *ModelProto) {
			m.Graph.Inputs[0] = MakeTensorValueInfo("X", TensorProtoFloat, []int64{1, 3, 8, 8})
		}, ErrShapeInference},
		{"rank mismatch", func(m *ModelProto) {
			m.Graph.Inputs[0] = MakeTensorValueInfo("X", TensorProtoFloat, []int64{1, 1, 8})
		}, ErrShapeInference},
		{"integer input type", func(m *ModelProto) {
			m.Graph.Inputs[0].Type.TensorType.ElemType = TensorProtoInt64
		}, ErrSchema},
		{"undefined element type", func(m *ModelProto) {
			m.Graph.Inputs[0].Type.TensorType.ElemType = 0
		}, ErrInvalidTensor},
		{"missing input type", func(m *ModelProto) { m.Graph.Inputs[0].Type = nil }, ErrInvalidModel},
		{"non-positive input dim", func(m *ModelProto) {
			m.Graph.Inputs[0] = MakeTensorValueInfo("X", TensorProtoFloat, []int64{1, 1, 0, 8})
		}, ErrInvalidTensor},
		{"weight value count", func(m *ModelProto) {
			m.Graph.Initializers[0].FloatData = m.Graph.Initializers[0].FloatData[:4]
		}, ErrInvalidTensor},
		{"weight raw and typed data", func(m *ModelProto) {
			m.Graph.Initializers[0].RawData = make([]byte, 36)
		}, ErrInvalidTensor},
		{"declared output shape wrong", func(m *ModelProto) {
			m.Graph.Outputs[0] = MakeTensorValueInfo("Y", TensorProtoFloat, []int64{1, 1, 7, 8})
		}, ErrShapeInference},
		{"declared output rank wrong", func(m *ModelProto) {
			m.Graph.Outputs[0] = MakeTensorValueInfo("Y", TensorProtoFloat, []int64{1, 8, 8})
		}, ErrShapeInference},
		{"declared output type wrong", func(m *ModelProto) {
			m.Graph.Outputs[0].Type.TensorType.ElemType = TensorProtoDouble
		}, ErrShapeInference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := buildConvModel(defaultConvParams())
			tt.mutate(model)

			err := Check(model)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "want *ValidationError, got %T", err)
			assert.NotEmpty(t, ve.Error())
		})
	}
}

func TestCheckDegenerateKernel(t *testing.T) {
	p := defaultConvParams()
	p.h, p.ph, p.kh = 4, 0, 5
	p.kw = 5 // kernel 5x5 over an 4x8 input without padding
	model := buildConvModel(p)
	assert.Equal(t, int64(0), model.Graph.Outputs[0].Type.TensorType.Shape.Dims[2].DimValue)

	err := Check(model)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeInference)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Node, "Conv")
	assert.Contains(t, ve.Details, "output size 0")

	// Without shape inference the declared zero dim still fails.
	err = Check(model, CheckOptions{SkipShapeInference: true})
	assert.ErrorIs(t, err, ErrInvalidTensor)
}

func TestCheckSymbolicBatch(t *testing.T) {
	model := buildConvModel(defaultConvParams())
	for _, vi := range []*ValueInfoProto{&model.Graph.Inputs[0], &model.Graph.Outputs[0]} {
		vi.Type.TensorType.Shape.Dims[0] = DimensionProto{DimParam: "N"}
	}
	require.NoError(t, Check(model))
}

func TestCheckAutoPadSame(t *testing.T) {
	p := defaultConvParams()
	p.sh, p.sw = 2, 2
	p.declaredOutHW = []int64{4, 4}
	model := buildConvModel(p)
	node := &model.Graph.Nodes[0]
	node.Attributes = []AttributeProto{
		AttrInts("kernel_shape", 3, 3),
		AttrInts("strides", 2, 2),
		AttrString("auto_pad", AutoPadSameUpper),
	}
	require.NoError(t, Check(model))
}

func TestCheckZeroSizeDims(t *testing.T) {
	model := buildConvModel(defaultConvParams())
	model.Graph.Inputs[0].Type.TensorType.Shape.Dims[0] = DimensionProto{}
	err := Check(model)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, ErrInvalidTensor, ve.Kind)
	assert.Contains(t, ve.Details, "zero-size dims are not supported")

	model = buildConvModel(defaultConvParams())
	model.Graph.Initializers[0].Dims[0] = 0
	model.Graph.Initializers[0].FloatData = nil
	err = Check(model)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "W", ve.Name)
	assert.Contains(t, ve.Details, "zero-size dims are not supported")
}

// Dims whose product wraps around to the stored value count must not pass.
func TestCheckInitializerElementCountOverflow(t *testing.T) {
	tests := []struct {
		name string
		dims []int64
	}{
		{"wraps to zero", []int64{1 << 20, 1 << 20, 4096, 4096}},
		{"wraps negative", []int64{1 << 20, 1 << 20, 4096, 2048}},
		{"exceeds int64", []int64{1 << 40, 1 << 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tensor := MakeTensor("W", TensorProtoFloat, tt.dims, nil)
			err := checkTensor(&tensor)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTensor)
			assert.Contains(t, err.Error(), "overflows")
		})
	}

	tensor := MakeTensor("W", TensorProtoFloat, []int64{2, 3}, make([]float32, 6))
	n, err := tensor.NumElements()
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
}

func TestCheckCustomRegistry(t *testing.T) {
	model := buildConvModel(defaultConvParams())
	err := Check(model, CheckOptions{Registry: &Registry{schemas: map[string][]*OpSchema{}}})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCheckNilModel(t *testing.T) {
	assert.ErrorIs(t, Check(nil), ErrInvalidModel)
}

// Every configuration whose output dims are >= 1 passes; every other one fails.
func TestCheckConvProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := defaultConvParams()
		p.n = rapid.Int64Range(1, 4).Draw(t, "batch")
		p.c = rapid.Int64Range(1, 4).Draw(t, "in_channels")
		p.m = rapid.Int64Range(1, 4).Draw(t, "out_channels")
		p.h = rapid.Int64Range(1, 32).Draw(t, "height")
		p.w = rapid.Int64Range(1, 32).Draw(t, "width")
		p.kh = rapid.Int64Range(1, 7).Draw(t, "kernel_h")
		p.kw = rapid.Int64Range(1, 7).Draw(t, "kernel_w")
		p.ph = rapid.Int64Range(0, 3).Draw(t, "pad_h")
		p.pw = rapid.Int64Range(0, 3).Draw(t, "pad_w")
		p.sh = rapid.Int64Range(1, 4).Draw(t, "stride_h")
		p.sw = rapid.Int64Range(1, 4).Draw(t, "stride_w")

		outH := ConvOutputDim(p.h, p.kh, p.ph, p.ph, p.sh)
		outW := ConvOutputDim(p.w, p.kw, p.pw, p.pw, p.sw)
		err := Check(buildConvModel(p))
		if outH >= 1 && outW >= 1 {
			if err != nil {
				t.Fatalf("valid config rejected: %v", err)
			}
			return
		}
		if err == nil {
			t.Fatalf("config with output %dx%d accepted", outH, outW)
		}
	})
}

func TestMinIRVersionForOpset(t *testing.T) {
	assert.Equal(t, int64(3), MinIRVersionForOpset(7))
	assert.Equal(t, int64(7), MinIRVersionForOpset(13))
	assert.Equal(t, int64(8), MinIRVersionForOpset(17))
	assert.Equal(t, int64(10), MinIRVersionForOpset(22))
}

func TestLookupSchema(t *testing.T) {
	s, ok := LookupSchema("", "Conv", 13)
	require.True(t, ok)
	assert.Equal(t, int64(11), s.SinceVersion)

	s, ok = LookupSchema("ai.onnx", "Conv", 22)
	require.True(t, ok)
	assert.Equal(t, int64(22), s.SinceVersion)
	assert.True(t, s.AllowsType(TensorProtoBfloat16))

	_, ok = LookupSchema("", "Conv", 0)
	assert.False(t, ok)

	assert.Equal(t, []string{"Conv"}, ListSupportedOps())
}

func TestInfoOf(t *testing.T) {
	model := buildConvModel(defaultConvParams())
	model.ProducerName = "convgen"
	info := InfoOf(model)

	assert.Equal(t, int64(8), info.IRVersion)
	assert.Equal(t, int64(13), info.OpsetVersion)
	assert.Equal(t, "convgen", info.ProducerName)
	assert.Equal(t, "conv_test", info.GraphName)
	assert.Equal(t, []string{"X"}, info.InputNames)
	assert.Equal(t, []string{"Y"}, info.OutputNames)
	assert.Equal(t, []string{"Conv"}, info.OpTypes)
	assert.Equal(t, 1, info.NodeCount)
	assert.Equal(t, 1, info.WeightCount)
}
