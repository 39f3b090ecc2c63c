package onnx

// Conv auto_pad values.
const (
	AutoPadNotSet    = "NOTSET"
	AutoPadSameUpper = "SAME_UPPER"
	AutoPadSameLower = "SAME_LOWER"
	AutoPadValid     = "VALID"
)

func convAttributes() map[string]AttrSpec {
	return map[string]AttrSpec{
		"auto_pad":     {Type: AttributeProtoString},
		"dilations":    {Type: AttributeProtoInts},
		"group":        {Type: AttributeProtoInt},
		"kernel_shape": {Type: AttributeProtoInts},
		"pads":         {Type: AttributeProtoInts},
		"strides":      {Type: AttributeProtoInts},
	}
}

// registerConv adds Conv-1, Conv-11 and Conv-22. The attribute set is the same
// in all three; Conv-22 widens the type constraint to bfloat16.
func (r *Registry) registerConv() {
	floats := []int32{TensorProtoFloat16, TensorProtoFloat, TensorProtoDouble}
	for _, since := range []int64{1, 11} {
		r.Register(&OpSchema{
			OpType:       "Conv",
			SinceVersion: since,
			MinInputs:    2,
			MaxInputs:    3,
			MinOutputs:   1,
			MaxOutputs:   1,
			Attributes:   convAttributes(),
			InputTypes:   floats,
			Infer:        inferConv,
		})
	}
	r.Register(&OpSchema{
		OpType:       "Conv",
		SinceVersion: 22,
		MinInputs:    2,
		MaxInputs:    3,
		MinOutputs:   1,
		MaxOutputs:   1,
		Attributes:   convAttributes(),
		InputTypes:   append(append([]int32{}, floats...), TensorProtoBfloat16),
		Infer:        inferConv,
	})
}

// inferConv checks the Conv attributes against the input shapes and computes
// the output shape [N, M, out_1, ..., out_k].
//
//nolint:gocognit,gocyclo,cyclop,funlen // Mirrors the ONNX conv/pool shape inference step by step.
func inferConv(node *NodeProto, inputs []*TypeInfo) ([]*TypeInfo, error) {
	x, w := inputs[0], inputs[1]
	if x == nil || w == nil {
		return nil, violation(ErrSchema, "", "", "Conv requires inputs X and W")
	}
	if x.ElemType != w.ElemType {
		return nil, violation(ErrSchema, "", "", "X has element type %d but W has %d", x.ElemType, w.ElemType)
	}
	if len(inputs) > 2 && inputs[2] != nil && inputs[2].ElemType != x.ElemType {
		return nil, violation(ErrSchema, "", "", "B has element type %d but X has %d", inputs[2].ElemType, x.ElemType)
	}

	out := &TypeInfo{ElemType: x.ElemType}
	if !x.HasShape() || !w.HasShape() {
		return []*TypeInfo{out}, nil
	}

	rank := len(x.Dims)
	if rank < 3 {
		return nil, violation(ErrShapeInference, "", "", "X must have rank >= 3, got %d", rank)
	}
	if len(w.Dims) != rank {
		return nil, violation(ErrShapeInference, "", "", "W rank %d does not match X rank %d", len(w.Dims), rank)
	}
	spatial := rank - 2

	group := node.AttrInt("group", 1)
	if group <= 0 {
		return nil, violation(ErrSchema, "", "", "group must be positive, got %d", group)
	}
	if x.Dims[1] > 0 && w.Dims[1] > 0 && x.Dims[1] != w.Dims[1]*group {
		return nil, violation(ErrShapeInference, "", "", "X has %d channels but W expects %d (W channels %d x group %d)",
			x.Dims[1], w.Dims[1]*group, w.Dims[1], group)
	}
	if w.Dims[0] > 0 && w.Dims[0]%group != 0 {
		return nil, violation(ErrShapeInference, "", "", "W output channels %d not divisible by group %d", w.Dims[0], group)
	}

	kernel := w.Dims[2:]
	if ks := node.Attribute("kernel_shape"); ks != nil {
		if len(ks.Ints) != spatial {
			return nil, violation(ErrSchema, "", "", "kernel_shape has %d values, want %d", len(ks.Ints), spatial)
		}
		for i, k := range ks.Ints {
			if k <= 0 {
				return nil, violation(ErrSchema, "", "", "kernel_shape[%d] must be positive, got %d", i, k)
			}
			if kernel[i] > 0 && kernel[i] != k {
				return nil, violation(ErrShapeInference, "", "", "kernel_shape[%d]=%d does not match W spatial dim %d", i, k, kernel[i])
			}
		}
		kernel = ks.Ints
	}

	strides, err := spatialInts(node, "strides", spatial, 1, 1)
	if err != nil {
		return nil, err
	}
	dilations, err := spatialInts(node, "dilations", spatial, 1, 1)
	if err != nil {
		return nil, err
	}

	autoPad := node.AttrString("auto_pad", AutoPadNotSet)
	switch autoPad {
	case AutoPadNotSet, AutoPadSameUpper, AutoPadSameLower, AutoPadValid:
	default:
		return nil, violation(ErrSchema, "", "", "invalid auto_pad %q", autoPad)
	}

	pads := make([]int64, 2*spatial)
	if p := node.Attribute("pads"); p != nil {
		if autoPad != AutoPadNotSet {
			return nil, violation(ErrSchema, "", "", "pads and auto_pad=%s can't be used together", autoPad)
		}
		if len(p.Ints) != 2*spatial {
			return nil, violation(ErrSchema, "", "", "pads has %d values, want %d", len(p.Ints), 2*spatial)
		}
		for i, v := range p.Ints {
			if v < 0 {
				return nil, violation(ErrSchema, "", "", "pads[%d] must be non-negative, got %d", i, v)
			}
		}
		copy(pads, p.Ints)
	}

	out.Dims = make([]int64, rank)
	out.Dims[0] = x.Dims[0]
	out.Dims[1] = w.Dims[0]
	for i := 0; i < spatial; i++ {
		in := x.Dims[i+2]
		if in < 0 || kernel[i] < 0 {
			out.Dims[i+2] = -1
			continue
		}
		var dim int64
		switch autoPad {
		case AutoPadSameUpper, AutoPadSameLower:
			dim = sameOutputDim(in, strides[i])
		default:
			dim = ConvOutputDimDilated(in, kernel[i], pads[i], pads[i+spatial], strides[i], dilations[i])
		}
		if dim < 1 {
			return nil, violation(ErrShapeInference, "", "", "spatial axis %d: input %d, kernel %d, pads [%d, %d], stride %d gives output size %d",
				i, in, kernel[i], pads[i], pads[i+spatial], strides[i], dim)
		}
		out.Dims[i+2] = dim
	}
	return []*TypeInfo{out}, nil
}

// spatialInts reads a per-spatial-axis INTS attribute, defaulting to def for
// every axis, and requires each value to be at least minValue.
func spatialInts(node *NodeProto, name string, spatial int, def, minValue int64) ([]int64, error) {
	values := make([]int64, spatial)
	a := node.Attribute(name)
	if a == nil {
		for i := range values {
			values[i] = def
		}
		return values, nil
	}
	if len(a.Ints) != spatial {
		return nil, violation(ErrSchema, "", "", "%s has %d values, want %d", name, len(a.Ints), spatial)
	}
	for i, v := range a.Ints {
		if v < minValue {
			return nil, violation(ErrSchema, "", "", "%s[%d] must be >= %d, got %d", name, i, minValue, v)
		}
	}
	copy(values, a.Ints)
	return values, nil
}
