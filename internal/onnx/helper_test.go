package onnx

// convParams describes a single-Conv test model.
type convParams struct {
	n, c, m       int64 // batch, in channels, out channels
	h, w          int64
	kh, kw        int64
	ph, pw        int64
	sh, sw        int64
	opset, ir     int64
	declaredOutHW []int64 // Overrides the computed Y spatial dims when set
}

func defaultConvParams() convParams {
	return convParams{n: 1, c: 1, m: 1, h: 8, w: 8, kh: 3, kw: 3, ph: 1, pw: 1, sh: 1, sw: 1, opset: 13, ir: 8}
}

// buildConvModel assembles X -> Conv(W) -> Y the same way the fixture builder does.
func buildConvModel(p convParams) *ModelProto {
	outH := ConvOutputDim(p.h, p.kh, p.ph, p.ph, p.sh)
	outW := ConvOutputDim(p.w, p.kw, p.pw, p.pw, p.sw)
	if p.declaredOutHW != nil {
		outH, outW = p.declaredOutHW[0], p.declaredOutHW[1]
	}

	count := p.m * p.c * p.kh * p.kw
	if count < 0 {
		count = 0
	}
	values := make([]float32, count)
	for i := range values {
		values[i] = float32(i) * 0.25
	}

	x := MakeTensorValueInfo("X", TensorProtoFloat, []int64{p.n, p.c, p.h, p.w})
	w := MakeTensor("W", TensorProtoFloat, []int64{p.m, p.c, p.kh, p.kw}, values)
	y := MakeTensorValueInfo("Y", TensorProtoFloat, []int64{p.n, p.m, outH, outW})
	node := MakeNode("Conv", []string{"X", "W"}, []string{"Y"},
		AttrInts("kernel_shape", p.kh, p.kw),
		AttrInts("pads", p.ph, p.pw, p.ph, p.pw),
		AttrInts("strides", p.sh, p.sw),
	)
	graph := MakeGraph([]NodeProto{node}, "conv_test", []ValueInfoProto{x}, []ValueInfoProto{y}, []TensorProto{w})
	model := MakeModel(graph, MakeOpsetID("", p.opset))
	model.IRVersion = p.ir
	return model
}
