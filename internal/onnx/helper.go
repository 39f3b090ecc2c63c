package onnx

// Builders for assembling models in code. They only construct messages;
// nothing is validated until Check.

// MakeTensorValueInfo declares a tensor value with static dims.
func MakeTensorValueInfo(name string, elemType int32, dims []int64) ValueInfoProto {
	shape := &TensorShapeProto{Dims: make([]DimensionProto, len(dims))}
	for i, d := range dims {
		shape.Dims[i] = DimensionProto{DimValue: d}
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{
			TensorType: &TensorTypeProto{
				ElemType: elemType,
				Shape:    shape,
			},
		},
	}
}

// MakeTensor builds a FLOAT initializer holding values in float_data.
// The values slice is copied.
func MakeTensor(name string, dataType int32, dims []int64, values []float32) TensorProto {
	data := make([]float32, len(values))
	copy(data, values)
	d := make([]int64, len(dims))
	copy(d, dims)
	return TensorProto{
		Name:      name,
		DataType:  dataType,
		Dims:      d,
		FloatData: data,
	}
}

// MakeNode builds a node in the default domain.
func MakeNode(opType string, inputs, outputs []string, attrs ...AttributeProto) NodeProto {
	return NodeProto{
		OpType:     opType,
		Inputs:     inputs,
		Outputs:    outputs,
		Attributes: attrs,
	}
}

// AttrInts builds an INTS attribute.
func AttrInts(name string, values ...int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInts, Ints: values}
}

// AttrInt builds an INT attribute.
func AttrInt(name string, value int64) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoInt, I: value}
}

// AttrString builds a STRING attribute.
func AttrString(name, value string) AttributeProto {
	return AttributeProto{Name: name, Type: AttributeProtoString, S: []byte(value)}
}

// MakeGraph assembles a graph. Argument order follows onnx.helper.make_graph.
func MakeGraph(nodes []NodeProto, name string, inputs, outputs []ValueInfoProto, initializers []TensorProto) *GraphProto {
	return &GraphProto{
		Name:         name,
		Nodes:        nodes,
		Inputs:       inputs,
		Outputs:      outputs,
		Initializers: initializers,
	}
}

// MakeOpsetID builds an operator set import.
func MakeOpsetID(domain string, version int64) OperatorSetID {
	return OperatorSetID{Domain: domain, Version: version}
}

// MakeModel wraps graph in a model importing the given operator sets.
// The IR version defaults to MaxIRVersion; callers pinning an older IR set it afterwards.
func MakeModel(graph *GraphProto, opsets ...OperatorSetID) *ModelProto {
	return &ModelProto{
		IRVersion:   MaxIRVersion,
		OpsetImport: opsets,
		Graph:       graph,
	}
}
