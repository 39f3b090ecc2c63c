package onnx

import (
	"fmt"

	"github.com/pkg/errors"
)

// CheckOptions configures Check.
type CheckOptions struct {
	// Registry supplies operator schemas (default: the built-in registry).
	Registry *Registry

	// SkipShapeInference disables operator shape inference and the comparison
	// of inferred against declared graph output shapes.
	SkipShapeInference bool
}

// DefaultCheckOptions returns the options used by Check when none are given.
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		Registry:           defaultRegistry,
		SkipShapeInference: false,
	}
}

// Check validates the structure of a model and returns the first violation
// found as a *ValidationError.
//
// It enforces version compatibility, unique and defined names, well-formed
// value infos and initializers, operator schemas and attributes, and (unless
// disabled) shape inference against the declared graph outputs.
func Check(m *ModelProto, opts ...CheckOptions) error {
	opt := DefaultCheckOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Registry == nil {
		opt.Registry = defaultRegistry
	}

	if m == nil {
		return violation(ErrInvalidModel, "", "", "model is nil")
	}
	opset, err := checkVersions(m)
	if err != nil {
		return err
	}
	c := &graphChecker{
		opt:   opt,
		opset: opset,
		types: make(map[string]*TypeInfo),
		kinds: make(map[string]string),
	}
	return c.check(m.Graph)
}

// checkVersions validates IR version and opset imports and returns the default-domain opset.
func checkVersions(m *ModelProto) (int64, error) {
	if m.IRVersion == 0 {
		return 0, violation(ErrInvalidModel, "", "", "missing ir_version")
	}
	if m.IRVersion < minIRVersion || m.IRVersion > MaxIRVersion {
		return 0, violation(ErrUnsupportedVersion, "", "",
			"ir_version %d outside supported range [%d, %d]", m.IRVersion, minIRVersion, MaxIRVersion)
	}
	if len(m.OpsetImport) == 0 {
		return 0, violation(ErrInvalidModel, "", "", "model with IR version >= 3 must specify opset_import")
	}

	seen := make(map[string]bool)
	opset := int64(-1)
	for _, o := range m.OpsetImport {
		domain := normalizeDomain(o.Domain)
		if seen[domain] {
			return 0, violation(ErrDuplicateName, "", o.Domain, "opset_import lists domain twice")
		}
		seen[domain] = true
		if domain == "" {
			opset = o.Version
		}
	}
	if opset < 0 {
		return 0, violation(ErrInvalidModel, "", "", "opset_import has no entry for the default domain")
	}
	if opset < 1 || opset > MaxOpsetVersion {
		return 0, violation(ErrUnsupportedVersion, "", "",
			"opset version %d outside supported range [1, %d]", opset, MaxOpsetVersion)
	}
	if need := MinIRVersionForOpset(opset); m.IRVersion < need {
		return 0, violation(ErrUnsupportedVersion, "", "",
			"ir_version %d cannot carry opset %d (requires ir_version >= %d)", m.IRVersion, opset, need)
	}
	return opset, nil
}

// graphChecker carries the symbol table while walking a graph.
type graphChecker struct {
	opt   CheckOptions
	opset int64
	types map[string]*TypeInfo // Known type per defined name
	kinds map[string]string    // "graph input", "initializer" or "output of node N"
}

func (c *graphChecker) define(name, kind, node string) error {
	if name == "" {
		return violation(ErrInvalidModel, node, "", "%s has an empty name", kind)
	}
	if prev, ok := c.kinds[name]; ok {
		return violation(ErrDuplicateName, node, name, "defined as %s and again as %s", prev, kind)
	}
	c.kinds[name] = kind
	return nil
}

func (c *graphChecker) check(g *GraphProto) error {
	if g == nil {
		return violation(ErrInvalidModel, "", "", "model has no graph")
	}
	if g.Name == "" {
		return violation(ErrInvalidModel, "", "", "graph has no name")
	}

	for i := range g.Inputs {
		vi := &g.Inputs[i]
		if err := c.define(vi.Name, "graph input", ""); err != nil {
			return err
		}
		ti, err := checkValueInfo(vi)
		if err != nil {
			return err
		}
		c.types[vi.Name] = ti
	}

	for i := range g.Initializers {
		t := &g.Initializers[i]
		if err := c.define(t.Name, "initializer", ""); err != nil {
			return err
		}
		if err := checkTensor(t); err != nil {
			return err
		}
		c.types[t.Name] = &TypeInfo{ElemType: t.DataType, Dims: append([]int64{}, t.Dims...)}
	}

	for i := range g.Nodes {
		if err := c.checkNode(&g.Nodes[i], i); err != nil {
			return err
		}
	}

	return c.checkOutputs(g.Outputs)
}

func nodeLabel(n *NodeProto, index int) string {
	if n.Name != "" {
		return fmt.Sprintf("%s (%s)", n.Name, n.OpType)
	}
	return fmt.Sprintf("#%d (%s)", index, n.OpType)
}

//nolint:gocognit,gocyclo,cyclop // Walks every per-node rule in order.
func (c *graphChecker) checkNode(n *NodeProto, index int) error {
	label := nodeLabel(n, index)
	if n.OpType == "" {
		return violation(ErrInvalidModel, label, "", "node has no op_type")
	}
	schema, ok := c.opt.Registry.Lookup(n.Domain, n.OpType, c.opset)
	if !ok {
		return violation(ErrSchema, label, n.OpType, "no schema registered for opset %d", c.opset)
	}

	if len(n.Inputs) < schema.MinInputs || len(n.Inputs) > schema.MaxInputs {
		return violation(ErrSchema, label, "", "has %d inputs, schema allows [%d, %d]",
			len(n.Inputs), schema.MinInputs, schema.MaxInputs)
	}
	if len(n.Outputs) < schema.MinOutputs || len(n.Outputs) > schema.MaxOutputs {
		return violation(ErrSchema, label, "", "has %d outputs, schema allows [%d, %d]",
			len(n.Outputs), schema.MinOutputs, schema.MaxOutputs)
	}

	if err := checkAttributes(n, schema, label); err != nil {
		return err
	}

	inputs := make([]*TypeInfo, len(n.Inputs))
	for i, name := range n.Inputs {
		if name == "" {
			if i < schema.MinInputs {
				return violation(ErrSchema, label, "", "required input %d is empty", i)
			}
			continue // Omitted optional input
		}
		if _, ok := c.kinds[name]; !ok {
			return violation(ErrUndefinedName, label, name,
				"input is not a graph input, initializer or earlier node output")
		}
		inputs[i] = c.types[name]
		if inputs[i] != nil && inputs[i].ElemType != TensorProtoUndefined && !schema.AllowsType(inputs[i].ElemType) {
			return violation(ErrSchema, label, name, "element type %d not allowed", inputs[i].ElemType)
		}
	}

	for _, name := range n.Outputs {
		if err := c.define(name, "output of node "+label, label); err != nil {
			return err
		}
	}

	if c.opt.SkipShapeInference || schema.Infer == nil {
		return nil
	}
	outs, err := schema.Infer(n, inputs)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Node = label
			return ve
		}
		return violation(ErrShapeInference, label, "", "%v", err)
	}
	for i, name := range n.Outputs {
		if i < len(outs) {
			c.types[name] = outs[i]
		}
	}
	return nil
}

//nolint:gocognit // One rule per attribute property.
func checkAttributes(n *NodeProto, schema *OpSchema, label string) error {
	seen := make(map[string]bool, len(n.Attributes))
	for i := range n.Attributes {
		a := &n.Attributes[i]
		if a.Name == "" {
			return violation(ErrInvalidAttribute, label, "", "attribute %d has no name", i)
		}
		if seen[a.Name] {
			return violation(ErrDuplicateName, label, a.Name, "attribute appears twice")
		}
		seen[a.Name] = true

		spec, ok := schema.Attributes[a.Name]
		if !ok {
			return violation(ErrInvalidAttribute, label, a.Name,
				"not an attribute of %s-%d", schema.OpType, schema.SinceVersion)
		}
		if a.Type == AttributeProtoUndefined {
			return violation(ErrInvalidAttribute, label, a.Name, "attribute has no type")
		}
		if a.Type != spec.Type {
			return violation(ErrInvalidAttribute, label, a.Name, "has type %s, schema requires %s",
				attributeTypeName(a.Type), attributeTypeName(spec.Type))
		}
		if err := checkAttributePayload(a); err != nil {
			return violation(ErrInvalidAttribute, label, a.Name, "%v", err)
		}
	}
	for name, spec := range schema.Attributes {
		if spec.Required && !seen[name] {
			return violation(ErrInvalidAttribute, label, name, "required attribute is missing")
		}
	}
	return nil
}

// checkAttributePayload requires that no value field other than the one
// selected by the attribute type is set. Empty lists are accepted.
func checkAttributePayload(a *AttributeProto) error {
	set := map[int32]bool{
		AttributeProtoFloat:   a.F != 0,
		AttributeProtoInt:     a.I != 0,
		AttributeProtoString:  len(a.S) > 0,
		AttributeProtoTensor:  a.T != nil,
		AttributeProtoGraph:   a.G != nil,
		AttributeProtoFloats:  len(a.Floats) > 0,
		AttributeProtoInts:    len(a.Ints) > 0,
		AttributeProtoStrings: len(a.Strings) > 0,
		AttributeProtoTensors: len(a.Tensors) > 0,
		AttributeProtoGraphs:  len(a.Graphs) > 0,
	}
	for typ, isSet := range set {
		if isSet && typ != a.Type {
			return errors.Errorf("type %s but a %s value is set", attributeTypeName(a.Type), attributeTypeName(typ))
		}
	}
	if (a.Type == AttributeProtoTensor && a.T == nil) || (a.Type == AttributeProtoGraph && a.G == nil) {
		return errors.Errorf("type %s but no value is set", attributeTypeName(a.Type))
	}
	return nil
}

// checkValueInfo validates a declared input or output and returns its type.
func checkValueInfo(vi *ValueInfoProto) (*TypeInfo, error) {
	if vi.Type == nil || vi.Type.TensorType == nil {
		return nil, violation(ErrInvalidModel, "", vi.Name, "value has no tensor type")
	}
	tt := vi.Type.TensorType
	if tt.ElemType <= TensorProtoUndefined || tt.ElemType > maxKnownDataType {
		return nil, violation(ErrInvalidTensor, "", vi.Name, "undefined element type %d", tt.ElemType)
	}
	ti := &TypeInfo{ElemType: tt.ElemType}
	dims, ok := vi.Dims()
	if !ok {
		return ti, nil
	}
	for i, d := range dims {
		if d == -1 && tt.Shape.Dims[i].DimParam != "" {
			continue
		}
		if d == 0 {
			return nil, violation(ErrInvalidTensor, "", vi.Name, "dimension %d is 0: zero-size dims are not supported", i)
		}
		if d < 0 {
			return nil, violation(ErrInvalidTensor, "", vi.Name, "dimension %d is %d: static dims must be positive", i, d)
		}
	}
	ti.Dims = dims
	return ti, nil
}

// checkTensor validates an initializer.
func checkTensor(t *TensorProto) error {
	if t.DataType <= TensorProtoUndefined || t.DataType > maxKnownDataType {
		return violation(ErrInvalidTensor, "", t.Name, "undefined data type %d", t.DataType)
	}
	for i, d := range t.Dims {
		if d == 0 {
			return violation(ErrInvalidTensor, "", t.Name, "dimension %d is 0: zero-size dims are not supported", i)
		}
		if d < 0 {
			return violation(ErrInvalidTensor, "", t.Name, "dimension %d is %d: dims must be non-negative", i, d)
		}
	}

	typed := len(t.FloatData) + len(t.Int32Data) + len(t.Int64Data)
	if typed > 0 && len(t.RawData) > 0 {
		return violation(ErrInvalidTensor, "", t.Name, "has both raw_data and typed data")
	}
	want, err := t.NumElements()
	if err != nil {
		return violation(ErrInvalidTensor, "", t.Name, "element count of dims %v overflows int64", t.Dims)
	}
	var got int64
	switch {
	case len(t.RawData) > 0:
		size := elementSize(t.DataType)
		if size == 0 {
			return violation(ErrInvalidTensor, "", t.Name, "raw_data not supported for data type %d", t.DataType)
		}
		if int64(len(t.RawData))%size != 0 {
			return violation(ErrInvalidTensor, "", t.Name, "raw_data length %d is not a multiple of %d",
				len(t.RawData), size)
		}
		got = int64(len(t.RawData)) / size
	case t.DataType == TensorProtoFloat:
		got = int64(len(t.FloatData))
	case t.DataType == TensorProtoInt64:
		got = int64(len(t.Int64Data))
	default:
		got = int64(len(t.Int32Data))
	}
	if got != want {
		return violation(ErrInvalidTensor, "", t.Name, "holds %d elements, dims %v require %d", got, t.Dims, want)
	}
	return nil
}

func elementSize(dataType int32) int64 {
	switch dataType {
	case TensorProtoUint8, TensorProtoInt8, TensorProtoBool:
		return 1
	case TensorProtoUint16, TensorProtoInt16, TensorProtoFloat16, TensorProtoBfloat16:
		return 2
	case TensorProtoFloat, TensorProtoInt32, TensorProtoUint32:
		return 4
	case TensorProtoDouble, TensorProtoInt64, TensorProtoUint64, TensorProtoComplex64:
		return 8
	case TensorProtoComplex128:
		return 16
	default:
		return 0
	}
}

// checkOutputs validates graph outputs against what the nodes produced.
func (c *graphChecker) checkOutputs(outputs []ValueInfoProto) error {
	seen := make(map[string]bool, len(outputs))
	for i := range outputs {
		vi := &outputs[i]
		if vi.Name == "" {
			return violation(ErrInvalidModel, "", "", "graph output %d has an empty name", i)
		}
		if seen[vi.Name] {
			return violation(ErrDuplicateName, "", vi.Name, "graph output listed twice")
		}
		seen[vi.Name] = true
		if _, ok := c.kinds[vi.Name]; !ok {
			return violation(ErrUndefinedName, "", vi.Name, "graph output is not produced by any node")
		}
		declared, err := checkValueInfo(vi)
		if err != nil {
			return err
		}
		if c.opt.SkipShapeInference {
			continue
		}
		if err := compareTypes(vi.Name, declared, c.types[vi.Name]); err != nil {
			return err
		}
	}
	return nil
}

func compareTypes(name string, declared, inferred *TypeInfo) error {
	if inferred == nil {
		return nil
	}
	if inferred.ElemType != TensorProtoUndefined && declared.ElemType != inferred.ElemType {
		return violation(ErrShapeInference, "", name, "declared element type %d, inferred %d",
			declared.ElemType, inferred.ElemType)
	}
	if !declared.HasShape() || !inferred.HasShape() {
		return nil
	}
	if len(declared.Dims) != len(inferred.Dims) {
		return violation(ErrShapeInference, "", name, "declared rank %d, inferred rank %d",
			len(declared.Dims), len(inferred.Dims))
	}
	for i := range declared.Dims {
		d, inf := declared.Dims[i], inferred.Dims[i]
		if d > 0 && inf > 0 && d != inf {
			return violation(ErrShapeInference, "", name, "declared shape %v, inferred %v",
				declared.Dims, inferred.Dims)
		}
	}
	return nil
}
