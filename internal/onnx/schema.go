package onnx

import (
	"sort"
)

// Version bounds this package understands.
const (
	MaxIRVersion    = 10
	MaxOpsetVersion = 22

	minIRVersion = 3
)

// MinIRVersionForOpset returns the oldest IR version that can carry opset
// version opset of the default domain, following the ONNX release table.
func MinIRVersionForOpset(opset int64) int64 {
	switch {
	case opset <= 8:
		return 3
	case opset == 9:
		return 4
	case opset == 10:
		return 5
	case opset == 11:
		return 6
	case opset <= 14:
		return 7
	case opset <= 18:
		return 8
	case opset <= 20:
		return 9
	default:
		return 10
	}
}

// TypeInfo is what shape inference knows about one value.
// Dims is nil when the shape is unknown; a -1 entry is an unknown dimension.
type TypeInfo struct {
	ElemType int32
	Dims     []int64
}

// HasShape reports whether the rank is known.
func (ti *TypeInfo) HasShape() bool {
	return ti != nil && ti.Dims != nil
}

// InferFunc validates node against its inputs and returns one TypeInfo per output.
// Entries of inputs are nil for omitted optional inputs.
type InferFunc func(node *NodeProto, inputs []*TypeInfo) ([]*TypeInfo, error)

// AttrSpec declares one attribute of an operator schema.
type AttrSpec struct {
	Type     int32
	Required bool
}

// OpSchema describes one version of an operator.
type OpSchema struct {
	Domain       string
	OpType       string
	SinceVersion int64
	MinInputs    int
	MaxInputs    int
	MinOutputs   int
	MaxOutputs   int
	Attributes   map[string]AttrSpec
	InputTypes   []int32 // Allowed element types for the type-constrained inputs
	Infer        InferFunc
}

// AllowsType reports whether elemType satisfies the schema's type constraint.
func (s *OpSchema) AllowsType(elemType int32) bool {
	if len(s.InputTypes) == 0 {
		return true
	}
	for _, t := range s.InputTypes {
		if t == elemType {
			return true
		}
	}
	return false
}

// Registry maps (domain, op type) to the schema versions it knows.
type Registry struct {
	schemas map[string][]*OpSchema // sorted by SinceVersion
}

// NewRegistry creates a registry with all built-in schemas.
func NewRegistry() *Registry {
	r := &Registry{
		schemas: make(map[string][]*OpSchema),
	}
	r.registerConv()
	return r
}

// Register adds a schema version. A schema with the same SinceVersion replaces the old one.
func (r *Registry) Register(s *OpSchema) {
	key := schemaKey(s.Domain, s.OpType)
	versions := r.schemas[key]
	for i, existing := range versions {
		if existing.SinceVersion == s.SinceVersion {
			versions[i] = s
			return
		}
	}
	versions = append(versions, s)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].SinceVersion < versions[j].SinceVersion
	})
	r.schemas[key] = versions
}

// Lookup returns the newest schema version not newer than opset.
func (r *Registry) Lookup(domain, opType string, opset int64) (*OpSchema, bool) {
	versions := r.schemas[schemaKey(domain, opType)]
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].SinceVersion <= opset {
			return versions[i], true
		}
	}
	return nil, false
}

// SupportedOps returns a sorted list of registered operator types.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.schemas))
	seen := make(map[string]bool)
	for _, versions := range r.schemas {
		if len(versions) == 0 || seen[versions[0].OpType] {
			continue
		}
		seen[versions[0].OpType] = true
		ops = append(ops, versions[0].OpType)
	}
	sort.Strings(ops)
	return ops
}

var defaultRegistry = NewRegistry()

// LookupSchema queries the built-in registry.
func LookupSchema(domain, opType string, opset int64) (*OpSchema, bool) {
	return defaultRegistry.Lookup(domain, opType, opset)
}

// ListSupportedOps returns all operator types the checker knows.
func ListSupportedOps() []string {
	return defaultRegistry.SupportedOps()
}

func normalizeDomain(domain string) string {
	if domain == "ai.onnx" {
		return ""
	}
	return domain
}

func schemaKey(domain, opType string) string {
	return normalizeDomain(domain) + "::" + opType
}
