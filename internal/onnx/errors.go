package onnx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Checker and codec errors. Every *ValidationError wraps one of these.
var (
	ErrInvalidModel       = errors.New("invalid model")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrDuplicateName      = errors.New("duplicate name")
	ErrUndefinedName      = errors.New("undefined name")
	ErrInvalidTensor      = errors.New("invalid tensor")
	ErrInvalidAttribute   = errors.New("invalid attribute")
	ErrSchema             = errors.New("schema violation")
	ErrShapeInference     = errors.New("shape inference failed")
	ErrMalformed          = errors.New("malformed protobuf")
)

// ValidationError describes a single structural violation found by Check.
type ValidationError struct {
	Kind    error  // One of the Err* sentinels above
	Node    string // Node the violation was found in ("" for graph-level issues)
	Name    string // Tensor, attribute or value name involved
	Details string // Human-readable details
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch {
	case e.Node != "" && e.Name != "":
		return fmt.Sprintf("%v: node %s: %q: %s", e.Kind, e.Node, e.Name, e.Details)
	case e.Node != "":
		return fmt.Sprintf("%v: node %s: %s", e.Kind, e.Node, e.Details)
	case e.Name != "":
		return fmt.Sprintf("%v: %q: %s", e.Kind, e.Name, e.Details)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Details)
	}
}

// Unwrap exposes Kind to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func violation(kind error, node, name, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Node:    node,
		Name:    name,
		Details: fmt.Sprintf(format, args...),
	}
}
