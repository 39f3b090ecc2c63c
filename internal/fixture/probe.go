package fixture

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/hipdnn-ep/convgen/internal/onnx"
)

// Probe reports whether a Conv model with the given opset and IR version can
// be built and checked. The CLI runs it before doing any work.
//
// With the pinned OpsetVersion and IRVersion it only fails when the schema
// registry or the IR/opset table stops covering them, so that drift is caught
// before any file is touched rather than as a checker error afterwards.
func Probe(opset, irVersion int64) error {
	if opset < 1 || opset > onnx.MaxOpsetVersion {
		return errors.Wrapf(ErrMissingCapability, "opset %d is outside the supported range [1, %d]", opset, onnx.MaxOpsetVersion)
	}
	schema, ok := onnx.LookupSchema("", "Conv", opset)
	if !ok {
		return errors.Wrapf(ErrMissingCapability, "no Conv schema for opset %d", opset)
	}
	if minIR := onnx.MinIRVersionForOpset(opset); irVersion < minIR || irVersion > onnx.MaxIRVersion {
		return errors.Wrapf(ErrMissingCapability, "IR version %d cannot host opset %d (need %d..%d)",
			irVersion, opset, minIR, onnx.MaxIRVersion)
	}
	klog.V(2).Infof("probe ok: Conv-%d under opset %d, IR %d", schema.SinceVersion, opset, irVersion)
	return nil
}
