package fixture

import "errors"

var (
	// ErrMissingCapability means the ONNX layer cannot express or check the requested model.
	ErrMissingCapability = errors.New("missing capability")
	// ErrInvalidConfig is returned for configurations that cannot even be assembled.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrArtifactMismatch means a reloaded artifact differs from what was generated.
	ErrArtifactMismatch = errors.New("artifact mismatch")
)
