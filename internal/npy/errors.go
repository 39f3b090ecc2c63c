package npy

import "errors"

// Errors returned by Read.
var (
	ErrInvalidMagic       = errors.New("invalid npy magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported npy format version")
	ErrUnsupportedDType   = errors.New("unsupported npy dtype")
	ErrMalformedHeader    = errors.New("malformed npy header")
	ErrShapeMismatch      = errors.New("npy payload does not match shape")
)
