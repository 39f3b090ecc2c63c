package onnx

// Integer is the set of integer types the convolution arithmetic works on.
type Integer interface {
	~int | ~int32 | ~int64
}

// ConvOutputDim returns the output size of one spatial axis of a convolution:
//
//	floor((in + padBegin + padEnd - kernel) / stride) + 1
//
// Division rounds toward negative infinity, so a kernel larger than the padded
// input yields a value below 1 rather than being rounded up to 1. A
// non-positive stride returns 0, which the checker rejects.
func ConvOutputDim[T Integer](in, kernel, padBegin, padEnd, stride T) T {
	return ConvOutputDimDilated(in, kernel, padBegin, padEnd, stride, 1)
}

// ConvOutputDimDilated is ConvOutputDim with a dilation factor applied to the kernel.
func ConvOutputDimDilated[T Integer](in, kernel, padBegin, padEnd, stride, dilation T) T {
	if stride <= 0 {
		return 0
	}
	effective := (kernel-1)*dilation + 1
	return floorDiv(in+padBegin+padEnd-effective, stride) + 1
}

// sameOutputDim is the output size for auto_pad SAME_UPPER/SAME_LOWER: ceil(in / stride).
func sameOutputDim[T Integer](in, stride T) T {
	if stride <= 0 {
		return 0
	}
	return -floorDiv(-in, stride)
}

func floorDiv[T Integer](a, b T) T {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
