package fixture

import (
	"github.com/hipdnn-ep/convgen/internal/onnx"
	"github.com/hipdnn-ep/convgen/internal/tensor"
)

// Version is stamped into generated models as producer_version.
const Version = "v0.1.0"

// Fixed properties of every generated model.
const (
	GraphName    = "conv_test"
	InputName    = "X"
	WeightName   = "W"
	OutputName   = "Y"
	OpsetVersion = 13
	IRVersion    = 8

	DefaultOutput   = "conv_test.onnx"
	DefaultProducer = "convgen"
)

// Config describes one convolution fixture.
//
// No field is range-checked on the way in; invalid values surface as
// validation failures when the model is checked.
type Config struct {
	Batch       int
	InChannels  int
	OutChannels int
	Height      int
	Width       int
	KernelH     int
	KernelW     int
	PadH        int
	PadW        int
	StrideH     int
	StrideW     int

	// Output is the path of the .onnx file. The weights go next to it, see CompanionPath.
	Output string

	// Seed makes weight generation reproducible. Nil draws a fresh seed per run.
	Seed *uint64

	ProducerName    string
	ProducerVersion string
}

// DefaultConfig returns a 1x1x8x8 input convolved with one 3x3 kernel,
// padding 1 and stride 1, which preserves the spatial size.
func DefaultConfig() Config {
	return Config{
		Batch:           1,
		InChannels:      1,
		OutChannels:     1,
		Height:          8,
		Width:           8,
		KernelH:         3,
		KernelW:         3,
		PadH:            1,
		PadW:            1,
		StrideH:         1,
		StrideW:         1,
		Output:          DefaultOutput,
		ProducerName:    DefaultProducer,
		ProducerVersion: Version,
	}
}

// OutputSize returns the spatial output dims for symmetric padding.
// Results below 1 are returned as computed; the checker rejects them.
func OutputSize(cfg Config) (outH, outW int) {
	outH = onnx.ConvOutputDim(cfg.Height, cfg.KernelH, cfg.PadH, cfg.PadH, cfg.StrideH)
	outW = onnx.ConvOutputDim(cfg.Width, cfg.KernelW, cfg.PadW, cfg.PadW, cfg.StrideW)
	return outH, outW
}

// InputShape is [batch, in_channels, height, width].
func (c Config) InputShape() tensor.Shape {
	return tensor.Shape{c.Batch, c.InChannels, c.Height, c.Width}
}

// WeightShape is [out_channels, in_channels, kernel_h, kernel_w].
func (c Config) WeightShape() tensor.Shape {
	return tensor.Shape{c.OutChannels, c.InChannels, c.KernelH, c.KernelW}
}

// OutputShape is [batch, out_channels, out_h, out_w].
func (c Config) OutputShape() tensor.Shape {
	outH, outW := OutputSize(c)
	return tensor.Shape{c.Batch, c.OutChannels, outH, outW}
}
