package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipdnn-ep/convgen/internal/npy"
	"github.com/hipdnn-ep/convgen/internal/onnx"
	"github.com/hipdnn-ep/convgen/internal/tensor"
)

func parse(t *testing.T, args ...string) *options {
	t.Helper()
	fs := flag.NewFlagSet("convgen", flag.ContinueOnError)
	opts := registerFlags(fs)
	require.NoError(t, fs.Parse(args))
	return opts
}

func TestDefaults(t *testing.T) {
	cfg := parse(t).config()
	assert.Equal(t, "conv_test.onnx", cfg.Output)
	assert.Equal(t, tensor.Shape{1, 1, 8, 8}, cfg.InputShape())
	assert.Equal(t, tensor.Shape{1, 1, 3, 3}, cfg.WeightShape())
	assert.Nil(t, cfg.Seed)
}

func TestFlags(t *testing.T) {
	cfg := parse(t, "-o", "x.onnx", "--in-channels", "3", "-out-channels=16",
		"-height", "10", "-width", "6", "-kernel", "5", "-pad", "2", "-stride", "2", "-seed", "7").config()
	assert.Equal(t, "x.onnx", cfg.Output)
	assert.Equal(t, tensor.Shape{1, 3, 10, 6}, cfg.InputShape())
	assert.Equal(t, tensor.Shape{16, 3, 5, 5}, cfg.WeightShape())
	assert.Equal(t, 2, cfg.PadW)
	assert.Equal(t, 2, cfg.StrideH)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(7), *cfg.Seed)
}

func TestRunDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "conv_test.onnx")
	opts := parse(t, "-output", out, "-seed", "1", "-verify")

	var buf bytes.Buffer
	require.NoError(t, run(opts, &buf))
	text := buf.String()
	assert.Contains(t, text, "Saved model to "+out+"\n")
	assert.Contains(t, text, "  Input shape: [1, 1, 8, 8]\n")
	assert.Contains(t, text, "  Weight shape: [1, 1, 3, 3]\n")
	assert.Contains(t, text, "  Output shape: [1, 1, 8, 8]\n")
	assert.Contains(t, text, "Saved weights to "+filepath.Join(filepath.Dir(out), "conv_test_weights.npy")+"\n")
	assert.Contains(t, text, "Verified model and weights")

	model := must.M1(onnx.ParseFile(out))
	require.NoError(t, onnx.Check(model))
	arr := must.M1(npy.ReadFile(filepath.Join(filepath.Dir(out), "conv_test_weights.npy")))
	assert.Len(t, arr.Values, 9)
}

func TestRunDegenerateFails(t *testing.T) {
	dir := t.TempDir()
	opts := parse(t, "-o", filepath.Join(dir, "bad.onnx"), "-height", "4", "-width", "4", "-kernel", "5", "-pad", "0")

	var buf bytes.Buffer
	err := run(opts, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, onnx.ErrShapeInference)
	assert.Empty(t, buf.String())
	assert.Empty(t, must.M1(os.ReadDir(dir)))
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(parse(t, "-version"), &buf))
	assert.Contains(t, buf.String(), "convgen v")
}
