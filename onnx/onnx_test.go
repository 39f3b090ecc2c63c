package onnx_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipdnn-ep/convgen/internal/fixture"
	"github.com/hipdnn-ep/convgen/onnx"
)

func TestReadGeneratedFixture(t *testing.T) {
	cfg := fixture.DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "conv_test.onnx")
	res, err := fixture.Generate(cfg)
	require.NoError(t, err)

	model, err := onnx.ParseFile(res.Artifacts.ModelPath)
	require.NoError(t, err)
	require.NoError(t, onnx.Check(model))

	w := model.Initializer("W")
	require.NotNil(t, w)
	values, err := w.Float32s()
	require.NoError(t, err)
	assert.Equal(t, res.Fixture.Weight.Values, values)

	info, err := onnx.GetModelInfo(res.Artifacts.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, "conv_test", info.GraphName)
	assert.Equal(t, []string{"Conv"}, info.OpTypes)
	assert.Equal(t, 1, info.WeightCount)
}

func TestCheckReportsValidationError(t *testing.T) {
	f, err := fixture.Build(fixture.DefaultConfig())
	require.NoError(t, err)
	f.Model.Graph.Nodes[0].Inputs[1] = "missing"

	err = onnx.Check(f.Model)
	require.Error(t, err)
	assert.True(t, errors.Is(err, onnx.ErrUndefinedName))
	var ve *onnx.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "missing", ve.Name)
}

func TestMarshalParse(t *testing.T) {
	f, err := fixture.Build(fixture.DefaultConfig())
	require.NoError(t, err)

	data, err := onnx.Marshal(f.Model)
	require.NoError(t, err)
	model, err := onnx.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f.Model.Graph.Name, model.Graph.Name)

	_, err = onnx.Parse([]byte{0xff})
	assert.ErrorIs(t, err, onnx.ErrMalformed)
}

func TestConvOutputDim(t *testing.T) {
	assert.Equal(t, int64(8), onnx.ConvOutputDim(8, 3, 1, 1, 1))
	assert.Equal(t, int64(4), onnx.ConvOutputDim(10, 3, 0, 0, 2))
	assert.Equal(t, []string{"Conv"}, onnx.ListSupportedOps())
}
