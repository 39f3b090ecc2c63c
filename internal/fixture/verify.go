package fixture

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/hipdnn-ep/convgen/internal/npy"
	"github.com/hipdnn-ep/convgen/internal/onnx"
	"github.com/hipdnn-ep/convgen/internal/tensor"
)

// Verify reloads both artifacts of res and checks they describe the same
// fixture: the reloaded model passes validation, its X, W and Y shapes are
// the generated ones, and the weight values in the model, the .npy file and
// memory agree bit for bit.
func Verify(res *Result) error {
	f, a := res.Fixture, res.Artifacts

	model, err := onnx.ParseFile(a.ModelPath)
	if err != nil {
		return errors.Wrap(err, "failed to reload model")
	}
	if err := onnx.Check(model); err != nil {
		return errors.Wrap(err, "reloaded model failed validation")
	}

	if err := compareValueShape(model.Graph.Inputs, InputName, f.InputShape); err != nil {
		return err
	}
	if err := compareValueShape(model.Graph.Outputs, OutputName, f.OutputShape); err != nil {
		return err
	}

	init := model.Initializer(WeightName)
	if init == nil {
		return errors.Wrapf(ErrArtifactMismatch, "model has no initializer %q", WeightName)
	}
	modelWeights, err := init.Float32s()
	if err != nil {
		return errors.Wrap(ErrArtifactMismatch, err.Error())
	}
	if err := compareWeights("model initializer", tensor.FromInt64s(init.Dims), modelWeights, f.Weight); err != nil {
		return err
	}

	arr, err := npy.ReadFile(a.WeightsPath)
	if err != nil {
		return errors.Wrap(err, "failed to reload weights")
	}
	if err := compareWeights("weights file", arr.Shape, arr.Values, f.Weight); err != nil {
		return err
	}

	klog.V(1).Infof("verified %s and %s", a.ModelPath, a.WeightsPath)
	return nil
}

func compareValueShape(values []onnx.ValueInfoProto, name string, want tensor.Shape) error {
	for i := range values {
		if values[i].Name != name {
			continue
		}
		dims, ok := values[i].Dims()
		if !ok {
			return errors.Wrapf(ErrArtifactMismatch, "%s has no shape", name)
		}
		if got := tensor.FromInt64s(dims); !got.Equal(want) {
			return errors.Wrapf(ErrArtifactMismatch, "%s shape %s, want %s", name, got, want)
		}
		return nil
	}
	return errors.Wrapf(ErrArtifactMismatch, "model has no value %q", name)
}

func compareWeights(source string, shape tensor.Shape, values []float32, want Weight) error {
	if !shape.Equal(want.Shape) {
		return errors.Wrapf(ErrArtifactMismatch, "%s shape %s, want %s", source, shape, want.Shape)
	}
	if len(values) != len(want.Values) {
		return errors.Wrapf(ErrArtifactMismatch, "%s holds %d values, want %d", source, len(values), len(want.Values))
	}
	for i, v := range values {
		if math.Float32bits(v) != math.Float32bits(want.Values[i]) {
			return errors.Wrapf(ErrArtifactMismatch, "%s value %d is %v, want %v", source, i, v, want.Values[i])
		}
	}
	return nil
}
