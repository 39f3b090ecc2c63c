package fixture

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/hipdnn-ep/convgen/internal/onnx"
	"github.com/hipdnn-ep/convgen/internal/tensor"
)

// Weight is the Conv kernel in its in-memory form.
type Weight struct {
	Name   string
	Shape  tensor.Shape
	Values []float32
}

// Fixture is an assembled, not yet validated, model.
type Fixture struct {
	Model       *onnx.ModelProto
	Weight      Weight
	InputShape  tensor.Shape
	OutputShape tensor.Shape
}

// Build assembles the model for cfg and draws its weights.
//
// Build does not validate cfg: a configuration that yields a zero or negative
// output size still produces a model, which Check then rejects. The only
// failure is a weight shape that cannot be allocated: a negative dimension or
// an element count that overflows int.
func Build(cfg Config) (*Fixture, error) {
	weightShape := cfg.WeightShape()
	count, err := weightShape.NumElementsChecked()
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "weight %s: %v", weightShape, err)
	}

	inputShape := cfg.InputShape()
	outputShape := cfg.OutputShape()
	klog.V(1).Infof("building Conv fixture: X%s * W%s -> Y%s", inputShape, weightShape, outputShape)

	values := tensor.Randn(count, tensor.NewRand(cfg.Seed))
	weight := Weight{Name: WeightName, Shape: weightShape, Values: values}

	x := onnx.MakeTensorValueInfo(InputName, tensor.Float32.ONNX(), inputShape.Int64s())
	y := onnx.MakeTensorValueInfo(OutputName, tensor.Float32.ONNX(), outputShape.Int64s())
	w := onnx.MakeTensor(WeightName, tensor.Float32.ONNX(), weightShape.Int64s(), values)

	node := onnx.MakeNode("Conv",
		[]string{InputName, WeightName},
		[]string{OutputName},
		onnx.AttrInts("kernel_shape", int64(cfg.KernelH), int64(cfg.KernelW)),
		onnx.AttrInts("pads", int64(cfg.PadH), int64(cfg.PadW), int64(cfg.PadH), int64(cfg.PadW)),
		onnx.AttrInts("strides", int64(cfg.StrideH), int64(cfg.StrideW)),
	)

	graph := onnx.MakeGraph(
		[]onnx.NodeProto{node},
		GraphName,
		[]onnx.ValueInfoProto{x},
		[]onnx.ValueInfoProto{y},
		[]onnx.TensorProto{w},
	)

	model := onnx.MakeModel(graph, onnx.MakeOpsetID("", OpsetVersion))
	model.IRVersion = IRVersion
	model.ProducerName = cfg.ProducerName
	model.ProducerVersion = cfg.ProducerVersion

	klog.V(2).Infof("weight %s: %d values", WeightName, len(values))
	return &Fixture{
		Model:       model,
		Weight:      weight,
		InputShape:  inputShape,
		OutputShape: outputShape,
	}, nil
}

// Check validates the fixture's model. Validation failures keep their
// *onnx.ValidationError reachable through errors.As.
func Check(f *Fixture) error {
	if err := onnx.Check(f.Model); err != nil {
		return errors.Wrap(err, "model validation failed")
	}
	klog.V(1).Info("model passed validation")
	return nil
}
