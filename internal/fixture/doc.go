// Package fixture builds the single-Conv ONNX model used as a test fixture
// for convolution kernels, together with a NumPy dump of its weights.
//
// A fixture is one Conv node reading input X [N, C, H, W] and initializer
// W [M, C, kH, kW] and producing Y [N, M, outH, outW]. The model imports
// opset 13 and is stamped with IR version 8 so that older runtimes load it.
//
// Typical use:
//
//	res, err := fixture.Generate(fixture.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Artifacts.ModelPath, res.Artifacts.WeightsPath)
package fixture
