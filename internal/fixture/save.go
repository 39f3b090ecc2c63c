package fixture

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/hipdnn-ep/convgen/internal/npy"
	"github.com/hipdnn-ep/convgen/internal/onnx"
)

const weightsSuffix = "_weights.npy"

// Artifacts lists the files written for a fixture.
type Artifacts struct {
	ModelPath    string
	ModelBytes   int64
	WeightsPath  string
	WeightsBytes int64
}

// Result is what Generate produced.
type Result struct {
	Fixture   *Fixture
	Artifacts *Artifacts
}

// CompanionPath returns where the weights of the model at path are written:
// a trailing ".onnx" (any case) becomes "_weights.npy", any other path gets
// "_weights.npy" appended.
func CompanionPath(path string) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".onnx") {
		return strings.TrimSuffix(path, ext) + weightsSuffix
	}
	return path + weightsSuffix
}

// Save writes the model to path and its weights to CompanionPath(path).
// Each file is replaced atomically.
func Save(f *Fixture, path string) (*Artifacts, error) {
	if path == "" {
		return nil, errors.Wrap(ErrInvalidConfig, "empty output path")
	}

	modelBytes, err := onnx.WriteFile(path, f.Model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save model")
	}
	klog.V(1).Infof("wrote %s (%d bytes)", path, modelBytes)

	weightsPath := CompanionPath(path)
	weightsBytes, err := npy.WriteFile(weightsPath, f.Weight.Shape, f.Weight.Values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to save weights")
	}
	klog.V(1).Infof("wrote %s (%d bytes)", weightsPath, weightsBytes)

	return &Artifacts{
		ModelPath:    path,
		ModelBytes:   int64(modelBytes),
		WeightsPath:  weightsPath,
		WeightsBytes: weightsBytes,
	}, nil
}

// Generate builds, checks and saves the fixture described by cfg.
// Nothing is written if the model fails validation.
func Generate(cfg Config) (*Result, error) {
	f, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	if err := Check(f); err != nil {
		return nil, err
	}
	artifacts, err := Save(f, cfg.Output)
	if err != nil {
		return nil, err
	}
	return &Result{Fixture: f, Artifacts: artifacts}, nil
}
