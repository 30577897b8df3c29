// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"path/filepath"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

// EvalConfig configures an evaluation run over the held-out test split.
type EvalConfig struct {
	// DataDir holds the manifest (train.csv) and the images/ subdirectory.
	DataDir string

	// CheckpointDir is the base directory trained models were saved under.
	CheckpointDir string

	Arch        Architecture
	BatchSize   int
	SplitRatios [3]float64

	// Seed must match the training run's seed for the test split to be
	// disjoint from the examples the model trained on.
	Seed int64

	// ConfusionMatrixPath, when non-empty, is where the confusion matrix
	// heatmap PNG is written.
	ConfusionMatrixPath string
}

// Evaluate scores the architecture's best checkpoint on the test split and
// prints a per-class classification report.
//
// A missing checkpoint is not fatal: evaluation proceeds with the pretrained
// backbone and an untrained head, with a loud warning, so the pipeline can be
// exercised end to end before any training has happened.
func Evaluate(backend backends.Backend, cfg EvalConfig) (EpochMetrics, *ConfusionMatrix, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.SplitRatios == [3]float64{} {
		cfg.SplitRatios = DefaultSplitRatios
	}

	manifestPath := filepath.Join(cfg.DataDir, ManifestFileName)
	imageDir := filepath.Join(cfg.DataDir, ImagesSubDir)
	_, _, testSet, err := NewSplits(manifestPath, imageDir, cfg.SplitRatios, cfg.Seed)
	if err != nil {
		return EpochMetrics{}, nil, err
	}
	classes := testSet.Manifest().Classes

	model, err := NewModel(backend, cfg.Arch, len(classes), classes)
	if err != nil {
		return EpochMetrics{}, nil, err
	}
	checkpointDir := CheckpointDirFor(cfg.CheckpointDir, cfg.Arch)
	var untrained bool
	if _, err := checkpoints.Load(model.Context()).Dir(checkpointDir).Done(); err != nil {
		untrained = true
		klog.Warningf("No usable checkpoint in %q (%v): evaluating the UNTRAINED model -- "+
			"pretrained backbone with a freshly initialized head. Train first for meaningful numbers.",
			checkpointDir, err)
	} else {
		if err := VerifyCheckpointArchitecture(model.Context(), cfg.Arch); err != nil {
			return EpochMetrics{}, nil, errors.WithMessagef(err, "checkpoint %q", checkpointDir)
		}
		klog.Infof("Loaded checkpoint from %q.", checkpointDir)
	}

	testDS := NewEvalLoader(backend, testSet, EvalTransforms(model.InputSize()), cfg.BatchSize)
	klog.Infof("Evaluating %s on %d test examples.", cfg.Arch, testSet.Len())
	epochMetrics, cm, err := evalPass(backend, model, testDS, classes)
	if err != nil {
		return EpochMetrics{}, nil, err
	}
	if untrained {
		fmt.Println("NOTE: no checkpoint found, scores below reflect an untrained classification head.")
	}
	fmt.Println(cm.ClassificationReport())

	if cfg.ConfusionMatrixPath != "" {
		if err := SaveConfusionMatrix(cm, cfg.ConfusionMatrixPath); err != nil {
			return epochMetrics, cm, err
		}
		klog.Infof("Confusion matrix heatmap written to %q.", cfg.ConfusionMatrixPath)
	}
	return epochMetrics, cm, nil
}

// confusionGrid adapts a ConfusionMatrix to gonum/plot's heatmap input: x is
// the predicted class, y the true class.
type confusionGrid struct{ cm *ConfusionMatrix }

func (g confusionGrid) Dims() (c, r int) { return len(g.cm.Classes), len(g.cm.Classes) }
func (g confusionGrid) Z(c, r int) float64 {
	return float64(g.cm.Counts[r][c])
}
func (g confusionGrid) X(c int) float64 { return float64(c) }
func (g confusionGrid) Y(r int) float64 { return float64(r) }

// SaveConfusionMatrix renders the matrix as a heatmap PNG (true classes on
// the vertical axis, predicted on the horizontal).
func SaveConfusionMatrix(cm *ConfusionMatrix, path string) error {
	p := plot.New()
	p.Title.Text = "Confusion matrix"
	p.X.Label.Text = "predicted"
	p.Y.Label.Text = "true"

	heatMap := plotter.NewHeatMap(confusionGrid{cm}, palette.Heat(12, 1))
	p.Add(heatMap)

	ticks := make([]plot.Tick, len(cm.Classes))
	for i, name := range cm.Classes {
		ticks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = 1.2
	p.X.Tick.Label.XAlign = -0.9
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)

	side := vg.Inch * vg.Length(2+len(cm.Classes)/3)
	if err := p.Save(side, side, path); err != nil {
		return errors.Wrapf(err, "failed to save confusion matrix to %q", path)
	}
	return nil
}
