// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"runtime"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers/cosineschedule"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// TrainConfig configures one fine-tuning run.
type TrainConfig struct {
	// DataDir holds the manifest (train.csv) and the images/ subdirectory.
	DataDir string

	// CheckpointDir is the base directory under which the best model is
	// saved, in a per-architecture subdirectory. Empty disables saving.
	CheckpointDir string

	Arch          Architecture
	Epochs        int
	BatchSize     int
	EvalBatchSize int // Defaults to BatchSize.
	Workers       int // Parallel image decoders; defaults to GOMAXPROCS.
	LearningRate  float64
	SplitRatios   [3]float64
	Seed          int64
	Augment       bool

	// DryRun caps the run at a single epoch, to smoke-test the pipeline.
	DryRun bool

	Verbosity int
}

func (cfg *TrainConfig) setDefaults() {
	if cfg.Epochs <= 0 {
		cfg.Epochs = 10
	}
	if cfg.DryRun {
		cfg.Epochs = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.EvalBatchSize <= 0 {
		cfg.EvalBatchSize = cfg.BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 1e-4
	}
	if cfg.SplitRatios == [3]float64{} {
		cfg.SplitRatios = DefaultSplitRatios
	}
}

// CheckpointDirFor returns the directory the best model of an architecture is
// saved to, under baseDir.
func CheckpointDirFor(baseDir string, arch Architecture) string {
	return filepath.Join(baseDir, "best_model_"+arch.String())
}

// bestTracker saves a checkpoint whenever the observed validation accuracy
// strictly improves on the best seen so far. The baseline is 0.0, so an epoch
// with zero accuracy never checkpoints.
type bestTracker struct {
	best float64
	save func() error
}

func (bt *bestTracker) observe(accuracy float64) (improved bool, err error) {
	if accuracy <= bt.best {
		return false, nil
	}
	bt.best = accuracy
	if bt.save == nil {
		return true, nil
	}
	return true, bt.save()
}

// Train fine-tunes the configured architecture on the dataset under
// cfg.DataDir: it splits the manifest, runs cfg.Epochs epochs of training
// each followed by a full validation pass, and checkpoints the model whenever
// validation accuracy strictly improves. It returns the best validation
// metrics achieved.
func Train(backend backends.Backend, cfg TrainConfig) (best EpochMetrics, err error) {
	cfg.setDefaults()
	if cfg.DryRun {
		klog.Info("Dry run: training for a single epoch.")
	}

	manifestPath := filepath.Join(cfg.DataDir, ManifestFileName)
	imageDir := filepath.Join(cfg.DataDir, ImagesSubDir)
	trainSet, valSet, _, err := NewSplits(manifestPath, imageDir, cfg.SplitRatios, cfg.Seed)
	if err != nil {
		return best, err
	}
	classes := trainSet.Manifest().Classes
	klog.Infof("Dataset: %d train / %d validation examples, %d classes.",
		trainSet.Len(), valSet.Len(), len(classes))

	model, err := NewModel(backend, cfg.Arch, len(classes), classes)
	if err != nil {
		return best, err
	}
	ctx := model.Context()

	stepsPerEpoch := (trainSet.Len() + cfg.BatchSize - 1) / cfg.BatchSize
	ctx.SetParams(map[string]any{
		optimizers.ParamOptimizer:       "adamw",
		optimizers.ParamLearningRate:    cfg.LearningRate,
		cosineschedule.ParamPeriodSteps: cfg.Epochs * stepsPerEpoch,
		"batch_size":                    cfg.BatchSize,
	})

	var checkpoint *checkpoints.Handler
	if cfg.CheckpointDir != "" {
		checkpoint, err = checkpoints.Build(ctx).
			Dir(CheckpointDirFor(cfg.CheckpointDir, cfg.Arch)).
			Keep(1).
			Done()
		if err != nil {
			return best, errors.Wrapf(err, "failed to set up checkpointing in %q", cfg.CheckpointDir)
		}
		klog.Infof("Checkpointing best model to %q.", checkpoint.Dir())
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trainTransforms := TrainTransforms(model.InputSize(), cfg.Augment, rng)
	evalTransforms := EvalTransforms(model.InputSize())
	trainDS := NewTrainLoader(backend, trainSet, trainTransforms, cfg.BatchSize, cfg.Workers, rng)
	valDS := NewEvalLoader(backend, valSet, evalTransforms, cfg.EvalBatchSize)

	movingAccuracy := metrics.NewMovingAverageSparseCategoricalAccuracy("Moving Average Accuracy", "~acc", 0.01)
	meanAccuracy := metrics.NewSparseCategoricalAccuracy("Mean Accuracy", "#acc")
	trainer := train.NewTrainer(backend, ctx, model.ModelGraph,
		losses.SparseCategoricalCrossEntropyLogits,
		optimizers.FromContext(ctx),
		[]metrics.Interface{movingAccuracy},
		[]metrics.Interface{meanAccuracy})

	loop := train.NewLoop(trainer)
	if cfg.Verbosity >= 1 {
		commandline.AttachProgressBar(loop)
	}
	if globalStep := optimizers.GetGlobalStep(ctx); globalStep > 0 {
		klog.Infof("Resuming training from global step %d.", globalStep)
		trainer.SetContext(ctx.Reuse())
	}

	tracker := bestTracker{}
	if checkpoint != nil {
		tracker.save = checkpoint.Save
	}
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if _, err = loop.RunEpochs(trainDS, 1); err != nil {
			return best, errors.Wrapf(err, "training failed at epoch %d", epoch)
		}
		epochMetrics, _, evalErr := evalPass(backend, model, valDS, classes)
		if evalErr != nil {
			return best, errors.Wrapf(evalErr, "validation failed at epoch %d", epoch)
		}
		improved, saveErr := tracker.observe(epochMetrics.Accuracy)
		if saveErr != nil {
			return best, errors.Wrapf(saveErr, "failed to save checkpoint at epoch %d", epoch)
		}
		marker := ""
		if improved {
			best = epochMetrics
			if checkpoint != nil {
				marker = " (checkpointed)"
			} else {
				marker = " (best)"
			}
		}
		fmt.Printf("Epoch %d/%d: validation %s%s\n", epoch, cfg.Epochs, epochMetrics, marker)
	}
	return best, nil
}

// evalPass runs the model over a full evaluation dataset and scores it. It
// returns the macro metrics (including mean loss) and the filled confusion
// matrix. The dataset must yield batches in a stable order.
func evalPass(backend backends.Backend, model *Model, ds train.Dataset, classes []string) (EpochMetrics, *ConfusionMatrix, error) {
	exec := context.MustNewExec(backend, model.Context(), func(ctx *context.Context, inputs []*graph.Node) []*graph.Node {
		images, labels := inputs[0], inputs[1]
		logits := model.ModelGraph(ctx, nil, []*graph.Node{images})[0]
		predictions := graph.ArgMax(logits, -1, dtypes.Int32)
		loss := losses.SparseCategoricalCrossEntropyLogits(
			[]*graph.Node{labels}, []*graph.Node{logits})
		return []*graph.Node{predictions, graph.ReduceAllMean(loss)}
	})

	cm := NewConfusionMatrix(classes)
	var lossSum float64
	ds.Reset()
	for {
		_, inputs, labels, err := ds.Yield()
		if err == io.EOF {
			break
		}
		if err != nil {
			return EpochMetrics{}, nil, errors.Wrapf(err, "failed reading %s batch", ds.Name())
		}
		outputs := exec.Call(inputs[0], labels[0])
		predictions := tensors.MustCopyFlatData[int32](outputs[0])
		trueLabels := tensors.MustCopyFlatData[int32](labels[0])
		// Mean loss weighted by batch size, so a partial final batch does
		// not skew the epoch loss.
		lossSum += float64(tensors.ToScalar[float32](outputs[1])) * float64(len(trueLabels))
		if err := cm.Add(trueLabels, predictions); err != nil {
			return EpochMetrics{}, nil, err
		}
	}

	epochMetrics := cm.Metrics()
	if total := cm.Total(); total > 0 {
		epochMetrics.Loss = lossSum / float64(total)
	}
	return epochMetrics, cm, nil
}
