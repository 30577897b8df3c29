// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// train fine-tunes a pretrained vision transformer on the plant leaf dataset
// and checkpoints the best model by validation accuracy.
//
// Usage:
//
//	go build -o /tmp/train ./cmd/train && /tmp/train --data_dir=dataset --arch=vit --epochs=10
package main

import (
	"flag"
	"fmt"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/janpfeifer/must"
	"github.com/plantml/plantdisease"
	"k8s.io/klog/v2"
)

var (
	flagDataDir       = flag.String("data_dir", "dataset", "Directory with the train.csv manifest and images/ subdirectory.")
	flagCheckpointDir = flag.String("checkpoint_dir", "checkpoints", "Base directory to save the best model under. Empty disables saving.")
	flagArch          = flag.String("arch", "vit", fmt.Sprintf("Model architecture, one of %v.", plantdisease.ValidArchitectures))
	flagEpochs        = flag.Int("epochs", 10, "Number of training epochs.")
	flagBatchSize     = flag.Int("batch_size", 32, "Training batch size.")
	flagEvalBatchSize = flag.Int("eval_batch_size", 0, "Validation batch size, defaults to --batch_size.")
	flagWorkers       = flag.Int("workers", 0, "Parallel image decoders, defaults to the number of CPUs.")
	flagLearningRate  = flag.Float64("learning_rate", 1e-4, "Initial learning rate, decayed with a cosine schedule.")
	flagSeed          = flag.Int64("seed", 42, "Seed for the dataset split and shuffling.")
	flagAugment       = flag.Bool("augment", false, "Random rotations and horizontal flips during training.")
	flagDryRun        = flag.Bool("dry_run", false, "Run a single epoch to smoke-test the pipeline.")
	flagDownload      = flag.Bool("download", false, "Download the dataset into --data_dir first, if missing.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	arch := must.M1(plantdisease.ParseArchitecture(*flagArch))
	if *flagDownload {
		must.M(plantdisease.DownloadDataset(*flagDataDir))
	}

	backend := must.M1(backends.New())
	defer backend.Finalize()

	best := must.M1(plantdisease.Train(backend, plantdisease.TrainConfig{
		DataDir:       *flagDataDir,
		CheckpointDir: *flagCheckpointDir,
		Arch:          arch,
		Epochs:        *flagEpochs,
		BatchSize:     *flagBatchSize,
		EvalBatchSize: *flagEvalBatchSize,
		Workers:       *flagWorkers,
		LearningRate:  *flagLearningRate,
		Seed:          *flagSeed,
		Augment:       *flagAugment,
		DryRun:        *flagDryRun,
		Verbosity:     1,
	}))
	fmt.Printf("Best validation: %s\n", best)
}
