// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// evaluate scores the best checkpoint of an architecture on the held-out test
// split and prints a per-class classification report.
//
// Usage:
//
//	go build -o /tmp/evaluate ./cmd/evaluate && /tmp/evaluate --data_dir=dataset --arch=vit
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
	flagDataDir         = flag.String("data_dir", "dataset", "Directory with the train.csv manifest and images/ subdirectory.")
	flagCheckpointDir   = flag.String("checkpoint_dir", "checkpoints", "Base directory trained models were saved under.")
	flagArch            = flag.String("arch", "vit", fmt.Sprintf("Model architecture, one of %v.", plantdisease.ValidArchitectures))
	flagBatchSize       = flag.Int("batch_size", 32, "Evaluation batch size.")
	flagSeed            = flag.Int64("seed", 42, "Seed of the dataset split; must match the training run.")
	flagConfusionMatrix = flag.String("confusion_matrix", "", "Path to write the confusion matrix heatmap PNG, empty to skip.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	arch := must.M1(plantdisease.ParseArchitecture(*flagArch))
	backend := must.M1(backends.New())
	defer backend.Finalize()

	metrics, _ := must.M2(plantdisease.Evaluate(backend, plantdisease.EvalConfig{
		DataDir:             *flagDataDir,
		CheckpointDir:       *flagCheckpointDir,
		Arch:                arch,
		BatchSize:           *flagBatchSize,
		Seed:                *flagSeed,
		ConfusionMatrixPath: *flagConfusionMatrix,
	}))
	fmt.Printf("Test: %s\n", metrics)
}
