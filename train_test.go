// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestTrackerSavesOnStrictImprovement(t *testing.T) {
	var saves int
	tracker := bestTracker{save: func() error {
		saves++
		return nil
	}}

	for _, step := range []struct {
		accuracy float64
		improved bool
	}{
		{0.0, false}, // Zero accuracy never beats the 0.0 baseline.
		{0.5, true},  // Improvement over the baseline.
		{0.7, true},  // Improvement.
		{0.6, false}, // Regression.
		{0.7, false}, // Equal is not an improvement.
		{0.9, true},  // Improvement.
	} {
		improved, err := tracker.observe(step.accuracy)
		require.NoError(t, err)
		assert.Equal(t, step.improved, improved, "accuracy %g", step.accuracy)
	}
	assert.Equal(t, 3, saves)
	assert.Equal(t, 0.9, tracker.best)
}

func TestBestTrackerSaveError(t *testing.T) {
	boom := errors.New("disk full")
	tracker := bestTracker{save: func() error { return boom }}
	improved, err := tracker.observe(0.5)
	assert.True(t, improved)
	assert.ErrorIs(t, err, boom)
}

func TestTrainConfigDefaults(t *testing.T) {
	cfg := TrainConfig{}
	cfg.setDefaults()
	assert.Equal(t, 10, cfg.Epochs)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, cfg.BatchSize, cfg.EvalBatchSize)
	assert.Greater(t, cfg.Workers, 0)
	assert.Equal(t, DefaultSplitRatios, cfg.SplitRatios)

	dry := TrainConfig{Epochs: 50, DryRun: true}
	dry.setDefaults()
	assert.Equal(t, 1, dry.Epochs, "dry run caps the run at one epoch")
}

func TestCheckpointDirFor(t *testing.T) {
	assert.Equal(t, filepath.Join("checkpoints", "best_model_vit"), CheckpointDirFor("checkpoints", ViT))
	assert.Equal(t, filepath.Join("checkpoints", "best_model_swin"), CheckpointDirFor("checkpoints", Swin))
}

func TestParseArchitecture(t *testing.T) {
	for _, name := range ValidArchitectures {
		arch, err := ParseArchitecture(name)
		require.NoError(t, err)
		assert.Equal(t, name, arch.String())
	}
	arch, err := ParseArchitecture(" ViT ")
	require.NoError(t, err)
	assert.Equal(t, ViT, arch)

	_, err = ParseArchitecture("resnet")
	assert.Error(t, err)
}
