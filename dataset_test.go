// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDataDir creates a dataset directory with numExamples JPEG images and a
// matching manifest, labels cycling over the 4 plant pathology classes.
func buildDataDir(t *testing.T, numExamples int) (manifestPath, imageDir string) {
	t.Helper()
	dir := t.TempDir()
	imageDir = filepath.Join(dir, ImagesSubDir)
	require.NoError(t, os.MkdirAll(imageDir, 0755))

	content := "image_id,healthy,multiple_diseases,rust,scab\n"
	for i := 0; i < numExamples; i++ {
		oneHot := []string{"0", "0", "0", "0"}
		oneHot[i%4] = "1"
		content += fmt.Sprintf("Train_%d,%s,%s,%s,%s\n", i, oneHot[0], oneHot[1], oneHot[2], oneHot[3])

		img := image.NewRGBA(image.Rect(0, 0, 40, 30))
		for x := 0; x < 40; x++ {
			for y := 0; y < 30; y++ {
				img.Set(x, y, color.RGBA{R: uint8(i * 12), G: 128, B: uint8(x * 6), A: 255})
			}
		}
		f, err := os.Create(filepath.Join(imageDir, fmt.Sprintf("Train_%d%s", i, ImageFileExtension)))
		require.NoError(t, err)
		require.NoError(t, jpeg.Encode(f, img, nil))
		require.NoError(t, f.Close())
	}
	manifestPath = writeManifest(t, dir, content)
	return
}

func TestNewSplitsSizes(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 20)
	trainSet, valSet, testSet, err := NewSplits(manifestPath, imageDir, DefaultSplitRatios, 42)
	require.NoError(t, err)

	assert.Equal(t, 16, trainSet.Len())
	assert.Equal(t, 2, valSet.Len())
	assert.Equal(t, 2, testSet.Len())

	// The three splits are disjoint and cover every example.
	seen := make(map[string]bool)
	for _, ds := range []*Dataset{trainSet, valSet, testSet} {
		for i := 0; i < ds.Len(); i++ {
			path := ds.ImagePath(i)
			assert.False(t, seen[path], "example %q appears in more than one split", path)
			seen[path] = true
		}
	}
	assert.Len(t, seen, 20)
}

func TestNewSplitsRemainderGoesToTest(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 7)
	trainSet, valSet, testSet, err := NewSplits(manifestPath, imageDir, DefaultSplitRatios, 1)
	require.NoError(t, err)

	// 7 examples: train=floor(5.6)=5, validation=floor(0.7)=0, test takes the rest.
	assert.Equal(t, 5, trainSet.Len())
	assert.Equal(t, 0, valSet.Len())
	assert.Equal(t, 2, testSet.Len())
	assert.Equal(t, 7, trainSet.Len()+valSet.Len()+testSet.Len())
}

func TestNewSplitsDeterminism(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 20)

	splitPaths := func(seed int64) []string {
		trainSet, valSet, testSet, err := NewSplits(manifestPath, imageDir, DefaultSplitRatios, seed)
		require.NoError(t, err)
		var paths []string
		for _, ds := range []*Dataset{trainSet, valSet, testSet} {
			for i := 0; i < ds.Len(); i++ {
				paths = append(paths, ds.ImagePath(i))
			}
		}
		return paths
	}
	assert.Equal(t, splitPaths(42), splitPaths(42), "same seed must reproduce the same splits")
}

func TestNewSplitsErrors(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 4)

	_, _, _, err := NewSplits(manifestPath, imageDir, [3]float64{0.5, 0.3, 0.1}, 0)
	assert.Error(t, err, "ratios must sum to 1")

	_, _, _, err = NewSplits(manifestPath, imageDir, [3]float64{1.2, -0.1, -0.1}, 0)
	assert.Error(t, err, "out-of-range ratios are rejected even when they sum to 1")

	_, _, _, err = NewSplits(manifestPath, filepath.Join(imageDir, "missing"), DefaultSplitRatios, 0)
	assert.Error(t, err, "missing image directory is a configuration error")

	_, _, _, err = NewSplits(filepath.Join(t.TempDir(), "no_such.csv"), imageDir, DefaultSplitRatios, 0)
	assert.Error(t, err, "missing manifest is a configuration error")
}

func TestDatasetYield(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 4)
	manifest, err := LoadManifest(manifestPath)
	require.NoError(t, err)
	ds := NewDataset("test", manifest, imageDir).WithTransforms(EvalTransforms(32))

	for i := 0; i < 4; i++ {
		spec, inputs, labels, err := ds.Yield()
		require.NoError(t, err)
		assert.Same(t, ds, spec)
		require.Len(t, inputs, 1)
		require.Len(t, labels, 1)
		assert.Equal(t, []int{32, 32, 3}, inputs[0].Shape().Dimensions)
		assert.Equal(t, []int{1}, labels[0].Shape().Dimensions)

		// Labels cycle over the 4 classes in manifest order.
		values := labels[0].Value().([]int32)
		assert.Equal(t, int32(i), values[0])

		// Pixels are normalized to [0, 1].
		pixels := inputs[0].Value().([][][]float32)
		for _, row := range pixels {
			for _, pixel := range row {
				for _, channel := range pixel {
					assert.GreaterOrEqual(t, channel, float32(0))
					assert.LessOrEqual(t, channel, float32(1))
				}
			}
		}
	}
	_, _, _, err = ds.Yield()
	assert.ErrorIs(t, err, io.EOF)

	ds.Reset()
	_, _, _, err = ds.Yield()
	assert.NoError(t, err, "Reset restarts the epoch")
}

func TestDatasetShuffleReproducible(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 12)
	manifest, err := LoadManifest(manifestPath)
	require.NoError(t, err)

	labelSequence := func(seed int64) []int32 {
		ds := NewDataset("test", manifest, imageDir).
			WithTransforms(EvalTransforms(16)).
			WithShuffle(rand.New(rand.NewSource(seed)))
		var sequence []int32
		for {
			_, _, labels, err := ds.Yield()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			sequence = append(sequence, labels[0].Value().([]int32)[0])
		}
		return sequence
	}
	assert.Equal(t, labelSequence(3), labelSequence(3))
}

func TestDatasetErrors(t *testing.T) {
	manifestPath, imageDir := buildDataDir(t, 4)
	manifest, err := LoadManifest(manifestPath)
	require.NoError(t, err)

	// Without transforms fetching is an error.
	bare := NewDataset("test", manifest, imageDir)
	_, _, err = bare.Get(0)
	assert.Error(t, err)

	// A missing image file propagates instead of being skipped.
	require.NoError(t, os.Remove(filepath.Join(imageDir, "Train_2"+ImageFileExtension)))
	ds := NewDataset("test", manifest, imageDir).WithTransforms(EvalTransforms(16))
	_, _, err = ds.Get(2)
	assert.Error(t, err)
}
