// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	return img
}

func TestEvalTransforms(t *testing.T) {
	transforms := EvalTransforms(224)
	assert.Equal(t, 224, transforms.Size())

	// Any input size is resized to the target resolution.
	for _, img := range []image.Image{testImage(640, 480), testImage(100, 300)} {
		tensor := transforms.Apply(img)
		require.Equal(t, []int{224, 224, 3}, tensor.Shape().Dimensions)
		assert.Equal(t, DType, tensor.DType())
	}
}

func TestTrainTransformsAugmented(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	transforms := TrainTransforms(64, true, rng)

	tensor := transforms.Apply(testImage(80, 80))
	require.Equal(t, []int{64, 64, 3}, tensor.Shape().Dimensions)

	pixels := tensor.Value().([][][]float32)
	for _, row := range pixels {
		for _, pixel := range row {
			for _, channel := range pixel {
				assert.GreaterOrEqual(t, channel, float32(0))
				assert.LessOrEqual(t, channel, float32(1))
			}
		}
	}
}

func TestTrainTransformsWithoutAugmentationIsDeterministic(t *testing.T) {
	img := testImage(90, 60)
	a := TrainTransforms(32, false, rand.New(rand.NewSource(1))).Apply(img)
	b := TrainTransforms(32, false, rand.New(rand.NewSource(2))).Apply(img)
	assert.Equal(t, a.Value(), b.Value())
}
