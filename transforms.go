// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"image"
	"image/color"
	"math/rand"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	timage "github.com/gomlx/gomlx/pkg/core/tensors/images"
)

// DType used for image tensors and model parameters throughout.
var DType = dtypes.Float32

// TransformMode selects the preprocessing pipeline for a dataset role.
type TransformMode int

const (
	// TransformEval resizes to the model input resolution and converts to a
	// tensor scaled to [0, 1]. The [-1, 1] normalization (mean .5, scale .5)
	// happens in-graph, see Model.ModelGraph.
	TransformEval TransformMode = iota

	// TransformTrain is TransformEval optionally preceded by randomized
	// augmentation (horizontal flip, small rotation).
	TransformTrain
)

// Transforms is a deterministic image-to-tensor pipeline. It is a pure
// function of its configuration except for the augmentation RNG in train
// mode, which is guarded for concurrent Apply calls from loader workers.
type Transforms struct {
	mode TransformMode
	size int

	// Augmentation, train mode only. angleStdDev <= 0 and !flip make the
	// train pipeline identical to eval.
	angleStdDev float64
	flip        bool

	mu       sync.Mutex
	rng      *rand.Rand
	toTensor *timage.ToTensorConfig
}

// EvalTransforms returns the evaluation pipeline for the given input
// resolution (square, size x size).
func EvalTransforms(size int) *Transforms {
	return &Transforms{
		mode:     TransformEval,
		size:     size,
		toTensor: timage.ToTensor(DType),
	}
}

// TrainTransforms returns the training pipeline. With augment == false it is
// identical to EvalTransforms.
func TrainTransforms(size int, augment bool, rng *rand.Rand) *Transforms {
	t := &Transforms{
		mode:     TransformTrain,
		size:     size,
		toTensor: timage.ToTensor(DType),
		rng:      rng,
	}
	if augment {
		t.angleStdDev = 15.0
		t.flip = true
	}
	return t
}

// Size returns the target square resolution.
func (t *Transforms) Size() int { return t.size }

// Apply runs the pipeline on one decoded image and returns a tensor shaped
// [size, size, 3] with values in [0, 1].
func (t *Transforms) Apply(img image.Image) *tensors.Tensor {
	if t.mode == TransformTrain && (t.angleStdDev > 0 || t.flip) {
		img = t.augment(img)
	}
	// Resize to exactly size x size, aspect ratio is not preserved.
	img = imaging.Resize(img, t.size, t.size, imaging.Lanczos)
	return t.toTensor.Single(img)
}

func (t *Transforms) augment(img image.Image) image.Image {
	t.mu.Lock()
	angle := t.rng.NormFloat64() * t.angleStdDev
	flip := t.flip && t.rng.Intn(2) == 1
	t.mu.Unlock()
	if t.angleStdDev > 0 {
		img = imaging.Rotate(img, angle, color.RGBA{A: 255})
	}
	if flip {
		img = imaging.FlipH(img)
	}
	return img
}
