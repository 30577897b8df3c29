// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"image"
	"strings"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Prediction is the result of classifying one leaf image.
type Prediction struct {
	// ClassIndex is the predicted label, indexing Classes.
	ClassIndex int `json:"class_index"`
	// Class is the predicted class name.
	Class string `json:"class"`
	// Confidence is the softmax probability of the predicted class.
	Confidence float64 `json:"confidence"`
	// Probabilities holds the full softmax distribution, indexed by label.
	Probabilities []float64 `json:"probabilities"`
	// Info describes the predicted disease and how to treat it.
	Info DiseaseInfo `json:"info"`
}

// Predict classifies a single leaf image. The image is resized to the
// backbone's input resolution, so any size is accepted. Safe for concurrent
// use.
func (m *Model) Predict(img image.Image) (*Prediction, error) {
	m.mu.Lock()
	if m.predictExec == nil {
		m.predictExec = context.MustNewExec(m.backend, m.ctx, func(ctx *context.Context, image *graph.Node) []*graph.Node {
			image = graph.ExpandAxes(image, 0)
			logits := m.ModelGraph(ctx, nil, []*graph.Node{image})[0]
			probabilities := graph.Softmax(logits)
			choice := graph.ArgMax(logits, -1, dtypes.Int32)
			return []*graph.Node{graph.Reshape(choice), graph.Reshape(probabilities, m.numClasses)}
		})
	}
	exec := m.predictExec
	m.mu.Unlock()

	input := EvalTransforms(m.InputSize()).Apply(img)
	var outputs []*tensors.Tensor
	err := exceptions.TryCatch[error](func() { outputs = exec.Call(input) })
	if err != nil {
		return nil, errors.WithMessage(err, "model execution failed")
	}

	classIdx := int(tensors.ToScalar[int32](outputs[0]))
	flatProbs := tensors.MustCopyFlatData[float32](outputs[1])
	probabilities := make([]float64, len(flatProbs))
	for i, p := range flatProbs {
		probabilities[i] = float64(p)
	}
	className := m.classes[classIdx]
	return &Prediction{
		ClassIndex:    classIdx,
		Class:         className,
		Confidence:    probabilities[classIdx],
		Probabilities: probabilities,
		Info:          DiseaseInfoFor(className),
	}, nil
}

// LoadModel builds the architecture's model for inference, restoring the best
// checkpoint under baseDir when one exists. The classifier shape (number of
// classes and their names) is read back from the checkpoint; without one the
// model falls back to the plant pathology classes and an untrained head, and
// `loaded` reports false.
func LoadModel(backend backends.Backend, arch Architecture, baseDir string) (model *Model, loaded bool, err error) {
	dir := CheckpointDirFor(baseDir, arch)
	classes := PlantPathologyClasses

	// Probe the checkpoint for the saved classifier shape before building
	// the model, since the head width depends on it.
	probeCtx := context.New()
	if _, probeErr := checkpoints.Load(probeCtx).Dir(dir).Done(); probeErr == nil {
		loaded = true
		if err := VerifyCheckpointArchitecture(probeCtx, arch); err != nil {
			return nil, false, errors.WithMessagef(err, "checkpoint %q", dir)
		}
		numClasses := context.GetParamOr(probeCtx, ParamNumClasses, len(classes))
		if names := context.GetParamOr(probeCtx, ParamClassNames, ""); names != "" {
			classes = strings.Split(names, ",")
		} else {
			classes = ClassNamesFor(numClasses)
		}
		if len(classes) != numClasses {
			return nil, false, errors.Errorf(
				"checkpoint %q stores %d class names for %d classes", dir, len(classes), numClasses)
		}
	}

	model, err = NewModel(backend, arch, len(classes), classes)
	if err != nil {
		return nil, false, err
	}
	if loaded {
		if _, err = checkpoints.Load(model.Context()).Dir(dir).Done(); err != nil {
			return nil, false, errors.Wrapf(err, "failed to restore checkpoint from %q", dir)
		}
	}
	return model, loaded, nil
}

// ModelCache lazily loads and retains one inference model per architecture,
// so a serving process pays the backbone download and checkpoint restore once.
type ModelCache struct {
	backend       backends.Backend
	checkpointDir string

	mu     sync.Mutex
	models map[Architecture]*Model
}

// NewModelCache creates an empty cache over checkpoints saved under baseDir.
func NewModelCache(backend backends.Backend, baseDir string) *ModelCache {
	return &ModelCache{
		backend:       backend,
		checkpointDir: baseDir,
		models:        make(map[Architecture]*Model),
	}
}

// Get returns the cached model for the architecture, loading it on first use.
func (c *ModelCache) Get(arch Architecture) (*Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if model, ok := c.models[arch]; ok {
		return model, nil
	}
	model, loaded, err := LoadModel(c.backend, arch, c.checkpointDir)
	if err != nil {
		return nil, err
	}
	if !loaded {
		klog.Warningf("No checkpoint for %s under %q: serving the UNTRAINED model.",
			arch, c.checkpointDir)
	}
	c.models[arch] = model
	return model, nil
}

// Invalidate drops the cached model of an architecture, forcing a reload on
// the next Get. Call it after a new checkpoint lands.
func (c *ModelCache) Invalidate(arch Architecture) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.models, arch)
}
