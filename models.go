// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"os"
	"strings"
	"sync"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers/fnn"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers/cosineschedule"
	"github.com/gomlx/onnx-gomlx/onnx"
	"github.com/pkg/errors"
)

// Architecture selects the pretrained vision backbone.
type Architecture int

const (
	// ViT is a vision transformer, patch size 16, 224x224 input.
	ViT Architecture = iota
	// Swin is a shifted-window transformer, patch size 4, window 7, 224x224 input.
	Swin
)

// ValidArchitectures lists the accepted values of the --arch flags.
var ValidArchitectures = []string{"vit", "swin"}

// String implements fmt.Stringer, matching the --arch flag spelling.
func (a Architecture) String() string {
	switch a {
	case ViT:
		return "vit"
	case Swin:
		return "swin"
	}
	return "invalid"
}

// ParseArchitecture converts a --arch flag value to an Architecture.
func ParseArchitecture(s string) (Architecture, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vit":
		return ViT, nil
	case "swin":
		return Swin, nil
	}
	return 0, errors.Errorf("unknown architecture %q, valid values are %v", s, ValidArchitectures)
}

// archSpec locates the pretrained ONNX backbone on HuggingFace.
type archSpec struct {
	hfRepoID  string
	onnxFile  string
	inputSize int
}

var archSpecs = map[Architecture]archSpec{
	ViT:  {hfRepoID: "Xenova/vit-base-patch16-224", onnxFile: "onnx/model.onnx", inputSize: 224},
	Swin: {hfRepoID: "Xenova/swin-base-patch4-window7-224", onnxFile: "onnx/model.onnx", inputSize: 224},
}

// Context parameters stored alongside checkpoints, so a saved model knows how
// to reconstruct itself for inference.
const (
	ParamArchitecture = "architecture"
	ParamNumClasses   = "num_classes"
	ParamClassNames   = "class_names"
)

// VerifyCheckpointArchitecture errors if the checkpoint loaded into ctx was
// saved for a different architecture than the one requested. Checkpoint
// variables for a mismatched backbone would otherwise be silently skipped
// during restore, leaving a mixed model. Call it after checkpoints.Load
// succeeds, which overwrites ctx's params with the checkpoint's.
func VerifyCheckpointArchitecture(ctx *context.Context, want Architecture) error {
	saved := context.GetParamOr(ctx, ParamArchitecture, "")
	if saved == "" || saved == want.String() {
		return nil
	}
	return errors.Errorf("checkpoint was saved for architecture %q, refusing to load it as %q",
		saved, want)
}

// Model is a pretrained transformer backbone topped by a freshly initialized
// classification head. The backbone weights live in the model's context
// (loaded from the ONNX file on construction, or restored from a checkpoint),
// so fine-tuning updates backbone and head together.
type Model struct {
	backend    backends.Backend
	ctx        *context.Context
	arch       Architecture
	backbone   *onnx.Model
	numClasses int
	classes    []string

	// predictExec is built lazily on the first Predict call.
	mu          sync.Mutex
	predictExec *context.Exec
}

// NewModel downloads (or reuses the local HuggingFace cache of) the
// architecture's pretrained ONNX backbone, loads its weights into a fresh
// context and records the classifier configuration as context parameters.
//
// Set HF_TOKEN in the environment to authenticate downloads; the default
// anonymous access works for the public backbone repositories.
func NewModel(backend backends.Backend, arch Architecture, numClasses int, classes []string) (*Model, error) {
	spec, ok := archSpecs[arch]
	if !ok {
		return nil, errors.Errorf("no backbone registered for architecture %v", arch)
	}
	if numClasses < 2 {
		return nil, errors.Errorf("model needs at least 2 classes, got %d", numClasses)
	}
	if len(classes) != numClasses {
		return nil, errors.Errorf("got %d class names for %d classes", len(classes), numClasses)
	}

	repo := hub.New(spec.hfRepoID).WithAuth(os.Getenv("HF_TOKEN"))
	onnxPath, err := repo.DownloadFile(spec.onnxFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download %s backbone from %q", arch, spec.hfRepoID)
	}
	backbone, err := onnx.ReadFile(onnxPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse ONNX backbone %q", onnxPath)
	}

	ctx := context.New()
	if err := backbone.VariablesToContext(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to load %s backbone weights", arch)
	}
	ctx.SetParam(ParamArchitecture, arch.String())
	ctx.SetParam(ParamNumClasses, numClasses)
	ctx.SetParam(ParamClassNames, strings.Join(classes, ","))

	return &Model{
		backend:    backend,
		ctx:        ctx,
		arch:       arch,
		backbone:   backbone,
		numClasses: numClasses,
		classes:    classes,
	}, nil
}

// Context returns the context holding all model weights and hyperparameters.
func (m *Model) Context() *context.Context { return m.ctx }

// Architecture returns the backbone architecture.
func (m *Model) Architecture() Architecture { return m.arch }

// NumClasses returns the width of the classification head.
func (m *Model) NumClasses() int { return m.numClasses }

// Classes returns the class names, indexed by label.
func (m *Model) Classes() []string { return m.classes }

// InputSize returns the square input resolution the backbone expects.
func (m *Model) InputSize() int { return archSpecs[m.arch].inputSize }

// ModelGraph builds the classifier graph: inputs[0] is a [batch, size, size, 3]
// image tensor with values in [0, 1]; the returned single node holds the
// [batch, numClasses] logits. Its signature matches train.ModelFn.
func (m *Model) ModelGraph(ctx *context.Context, spec any, inputs []*graph.Node) []*graph.Node {
	_ = spec
	g := inputs[0].Graph()
	cosineschedule.New(ctx, g, DType).FromContext().Done()

	// The backbone was exported with mean=0.5, std=0.5 normalization, so map
	// [0, 1] to [-1, 1] and feed channels-first as "pixel_values".
	images := inputs[0]
	images = graph.AddScalar(graph.MulScalar(images, 2), -1)
	images = graph.TransposeAllDims(images, 0, 3, 1, 2)
	outputs := m.backbone.CallGraph(ctx, g, map[string]*graph.Node{"pixel_values": images}, "logits")

	// The backbone's own ImageNet logits serve as features for the new head.
	logits := fnn.New(ctx.In("head"), outputs[0], m.numClasses).Done()
	return []*graph.Node{logits}
}
