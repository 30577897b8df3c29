// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"image"
	_ "image/jpeg" // Manifest images are JPEG.
	_ "image/png"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/pkg/errors"
)

// DefaultSplitRatios partitions examples into train/validation/test.
var DefaultSplitRatios = [3]float64{0.8, 0.1, 0.1}

// Dataset is an indexable collection of (image, label) pairs backed by a
// Manifest and an image directory. It implements train.Dataset, yielding one
// example per call; batching and prefetching are layered on by
// NewTrainLoader / NewEvalLoader.
//
// A Dataset created by NewSplits carries no transform; attach one with
// WithTransforms, so the same split can be rendered for training or
// evaluation without re-reading the manifest.
type Dataset struct {
	name       string
	manifest   *Manifest
	imageDir   string
	indices    []int // Manifest rows included in this (sub)set.
	transforms *Transforms

	// Iteration state, guarded for concurrent Yield from loader workers.
	mu      sync.Mutex
	next    int
	order   []int
	shuffle *rand.Rand
}

// Compile-time check that Dataset implements train.Dataset.
var _ train.Dataset = (*Dataset)(nil)

// NewDataset wraps an already-loaded manifest and image directory, covering
// every manifest row.
func NewDataset(name string, manifest *Manifest, imageDir string) *Dataset {
	indices := make([]int, manifest.NumExamples())
	for i := range indices {
		indices[i] = i
	}
	return newSubset(name, manifest, imageDir, indices)
}

func newSubset(name string, manifest *Manifest, imageDir string, indices []int) *Dataset {
	ds := &Dataset{
		name:     name,
		manifest: manifest,
		imageDir: imageDir,
		indices:  indices,
	}
	ds.order = make([]int, len(indices))
	for i := range ds.order {
		ds.order[i] = i
	}
	return ds
}

// NewSplits loads the manifest and deterministically partitions its rows into
// train/validation/test subsets.
//
// Sizes are computed by truncating ratio x total for train and validation;
// every remaining example goes to test, so the three sizes always sum exactly
// to the total. The partition is a random permutation drawn from the given
// seed: the same seed always produces the same splits.
//
// A missing manifest file or image directory is a configuration error.
func NewSplits(manifestPath, imageDir string, ratios [3]float64, seed int64) (trainSet, valSet, testSet *Dataset, err error) {
	for _, r := range ratios {
		if r < 0 || r > 1 {
			return nil, nil, nil, errors.Errorf("split ratios %v must each be in [0, 1]", ratios)
		}
	}
	sum := ratios[0] + ratios[1] + ratios[2]
	if sum < 1.0-1e-9 || sum > 1.0+1e-9 {
		return nil, nil, nil, errors.Errorf("split ratios %v must sum to 1.0, got %g", ratios, sum)
	}
	stat, statErr := os.Stat(imageDir)
	if statErr != nil || !stat.IsDir() {
		return nil, nil, nil, errors.Errorf("image directory %q does not exist", imageDir)
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, nil, nil, err
	}

	total := manifest.NumExamples()
	trainSize := int(ratios[0] * float64(total))
	valSize := int(ratios[1] * float64(total))

	perm := rand.New(rand.NewSource(seed)).Perm(total)
	trainSet = newSubset("train", manifest, imageDir, perm[:trainSize])
	valSet = newSubset("validation", manifest, imageDir, perm[trainSize:trainSize+valSize])
	testSet = newSubset("test", manifest, imageDir, perm[trainSize+valSize:])
	return
}

// Manifest returns the underlying manifest, shared across splits.
func (ds *Dataset) Manifest() *Manifest { return ds.manifest }

// Len returns the number of examples in this (sub)set.
func (ds *Dataset) Len() int { return len(ds.indices) }

// WithTransforms returns a shallow wrapper over the same examples that
// applies the given transform at fetch time. The receiver is not modified.
func (ds *Dataset) WithTransforms(t *Transforms) *Dataset {
	sub := newSubset(ds.name, ds.manifest, ds.imageDir, ds.indices)
	sub.transforms = t
	return sub
}

// WithShuffle configures the dataset to iterate in a freshly shuffled order
// every epoch (that is, after each Reset). Returns the receiver.
func (ds *Dataset) WithShuffle(rng *rand.Rand) *Dataset {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.shuffle = rng
	ds.shuffleLocked()
	return ds
}

func (ds *Dataset) shuffleLocked() {
	ds.shuffle.Shuffle(len(ds.order), func(i, j int) {
		ds.order[i], ds.order[j] = ds.order[j], ds.order[i]
	})
}

// ImagePath returns the image file path for the i-th example of this set.
func (ds *Dataset) ImagePath(i int) string {
	row := ds.indices[i]
	return filepath.Join(ds.imageDir, ds.manifest.ImageIDs[row]+ImageFileExtension)
}

// ReadImage decodes the i-th example's image file into an RGB raster.
// A missing or corrupt file is a data error and propagates -- examples are
// never silently skipped, which would desynchronize batch accounting.
func (ds *Dataset) ReadImage(i int) (image.Image, error) {
	imgPath := ds.ImagePath(i)
	f, err := os.Open(imgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %q", imgPath)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %q", imgPath)
	}
	return img, nil
}

// Get fetches the i-th example: decoded image run through the attached
// transform (identity if none is attached would be an error -- Get requires
// transforms, see WithTransforms), plus the encoded integer label.
func (ds *Dataset) Get(i int) (*tensors.Tensor, int32, error) {
	if ds.transforms == nil {
		return nil, 0, errors.Errorf("dataset %q has no transforms attached, call WithTransforms first", ds.name)
	}
	img, err := ds.ReadImage(i)
	if err != nil {
		return nil, 0, err
	}
	label := ds.manifest.Labels[ds.indices[i]]
	return ds.transforms.Apply(img), label, nil
}

// Name implements train.Dataset.
func (ds *Dataset) Name() string { return ds.name }

// Yield implements train.Dataset: it returns one example per call, as a
// [size, size, 3] image tensor input and a [1]-shaped int32 label, and io.EOF
// at the end of the epoch.
func (ds *Dataset) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	ds.mu.Lock()
	if ds.next >= len(ds.order) {
		ds.mu.Unlock()
		return nil, nil, nil, io.EOF
	}
	i := ds.order[ds.next]
	ds.next++
	ds.mu.Unlock()

	img, label, err := ds.Get(i)
	if err != nil {
		return nil, nil, nil, err
	}
	spec = ds
	inputs = []*tensors.Tensor{img}
	labels = []*tensors.Tensor{tensors.FromValue([]int32{label})}
	return
}

// Reset implements train.Dataset, restarting the epoch and reshuffling when
// the dataset was configured with WithShuffle.
func (ds *Dataset) Reset() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.next = 0
	if ds.shuffle != nil {
		ds.shuffleLocked()
	}
}

// NewTrainLoader builds the batched training iterator over ds: examples are
// reshuffled every epoch, decoded and transformed by `workers` parallel
// goroutines (to overlap image I/O with training compute), and batched on
// device. The final batch of the epoch may be smaller than batchSize.
func NewTrainLoader(backend backends.Backend, ds *Dataset, t *Transforms, batchSize, workers int, rng *rand.Rand) train.Dataset {
	base := ds.WithTransforms(t).WithShuffle(rng)
	parallel := datasets.CustomParallel(base).Parallelism(workers).Buffer(workers).Start()
	return datasets.Batch(backend, parallel, batchSize, true, false)
}

// NewEvalLoader builds a batched, order-preserving iterator over ds, for
// validation and test passes. It is strictly sequential: parallel prefetching
// does not preserve manifest order, which evaluation requires.
func NewEvalLoader(backend backends.Backend, ds *Dataset, t *Transforms, batchSize int) train.Dataset {
	return datasets.Batch(backend, ds.WithTransforms(t), batchSize, true, false)
}
