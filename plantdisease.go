// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// Package plantdisease implements a plant-leaf disease classifier: a supervised
// training pipeline (manifest-driven dataset, deterministic splits, batched
// loaders, per-epoch validation with best-checkpoint selection) plus an
// inference path that serves predictions with canned cause/treatment text.
//
// Models are Vision Transformer (ViT) or Swin Transformer backbones loaded as
// pretrained ONNX graphs from HuggingFace and fine-tuned with a small
// classification head, all running on GoMLX.
//
// Typical use from the command line:
//
//	go run ./cmd/download --data_dir=~/data/plants
//	go run ./cmd/train --data_dir=~/data/plants --arch=vit --epochs=10
//	go run ./cmd/evaluate --data_dir=~/data/plants --arch=vit --checkpoint_dir=checkpoints
//	go run ./cmd/server --checkpoint_dir=checkpoints --arch=vit
package plantdisease

import "fmt"

const (
	// ManifestFileName is the tabular file listing image identifiers and
	// per-class one-hot labels, relative to the data directory.
	ManifestFileName = "train.csv"

	// ImagesSubDir holds the image files, one per manifest row, named
	// "{image_id}.jpg", relative to the data directory.
	ImagesSubDir = "images"

	// ImageFileExtension of every dataset image.
	ImageFileExtension = ".jpg"
)

// PlantPathologyClasses are the label columns of the Plant Pathology manifest,
// in column order. Exactly one of them is 1 per row.
var PlantPathologyClasses = []string{"healthy", "multiple_diseases", "rust", "scab"}

// PlantVillageClasses are the 38 PlantVillage class names, in model output
// order. They follow the "Crop___Disease_name" convention that
// DiseaseInfoFor relies on for its templated fallback.
var PlantVillageClasses = []string{
	"Apple___Apple_scab",
	"Apple___Black_rot",
	"Apple___Cedar_apple_rust",
	"Apple___healthy",
	"Blueberry___healthy",
	"Cherry_(including_sour)___Powdery_mildew",
	"Cherry_(including_sour)___healthy",
	"Corn_(maize)___Cercospora_leaf_spot_Gray_leaf_spot",
	"Corn_(maize)___Common_rust_",
	"Corn_(maize)___Northern_Leaf_Blight",
	"Corn_(maize)___healthy",
	"Grape___Black_rot",
	"Grape___Esca_(Black_Measles)",
	"Grape___Leaf_blight_(Isariopsis_Leaf_Spot)",
	"Grape___healthy",
	"Orange___Haunglongbing_(Citrus_greening)",
	"Peach___Bacterial_spot",
	"Peach___healthy",
	"Pepper,_bell___Bacterial_spot",
	"Pepper,_bell___healthy",
	"Potato___Early_blight",
	"Potato___Late_blight",
	"Potato___healthy",
	"Raspberry___healthy",
	"Soybean___healthy",
	"Squash___Powdery_mildew",
	"Strawberry___Leaf_scorch",
	"Strawberry___healthy",
	"Tomato___Bacterial_spot",
	"Tomato___Early_blight",
	"Tomato___Late_blight",
	"Tomato___Leaf_Mold",
	"Tomato___Septoria_leaf_spot",
	"Tomato___Spider_mites_Two-spotted_spider_mite",
	"Tomato___Target_Spot",
	"Tomato___Tomato_Yellow_Leaf_Curl_Virus",
	"Tomato___Tomato_mosaic_virus",
	"Tomato___healthy",
}

// ClassNamesFor returns the best-known class names for a model with
// numClasses outputs: the manifest classes when training on Plant Pathology,
// the PlantVillage names for the 38-class models, and synthesized names
// otherwise.
func ClassNamesFor(numClasses int) []string {
	switch numClasses {
	case len(PlantPathologyClasses):
		return PlantPathologyClasses
	case len(PlantVillageClasses):
		return PlantVillageClasses
	}
	names := make([]string, numClasses)
	for i := range names {
		names[i] = fmt.Sprintf("class_%d", i)
	}
	return names
}
