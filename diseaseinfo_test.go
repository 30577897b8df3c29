// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiseaseInfoForKnownClass(t *testing.T) {
	info := DiseaseInfoFor("Tomato___Late_blight")
	assert.Equal(t, "Tomato", info.Crop)
	assert.Equal(t, "Late Blight", info.Disease)
	assert.NotEmpty(t, info.Cause)
	assert.NotEmpty(t, info.Treatment)
}

func TestDiseaseInfoForFallback(t *testing.T) {
	// PlantVillage-style names split on the triple underscore.
	info := DiseaseInfoFor("Grape___Black_rot")
	assert.Equal(t, "Grape", info.Crop)
	assert.Equal(t, "Black Rot", info.Disease)
	assert.NotEmpty(t, info.Cause)
	assert.NotEmpty(t, info.Treatment)

	// Plain names treat the first word as the crop.
	info = DiseaseInfoFor("multiple_diseases")
	assert.Equal(t, "multiple", info.Crop)
	assert.Equal(t, "Diseases", info.Disease)
}

func TestClassNamesFor(t *testing.T) {
	assert.Equal(t, PlantPathologyClasses, ClassNamesFor(4))
	assert.Equal(t, PlantVillageClasses, ClassNamesFor(38))

	names := ClassNamesFor(3)
	assert.Equal(t, []string{"class_0", "class_1", "class_2"}, names)
}
