// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClasses = []string{"healthy", "multiple_diseases", "rust", "scab"}

func TestComputeMetricsPerfect(t *testing.T) {
	labels := []int32{0, 1, 2, 3, 0, 1, 2, 3}
	m, err := ComputeMetrics(testClasses, labels, labels)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 1.0, m.Precision)
	assert.Equal(t, 1.0, m.Recall)
	assert.Equal(t, 1.0, m.F1)
}

func TestComputeMetricsMacroAveraging(t *testing.T) {
	// Two classes, class 0 with 3 examples, class 1 with 1: one class-0
	// example predicted as class 1.
	classes := []string{"a", "b"}
	trueLabels := []int32{0, 0, 0, 1}
	predictions := []int32{0, 0, 1, 1}
	m, err := ComputeMetrics(classes, trueLabels, predictions)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, m.Accuracy, 1e-9)
	// Per class: precision a=2/2, b=1/2; recall a=2/3, b=1/1.
	assert.InDelta(t, (1.0+0.5)/2, m.Precision, 1e-9)
	assert.InDelta(t, (2.0/3+1.0)/2, m.Recall, 1e-9)
	// F1 a=2*1*(2/3)/(1+2/3)=0.8, b=2*0.5*1/1.5=2/3.
	assert.InDelta(t, (0.8+2.0/3)/2, m.F1, 1e-9)
}

func TestComputeMetricsZeroDivision(t *testing.T) {
	// Class 2 never predicted and class 3 has no examples: their precision
	// and recall contribute 0 to the macro average instead of NaN.
	trueLabels := []int32{0, 1, 2}
	predictions := []int32{0, 1, 1}
	m, err := ComputeMetrics(testClasses, trueLabels, predictions)
	require.NoError(t, err)

	assert.False(t, m.Precision != m.Precision, "precision must not be NaN")
	assert.False(t, m.F1 != m.F1, "f1 must not be NaN")
	assert.InDelta(t, 2.0/3, m.Accuracy, 1e-9)
	// Precision: 1 + 0.5 + 0 + 0 over 4 classes.
	assert.InDelta(t, 1.5/4, m.Precision, 1e-9)
}

func TestConfusionMatrix(t *testing.T) {
	cm := NewConfusionMatrix(testClasses)
	require.NoError(t, cm.Add([]int32{0, 1, 2}, []int32{0, 1, 3}))
	require.NoError(t, cm.Add([]int32{3}, []int32{3}))

	assert.Equal(t, int64(4), cm.Total())
	assert.Equal(t, int64(1), cm.Counts[2][3])
	assert.Equal(t, 1.0, cm.RecallForClass(0))
	assert.Equal(t, 0.0, cm.RecallForClass(2))
	assert.Equal(t, 0.5, cm.PrecisionForClass(3))

	assert.Error(t, cm.Add([]int32{0, 1}, []int32{0}), "length mismatch")
	assert.Error(t, cm.Add([]int32{4}, []int32{0}), "label out of range")

	report := cm.ClassificationReport()
	for _, name := range testClasses {
		assert.Contains(t, report, name)
	}
	assert.Contains(t, report, "macro average")
}

func TestEpochMetricsString(t *testing.T) {
	m := EpochMetrics{Loss: 0.25, Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75}
	assert.Equal(t, "loss=0.2500 acc=0.9000 precision=0.8000 recall=0.7000 f1=0.7500", m.String())
}
