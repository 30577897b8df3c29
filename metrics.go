// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// EpochMetrics aggregates the quality of one full pass over a dataset.
// Precision, Recall and F1 are macro-averaged: per-class values computed
// first, then averaged with equal weight per class, so that the rare classes
// count as much as the dominant ones.
type EpochMetrics struct {
	Loss      float64
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// String formats the metrics the way epoch logs report them.
func (m EpochMetrics) String() string {
	return fmt.Sprintf("loss=%.4f acc=%.4f precision=%.4f recall=%.4f f1=%.4f",
		m.Loss, m.Accuracy, m.Precision, m.Recall, m.F1)
}

// ConfusionMatrix counts predictions per (true class, predicted class) pair.
// Rows are true classes, columns predicted classes.
type ConfusionMatrix struct {
	Classes []string
	Counts  [][]int64
}

// NewConfusionMatrix returns an all-zeros matrix over the given classes.
func NewConfusionMatrix(classes []string) *ConfusionMatrix {
	counts := make([][]int64, len(classes))
	for i := range counts {
		counts[i] = make([]int64, len(classes))
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}
}

// Add accumulates a batch of (true, predicted) label pairs.
func (cm *ConfusionMatrix) Add(trueLabels, predictions []int32) error {
	if len(trueLabels) != len(predictions) {
		return errors.Errorf("confusion matrix: %d true labels but %d predictions", len(trueLabels), len(predictions))
	}
	n := int32(len(cm.Classes))
	for i, t := range trueLabels {
		p := predictions[i]
		if t < 0 || t >= n || p < 0 || p >= n {
			return errors.Errorf("confusion matrix: label pair (%d, %d) out of range for %d classes", t, p, n)
		}
		cm.Counts[t][p]++
	}
	return nil
}

// Total returns the number of examples accumulated so far.
func (cm *ConfusionMatrix) Total() int64 {
	var total int64
	for _, row := range cm.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// PrecisionForClass returns true-positives over predicted-positives for class
// c, or 0 when the class was never predicted.
func (cm *ConfusionMatrix) PrecisionForClass(c int) float64 {
	var predicted int64
	for t := range cm.Counts {
		predicted += cm.Counts[t][c]
	}
	if predicted == 0 {
		return 0
	}
	return float64(cm.Counts[c][c]) / float64(predicted)
}

// RecallForClass returns true-positives over actual-positives for class c, or
// 0 when the class has no examples.
func (cm *ConfusionMatrix) RecallForClass(c int) float64 {
	var actual int64
	for p := range cm.Counts[c] {
		actual += cm.Counts[c][p]
	}
	if actual == 0 {
		return 0
	}
	return float64(cm.Counts[c][c]) / float64(actual)
}

// Metrics reduces the matrix to macro-averaged epoch metrics. Loss is not
// derivable from counts and is left zero; callers that tracked it fill it in.
func (cm *ConfusionMatrix) Metrics() EpochMetrics {
	var m EpochMetrics
	numClasses := len(cm.Classes)
	if numClasses == 0 {
		return m
	}
	var correct int64
	for c := 0; c < numClasses; c++ {
		correct += cm.Counts[c][c]
		precision := cm.PrecisionForClass(c)
		recall := cm.RecallForClass(c)
		m.Precision += precision
		m.Recall += recall
		if precision+recall > 0 {
			m.F1 += 2 * precision * recall / (precision + recall)
		}
	}
	m.Precision /= float64(numClasses)
	m.Recall /= float64(numClasses)
	m.F1 /= float64(numClasses)
	if total := cm.Total(); total > 0 {
		m.Accuracy = float64(correct) / float64(total)
	}
	return m
}

// ComputeMetrics scores a full epoch of predictions against true labels.
func ComputeMetrics(classes []string, trueLabels, predictions []int32) (EpochMetrics, error) {
	cm := NewConfusionMatrix(classes)
	if err := cm.Add(trueLabels, predictions); err != nil {
		return EpochMetrics{}, err
	}
	return cm.Metrics(), nil
}

// ClassificationReport renders a per-class precision/recall table plus the
// macro averages, for evaluation logs.
func (cm *ConfusionMatrix) ClassificationReport() string {
	var sb strings.Builder
	nameWidth := len("macro average")
	for _, name := range cm.Classes {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}
	fmt.Fprintf(&sb, "%-*s  %9s  %9s  %8s\n", nameWidth, "class", "precision", "recall", "support")
	for c, name := range cm.Classes {
		var support int64
		for p := range cm.Counts[c] {
			support += cm.Counts[c][p]
		}
		fmt.Fprintf(&sb, "%-*s  %9.4f  %9.4f  %8d\n",
			nameWidth, name, cm.PrecisionForClass(c), cm.RecallForClass(c), support)
	}
	m := cm.Metrics()
	fmt.Fprintf(&sb, "%-*s  %9.4f  %9.4f  %8d\n", nameWidth, "macro average", m.Precision, m.Recall, cm.Total())
	fmt.Fprintf(&sb, "accuracy: %.4f, macro f1: %.4f\n", m.Accuracy, m.F1)
	return sb.String()
}
