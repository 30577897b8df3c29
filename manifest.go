// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"math"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
)

// IdentifierColumn is the manifest column holding the image identifier.
// Every other column is taken to be a class-probability column, in order.
const IdentifierColumn = "image_id"

// Manifest is the parsed tabular file listing image identifiers and their
// one-hot class-probability columns. Row order defines iteration order prior
// to shuffling and splitting.
type Manifest struct {
	// Classes are the class names, in manifest column order.
	Classes []string

	// ImageIDs has one image identifier per row.
	ImageIDs []string

	// Labels has one encoded class index per row, in [0, len(Classes)).
	Labels []int32
}

// NumExamples returns the number of rows in the manifest.
func (m *Manifest) NumExamples() int { return len(m.ImageIDs) }

// LoadManifest reads and parses the manifest CSV at the given path.
//
// A missing file is a configuration error. Labels are encoded at load time
// with EncodeLabel.
func LoadManifest(manifestPath string) (*Manifest, error) {
	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest file %q not readable", manifestPath)
	}
	defer func() { _ = f.Close() }()

	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, errors.Wrapf(df.Error(), "failed to parse manifest %q", manifestPath)
	}

	names := df.Names()
	if len(names) < 2 || names[0] != IdentifierColumn {
		return nil, errors.Errorf(
			"manifest %q must start with an %q column followed by class columns, got columns %v",
			manifestPath, IdentifierColumn, names)
	}
	classes := names[1:]

	numRows := df.Nrow()
	m := &Manifest{
		Classes:  classes,
		ImageIDs: df.Col(IdentifierColumn).Records(),
		Labels:   make([]int32, numRows),
	}
	if len(m.ImageIDs) != numRows {
		return nil, errors.Errorf("manifest %q: identifier column has %d values for %d rows",
			manifestPath, len(m.ImageIDs), numRows)
	}

	// Column-major read: gota series access is cheap per column.
	probs := make([][]float64, len(classes))
	for classIdx, class := range classes {
		col := df.Col(class)
		if col.Err != nil {
			return nil, errors.Wrapf(col.Err, "manifest %q: bad class column %q", manifestPath, class)
		}
		probs[classIdx] = col.Float()
	}
	row := make([]float64, len(classes))
	for rowIdx := 0; rowIdx < numRows; rowIdx++ {
		for classIdx, class := range classes {
			v := probs[classIdx][rowIdx]
			// gota maps non-numeric cells to NaN, which the label encoder
			// would silently turn into class 0.
			if math.IsNaN(v) {
				return nil, errors.Errorf(
					"manifest %q: row %d has a non-numeric value in class column %q",
					manifestPath, rowIdx, class)
			}
			row[classIdx] = v
		}
		m.Labels[rowIdx] = EncodeLabel(row)
	}
	return m, nil
}

// EncodeLabel returns the index of the first maximal value in the row of
// class probabilities. For one-hot rows this is the index of the single 1;
// ties resolve to the lowest index, so callers must not rely on it for soft
// labels.
func EncodeLabel(probabilities []float64) int32 {
	best := 0
	for i := 1; i < len(probabilities); i++ {
		if probabilities[i] > probabilities[best] {
			best = i
		}
	}
	return int32(best)
}
