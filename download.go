// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"fmt"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/support/fsutil"
	"github.com/plantml/plantdisease/internal/downloader"
)

// The plant pathology dataset archive is published on Google Drive; the
// usercontent endpoint serves large files without the interstitial
// confirmation page.
const (
	datasetDriveFileID = "1J07k7Xzb--Vet7oqFG_Uk4AX6mwidCKu"
	datasetArchiveName = "dataset.zip"
)

// DatasetURL returns the download URL of the dataset archive.
func DatasetURL() string {
	return fmt.Sprintf("https://drive.usercontent.google.com/download?id=%s&export=download&confirm=t",
		datasetDriveFileID)
}

// DownloadDataset fetches the dataset archive into baseDir and extracts it
// there, producing the train.csv manifest and the images/ directory. It is
// idempotent: nothing is re-downloaded once the images directory exists.
func DownloadDataset(baseDir string) error {
	baseDir = fsutil.MustReplaceTildeInDir(baseDir)
	zipFile := filepath.Join(baseDir, datasetArchiveName)
	imagesDir := filepath.Join(baseDir, ImagesSubDir)
	return downloader.DownloadAndUnzipIfMissing(DatasetURL(), zipFile, baseDir, imagesDir, "")
}
