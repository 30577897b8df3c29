// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// download fetches the plant pathology dataset archive and extracts it,
// producing the train.csv manifest and the images/ directory.
//
// Usage:
//
//	go build -o /tmp/download ./cmd/download && /tmp/download --data_dir=dataset
package main

import (
	"flag"
	"fmt"

	"github.com/janpfeifer/must"
	"github.com/plantml/plantdisease"
	"k8s.io/klog/v2"
)

var flagDataDir = flag.String("data_dir", "dataset", "Directory to download and extract the dataset into.")

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	must.M(plantdisease.DownloadDataset(*flagDataDir))
	fmt.Printf("Dataset ready in %q.\n", *flagDataDir)
}
