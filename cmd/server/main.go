// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

// server runs the leaf disease classification web service: an upload page on
// "/", predictions on "POST /api/predict".
//
// Usage:
//
//	go build -o /tmp/server ./cmd/server && /tmp/server --checkpoint_dir=checkpoints --addr=:8080
package main

import (
	"flag"
	"fmt"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/janpfeifer/must"
	"github.com/plantml/plantdisease"
	"k8s.io/klog/v2"
)

var (
	flagAddr          = flag.String("addr", ":8080", "HTTP listen address.")
	flagCheckpointDir = flag.String("checkpoint_dir", "checkpoints", "Base directory trained models were saved under.")
	flagArch          = flag.String("arch", "vit", fmt.Sprintf("Default model architecture, one of %v.", plantdisease.ValidArchitectures))
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	arch := must.M1(plantdisease.ParseArchitecture(*flagArch))
	backend := must.M1(backends.New())
	defer backend.Finalize()

	server := plantdisease.NewServer(backend, plantdisease.ServerConfig{
		Addr:          *flagAddr,
		CheckpointDir: *flagCheckpointDir,
		DefaultArch:   arch,
	})
	must.M(server.Run())
}
