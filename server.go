// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"image"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gomlx/gomlx/backends"
	"k8s.io/klog/v2"
)

// ServerConfig configures the inference web server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// CheckpointDir is the base directory trained models were saved under.
	CheckpointDir string

	// DefaultArch serves requests that don't name an architecture.
	DefaultArch Architecture
}

// Server serves leaf disease classification over HTTP: a minimal upload page
// on "/", predictions on "POST /api/predict".
type Server struct {
	cfg    ServerConfig
	models *ModelCache
}

// NewServer creates the server; models are loaded lazily on first request per
// architecture.
func NewServer(backend backends.Backend, cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &Server{
		cfg:    cfg,
		models: NewModelCache(backend, cfg.CheckpointDir),
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/", s.indexHandler)
	router.GET("/healthz", s.healthHandler)
	router.GET("/api/models", s.modelsHandler)
	router.POST("/api/predict", s.predictHandler)
	return router
}

// Run blocks serving HTTP on the configured address.
func (s *Server) Run() error {
	klog.Infof("Serving on %s (checkpoints from %q, default architecture %s).",
		s.cfg.Addr, s.cfg.CheckpointDir, s.cfg.DefaultArch)
	return s.Router().Run(s.cfg.Addr)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) modelsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"architectures": ValidArchitectures,
		"default":       s.cfg.DefaultArch.String(),
	})
}

// predictHandler classifies one uploaded image. The multipart form must
// carry the image under "image"; an optional "arch" field selects the
// architecture.
func (s *Server) predictHandler(c *gin.Context) {
	arch := s.cfg.DefaultArch
	if name := c.PostForm("arch"); name != "" {
		var err error
		if arch, err = ParseArchitecture(name); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing \"image\" form file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = file.Close() }()
	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot decode image: " + err.Error()})
		return
	}

	model, err := s.models.Get(arch)
	if err != nil {
		klog.Errorf("Failed to load %s model: %v", arch, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	prediction, err := model.Predict(img)
	if err != nil {
		klog.Errorf("Prediction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prediction)
}

func (s *Server) indexHandler(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>Plant Disease Detection</title></head>
<body>
<h1>Plant Disease Detection</h1>
<p>Upload a photo of a plant leaf to get a diagnosis and treatment suggestions.</p>
<form method="POST" action="/api/predict" enctype="multipart/form-data">
  <input type="file" name="image" accept="image/*" required>
  <select name="arch">
    <option value="vit">ViT</option>
    <option value="swin">Swin</option>
  </select>
  <button type="submit">Diagnose</button>
</form>
</body>
</html>
`
