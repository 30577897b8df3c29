// Copyright 2026 The PlantDisease Authors. SPDX-License-Identifier: Apache-2.0

package plantdisease

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// The backend is only touched when a model is loaded, so routes that fail
// before inference can be tested without one.
func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := NewServer(nil, ServerConfig{CheckpointDir: "checkpoints", DefaultArch: ViT})
	return server.Router()
}

func TestServerHealth(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestServerModels(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vit")
	assert.Contains(t, w.Body.String(), "swin")
}

func TestServerIndex(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Plant Disease Detection")
}

func TestServerPredictBadRequests(t *testing.T) {
	router := testRouter()

	// No image in the form.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/predict", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown architecture.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/predict",
		strings.NewReader("arch=resnet"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
