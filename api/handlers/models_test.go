package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlforge/modelops/internal/registry"
)

func newRegisterRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.New(registry.NewMemoryStore(), registry.NewMemoryArtifactStore(), nil)
	handler := NewModelHandler(reg, nil, nil)

	router := gin.New()
	router.POST("/models", handler.Register)
	return router
}

func registerBody(t *testing.T, kind string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"model_name": "demand-model",
		"version":    "1.0.0",
		"kind":       kind,
		"artifact":   base64.StdEncoding.EncodeToString([]byte("weights")),
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestModelHandler_Register_AcceptsAllKinds(t *testing.T) {
	for _, kind := range []string{"classification", "regression", "forecasting", "segmentation"} {
		t.Run(kind, func(t *testing.T) {
			router := newRegisterRouter(t)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/models", registerBody(t, kind))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusCreated, w.Code)
		})
	}
}

func TestModelHandler_Register_RejectsUnknownKind(t *testing.T) {
	router := newRegisterRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/models", registerBody(t, "clustering"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
