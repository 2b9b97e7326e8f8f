package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlforge/modelops/internal/registry"
	"github.com/mlforge/modelops/internal/watchdog"
	"github.com/mlforge/modelops/pkg/models"
	"github.com/mlforge/modelops/pkg/validation"
)

// ModelWatcher is the watchdog surface the API needs.
type ModelWatcher interface {
	WatchModel(modelName string, feed watchdog.PredictionFeed) error
	UnwatchModel(modelName string) error
	IsWatching(modelName string) bool
	WatchedModels() []string
	SubscribeAllEvents() <-chan *models.Event
}

type ModelHandler struct {
	registry    *registry.Registry
	watcher     ModelWatcher
	feedFactory func(modelName string) watchdog.PredictionFeed
}

func NewModelHandler(reg *registry.Registry, watcher ModelWatcher, feedFactory func(modelName string) watchdog.PredictionFeed) *ModelHandler {
	return &ModelHandler{
		registry:    reg,
		watcher:     watcher,
		feedFactory: feedFactory,
	}
}

type RegisterModelRequest struct {
	ModelName          string             `json:"model_name" binding:"required"`
	Version            string             `json:"version" binding:"required"`
	Kind               string             `json:"kind" binding:"required,oneof=classification regression forecasting segmentation"`
	Artifact           string             `json:"artifact" binding:"required"`
	Metrics            map[string]float64 `json:"metrics"`
	Description        string             `json:"description"`
	TrainingDataDigest string             `json:"training_data_digest"`
}

func (h *ModelHandler) Register(c *gin.Context) {
	var req RegisterModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	artifact, err := base64.StdEncoding.DecodeString(req.Artifact)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact must be base64 encoded"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	version, err := h.registry.Register(ctx, artifact, registry.RegisterInput{
		ModelName:          validation.SanitizeString(req.ModelName),
		Version:            req.Version,
		Kind:               models.ModelKind(req.Kind),
		Metrics:            req.Metrics,
		Description:        validation.SanitizeString(req.Description),
		TrainingDataDigest: req.TrainingDataDigest,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, version)
}

func (h *ModelHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	versions, err := h.registry.List(ctx, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"versions": versions,
		"count":    len(versions),
	})
}

func (h *ModelHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, version, err := h.registry.Get(ctx, c.Param("name"), c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// GetActive returns the currently active version, when one exists.
func (h *ModelHandler) GetActive(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	_, version, err := h.registry.Get(ctx, c.Param("name"), "")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, version)
}

// Download streams the stored artifact bytes.
func (h *ModelHandler) Download(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	artifact, version, err := h.registry.Get(ctx, c.Param("name"), c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("X-Artifact-Digest", version.ArtifactDigest)
	c.Data(http.StatusOK, "application/octet-stream", artifact)
}

func (h *ModelHandler) Activate(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	name := c.Param("name")
	version := c.Param("version")

	if err := h.registry.SetActive(ctx, name, version); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model_name": name,
		"version":    version,
		"active":     true,
	})
}

// Watch starts the monitoring pipeline for the model.
func (h *ModelHandler) Watch(c *gin.Context) {
	name := c.Param("name")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// The model must exist before we start watching it
	if _, _, err := h.registry.Get(ctx, name, ""); err != nil {
		respondError(c, err)
		return
	}

	if h.watcher.IsWatching(name) {
		c.JSON(http.StatusConflict, gin.H{"error": "model is already being watched"})
		return
	}

	if err := h.watcher.WatchModel(name, h.feedFactory(name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model_name": name, "watching": true})
}

// Unwatch stops the monitoring pipeline for the model.
func (h *ModelHandler) Unwatch(c *gin.Context) {
	name := c.Param("name")

	if err := h.watcher.UnwatchModel(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"model_name": name, "watching": false})
}

// Watched lists models with running pipelines.
func (h *ModelHandler) Watched(c *gin.Context) {
	watched := h.watcher.WatchedModels()
	c.JSON(http.StatusOK, gin.H{
		"models": watched,
		"count":  len(watched),
	})
}
