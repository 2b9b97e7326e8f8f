package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlforge/modelops/internal/abtest"
	"github.com/mlforge/modelops/pkg/models"
)

type ABTestHandler struct {
	framework *abtest.Framework
}

func NewABTestHandler(framework *abtest.Framework) *ABTestHandler {
	return &ABTestHandler{framework: framework}
}

// TrafficSplit and DurationDays are optional; omitted values fall back
// to the framework's configured defaults.
type CreateABTestRequest struct {
	Name         string  `json:"name" binding:"required"`
	ModelName    string  `json:"model_name" binding:"required"`
	VersionA     string  `json:"version_a" binding:"required"`
	VersionB     string  `json:"version_b" binding:"required"`
	TrafficSplit float64 `json:"traffic_split"`
	DurationDays int     `json:"duration_days"`
}

func (h *ABTestHandler) Create(c *gin.Context) {
	var req CreateABTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	test, err := h.framework.CreateTest(ctx, abtest.CreateInput{
		Name:         req.Name,
		ModelName:    req.ModelName,
		VersionA:     req.VersionA,
		VersionB:     req.VersionB,
		TrafficSplit: req.TrafficSplit,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

func (h *ABTestHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	test, err := h.framework.Get(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

func (h *ABTestHandler) Assign(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	variant, err := h.framework.Assign(ctx, c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"test_id": c.Param("id"),
		"user_id": userID,
		"variant": variant,
	})
}

type RecordOutcomeRequest struct {
	Variant        string  `json:"variant" binding:"required,oneof=A B"`
	Prediction     float64 `json:"prediction"`
	Actual         float64 `json:"actual"`
	LatencySeconds float64 `json:"latency_seconds"`
}

func (h *ABTestHandler) RecordOutcome(c *gin.Context) {
	var req RecordOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	err := h.framework.RecordOutcome(ctx, c.Param("id"),
		models.Variant(req.Variant), req.Prediction, req.Actual, req.LatencySeconds)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recorded": true})
}

func (h *ABTestHandler) Results(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.framework.Results(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *ABTestHandler) Complete(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.framework.Complete(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
