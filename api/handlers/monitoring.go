package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlforge/modelops/internal/drift"
	"github.com/mlforge/modelops/internal/health"
	"github.com/mlforge/modelops/internal/logger"
	"github.com/mlforge/modelops/internal/monitor"
	"github.com/mlforge/modelops/pkg/database/queries"
)

type MonitoringHandler struct {
	detector *drift.Detector
	monitor  *monitor.Monitor
	scorer   *health.Scorer
	perfRepo *queries.PerformanceRepository
	window   int
}

// NewMonitoringHandler wires the drift, performance and health components.
// perfRepo may be nil when running without a database.
func NewMonitoringHandler(detector *drift.Detector, mon *monitor.Monitor, scorer *health.Scorer, perfRepo *queries.PerformanceRepository, windowSize int) *MonitoringHandler {
	if windowSize == 0 {
		windowSize = 1000
	}
	return &MonitoringHandler{
		detector: detector,
		monitor:  mon,
		scorer:   scorer,
		perfRepo: perfRepo,
		window:   windowSize,
	}
}

type ReferenceRequest struct {
	Features map[string][]float64 `json:"features" binding:"required"`
}

func (h *MonitoringHandler) SetReference(c *gin.Context) {
	var req ReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	h.detector.SetReference(name, req.Features)

	c.JSON(http.StatusOK, gin.H{
		"model_name": name,
		"features":   len(req.Features),
	})
}

type DataDriftRequest struct {
	Features map[string][]float64 `json:"features" binding:"required"`
}

func (h *MonitoringHandler) CheckDataDrift(c *gin.Context) {
	var req DataDriftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.detector.DetectDataDrift(c.Param("name"), req.Features)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type ConceptDriftRequest struct {
	Predictions []float64 `json:"predictions" binding:"required"`
	Labels      []float64 `json:"labels"`
}

func (h *MonitoringHandler) CheckConceptDrift(c *gin.Context) {
	var req ConceptDriftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.detector.DetectConceptDrift(c.Param("name"), req.Predictions, req.Labels)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type BaselineRequest struct {
	Metrics map[string]float64 `json:"metrics" binding:"required"`
}

func (h *MonitoringHandler) SetBaseline(c *gin.Context) {
	var req BaselineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	h.monitor.SetBaseline(name, req.Metrics)

	c.JSON(http.StatusOK, gin.H{
		"model_name": name,
		"metrics":    len(req.Metrics),
	})
}

type RecordRequest struct {
	Predictions    []float64 `json:"predictions" binding:"required"`
	Labels         []float64 `json:"labels" binding:"required"`
	Probabilities  []float64 `json:"probabilities"`
	LatencySeconds float64   `json:"latency_seconds"`
}

func (h *MonitoringHandler) RecordPerformance(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	record, err := h.monitor.Record(name, monitor.RecordInput{
		Predictions:    req.Predictions,
		Labels:         req.Labels,
		Probabilities:  req.Probabilities,
		LatencySeconds: req.LatencySeconds,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if h.perfRepo != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := h.perfRepo.Append(ctx, record); err != nil {
			logger.WithModel(name).Errorf("Failed to archive performance record: %v", err)
		} else if err := h.perfRepo.Prune(ctx, name, h.window); err != nil {
			logger.WithModel(name).Errorf("Failed to prune performance records: %v", err)
		}
	}

	c.JSON(http.StatusCreated, record)
}

func (h *MonitoringHandler) GetHistory(c *gin.Context) {
	history := h.monitor.History(c.Param("name"))
	c.JSON(http.StatusOK, gin.H{
		"records": history,
		"count":   len(history),
	})
}

func (h *MonitoringHandler) CheckDegradation(c *gin.Context) {
	report, err := h.monitor.DetectDegradation(c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

type HealthScoreRequest struct {
	Quality        float64 `json:"quality"`
	LatencySeconds float64 `json:"latency_seconds"`
	DataDriftScore float64 `json:"data_drift_score"`
	ConceptDrifted bool    `json:"concept_drifted"`
	Availability   float64 `json:"availability"`
}

// ScoreHealth computes a health report from caller-supplied signals. The
// watchdog computes the same report automatically for watched models.
func (h *MonitoringHandler) ScoreHealth(c *gin.Context) {
	var req HealthScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.scorer.Score(c.Param("name"), health.Signals{
		Quality:        req.Quality,
		LatencySeconds: req.LatencySeconds,
		DataDriftScore: req.DataDriftScore,
		ConceptDrifted: req.ConceptDrifted,
		Availability:   req.Availability,
	})

	c.JSON(http.StatusOK, report)
}

// LatestHealth derives a report from the model's recent window without
// caller-supplied signals.
func (h *MonitoringHandler) LatestHealth(c *gin.Context) {
	name := c.Param("name")
	history := h.monitor.History(name)
	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no performance history for model " + name})
		return
	}

	last := history[len(history)-1]
	signals := health.Signals{Quality: 1, Availability: 1}
	if cm := last.Classification; cm != nil {
		signals.Quality = cm.Accuracy
	} else if rm := last.Regression; rm != nil {
		signals.Quality = rm.R2
	}
	if last.LatencySeconds != nil {
		signals.LatencySeconds = *last.LatencySeconds
	}

	report := h.scorer.Score(name, signals)
	c.JSON(http.StatusOK, report)
}
