package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlforge/modelops/internal/alerts"
	"github.com/mlforge/modelops/pkg/models"
)

type AlertHandler struct {
	manager *alerts.Manager
}

func NewAlertHandler(manager *alerts.Manager) *AlertHandler {
	return &AlertHandler{manager: manager}
}

type CreateAlertRequest struct {
	ModelName string            `json:"model_name" binding:"required"`
	Kind      string            `json:"kind" binding:"required,oneof=data_drift concept_drift performance prediction_drift"`
	Severity  string            `json:"severity" binding:"required,oneof=info warning critical emergency"`
	Message   string            `json:"message" binding:"required"`
	Metadata  map[string]string `json:"metadata"`
}

func (h *AlertHandler) Create(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	outcome, err := h.manager.Create(ctx,
		req.ModelName,
		models.DriftKind(req.Kind),
		models.AlertSeverity(req.Severity),
		req.Message,
		req.Metadata,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome.Suppressed {
		c.JSON(http.StatusTooManyRequests, outcome)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

func (h *AlertHandler) Active(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	active, err := h.manager.Active(ctx, c.Query("model_name"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": active,
		"count":  len(active),
	})
}

func (h *AlertHandler) Resolve(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.manager.Resolve(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "resolved": true})
}
