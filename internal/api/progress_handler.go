package api

import (
	"net/http"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{
		progressService: progressService,
	}
}

func (h *ProgressHandler) RecordProgress(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.progressService.RecordProgress(userID, req); err != nil {
		logger.L.Error("Error recording study progress", zap.Error(err), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Progress recorded successfully"})
}

func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	rows, err := h.progressService.ListProgress(userID)
	if err != nil {
		logger.L.Error("Error listing study progress", zap.Error(err), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	totals, err := h.progressService.TotalStats(userID)
	if err != nil {
		logger.L.Error("Error totalling study progress", zap.Error(err), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress": rows,
		"totals":   totals,
	})
}
