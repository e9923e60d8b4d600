package api

import (
	"net/http"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.sessionService.CreateSession(userID, req)
	if err != nil {
		logger.L.Error("Error creating session via service", zap.Error(err), zap.Uint("hostID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Session created successfully",
		"session": session,
	})
}

func (h *SessionHandler) UpdateSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	sessionID, ok := getUintParam(c, "session_id")
	if !ok {
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	// 主持人和主键不允许改
	delete(updates, "id")
	delete(updates, "host_id")

	if err := h.sessionService.UpdateSession(userID, sessionID, updates); err != nil {
		logger.L.Warn("Error updating session via service", zap.Error(err),
			zap.Uint("sessionID", sessionID), zap.Uint("hostID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session updated successfully"})
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		return
	}

	sessions, err := h.sessionService.ListSessions()
	if err != nil {
		logger.L.Error("Error listing sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
