package api

import (
	"net/http"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(userID)
	if err != nil {
		logger.L.Error("Error listing notifications", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	unread, err := h.notificationService.CountUnread(userID)
	if err != nil {
		logger.L.Warn("Error counting unread notifications", zap.Error(err), zap.Uint("userID", userID))
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		return
	}
	notificationID, ok := getUintParam(c, "notification_id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(notificationID); err != nil {
		logger.L.Warn("Error marking notification read", zap.Error(err),
			zap.Uint("notificationID", notificationID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		logger.L.Warn("Error marking all notifications read", zap.Error(err), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
