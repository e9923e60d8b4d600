package api

import (
	"io"
	"net/http"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// 发送消息。multipart form：content文本字段 + 可选的file附件。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	content := c.PostForm("content")

	var attachment *service.Attachment
	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file"})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		attachment = &service.Attachment{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	message, err := h.chatService.SendMessage(userID, groupID, content, attachment)
	if err != nil {
		logger.L.Warn("Error sending message via service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("senderID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent",
		"data":    message,
	})
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}
	limit, offset := getPaginationParams(c)

	messages, err := h.chatService.History(userID, groupID, limit, offset)
	if err != nil {
		logger.L.Error("Error getting chat history from service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("requesterID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
