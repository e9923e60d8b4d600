package api

import (
	"net/http"
	"studyhub/internal/repository"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *service.RequestService
	requestRepo    *repository.GroupRequestRepository
	groupRepo      *repository.GroupRepository
}

func NewRequestHandler(requestService *service.RequestService, requestRepo *repository.GroupRequestRepository, groupRepo *repository.GroupRepository) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		requestRepo:    requestRepo,
		groupRepo:      groupRepo,
	}
}

func (h *RequestHandler) SendRequest(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	request, err := h.requestService.RequestJoin(userID, groupID)
	if err != nil {
		logger.L.Warn("Error sending join request via service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("requesterID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Join request sent successfully",
		"request": request,
	})
}

func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	requestID, ok := getUintParam(c, "request_id")
	if !ok {
		return
	}

	if err := h.requestService.Accept(userID, requestID); err != nil {
		logger.L.Warn("Error accepting request via service", zap.Error(err),
			zap.Uint("requestID", requestID), zap.Uint("actorID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request accepted"})
}

func (h *RequestHandler) RejectRequest(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	requestID, ok := getUintParam(c, "request_id")
	if !ok {
		return
	}

	if err := h.requestService.Reject(userID, requestID); err != nil {
		logger.L.Warn("Error rejecting request via service", zap.Error(err),
			zap.Uint("requestID", requestID), zap.Uint("actorID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
}

// 自己发出的申请
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	requests, err := h.requestRepo.FindByRequester(userID)
	if err != nil {
		logger.L.Error("Error listing my requests", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// 自己创建的群组收到的待处理申请
func (h *RequestHandler) ListIncomingRequests(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	groupIDs, err := h.groupRepo.FindIDsCreatedBy(userID)
	if err != nil {
		logger.L.Error("Error listing created groups", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}

	requests, err := h.requestRepo.FindPendingByGroupIDs(groupIDs)
	if err != nil {
		logger.L.Error("Error listing incoming requests", zap.Error(err), zap.Uint("userID", userID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
