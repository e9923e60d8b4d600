package api

import (
	"net/http"
	"studyhub/internal/service"
	"studyhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
	}
}

func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.L.Warn("Failed to bind CreateGroup request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	group, err := h.groupService.CreateGroup(userID, req)
	if err != nil {
		logger.L.Error("Error creating group via service", zap.Error(err), zap.Uint("creatorID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Group created successfully",
		"group":   group,
	})
}

func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	groups, err := h.groupService.ListGroups()
	if err != nil {
		logger.L.Error("Error listing groups from service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve groups"})
		return
	}

	myGroupIDs, err := h.groupService.ListMyGroupIDs(userID)
	if err != nil {
		logger.L.Warn("Error listing memberships, returning groups only", zap.Error(err), zap.Uint("userID", userID))
	}

	c.JSON(http.StatusOK, gin.H{
		"groups":       groups,
		"my_group_ids": myGroupIDs,
	})
}

func (h *GroupHandler) JoinGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	if err := h.groupService.Join(userID, groupID); err != nil {
		logger.L.Warn("Error joining group via service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined group successfully"})
}

func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	if err := h.groupService.Leave(userID, groupID); err != nil {
		logger.L.Warn("Error leaving group via service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("userID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	if err := h.groupService.DeleteGroup(userID, groupID); err != nil {
		logger.L.Warn("Error deleting group via service", zap.Error(err),
			zap.Uint("groupID", groupID), zap.Uint("actorID", userID))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

func (h *GroupHandler) GetMemberCount(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		return
	}
	groupID, ok := getUintParam(c, "group_id")
	if !ok {
		return
	}

	count, err := h.groupService.MemberCount(groupID)
	if err != nil {
		logger.L.Error("Error counting members", zap.Error(err), zap.Uint("groupID", groupID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"group_id": groupID, "member_count": count})
}
