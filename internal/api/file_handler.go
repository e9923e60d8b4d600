package api

import (
	"net/http"
	"os"
	"strings"
	"studyhub/internal/service"

	"github.com/gin-gonic/gin"
)

// 提供附件blob的下载
type FileHandler struct {
	blobs *service.LocalBlobStore
}

func NewFileHandler(blobs *service.LocalBlobStore) *FileHandler {
	return &FileHandler{blobs: blobs}
}

func (h *FileHandler) Download(c *gin.Context) {
	if _, ok := getUserIDFromContext(c); !ok {
		return
	}

	path := c.Param("path")
	if path == "" || path == "/" || strings.Contains(path, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file path"})
		return
	}

	fullPath := h.blobs.Resolve(path)
	if _, err := os.Stat(fullPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	c.File(fullPath)
}
