package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// BlobStore 是附件存储的抽象：写入一个blob，换回稳定可取回的URL
type BlobStore interface {
	Upload(path string, data []byte) error
	PublicURL(path string) string
}

// LocalBlobStore 把blob落在本地磁盘
type LocalBlobStore struct {
	basePath string
	baseURL  string
}

func NewLocalBlobStore() (*LocalBlobStore, error) {
	basePath := config.GlobalConfig.Storage.Path
	if basePath == "" {
		basePath = "uploads"
	}
	baseURL := strings.TrimSuffix(config.GlobalConfig.Storage.BaseURL, "/")
	if baseURL == "" {
		baseURL = "/files"
	}

	// 确保目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalBlobStore{basePath: basePath, baseURL: baseURL}, nil
}

// Upload 保存blob。path由调用方按 上传者/时间戳/随机后缀 命名，避免冲突。
func (s *LocalBlobStore) Upload(path string, data []byte) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(path))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}

	logger.L.Info("Blob stored successfully",
		zap.String("path", path),
		zap.Int("size", len(data)))
	return nil
}

// PublicURL 返回blob的对外URL
func (s *LocalBlobStore) PublicURL(path string) string {
	return s.baseURL + "/" + path
}

// Resolve 把公开path映射回磁盘位置，供下载接口使用
func (s *LocalBlobStore) Resolve(path string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(path))
}
