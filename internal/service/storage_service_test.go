package service

import (
	"os"
	"path/filepath"
	"testing"

	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBlobStore(t *testing.T) *LocalBlobStore {
	if logger.L == nil {
		require.NoError(t, logger.InitLogger("info", false))
	}
	config.GlobalConfig.Storage = config.StorageConfig{
		Path:    t.TempDir(),
		BaseURL: "/files",
	}
	store, err := NewLocalBlobStore()
	require.NoError(t, err)
	return store
}

func TestLocalBlobStore_UploadAndResolve(t *testing.T) {
	store := setupBlobStore(t)

	path := "user_1/12345_abc_notes.pdf"
	require.NoError(t, store.Upload(path, []byte("pdf content")))

	data, err := os.ReadFile(store.Resolve(path))
	require.NoError(t, err)
	assert.Equal(t, "pdf content", string(data))

	assert.Equal(t, "/files/user_1/12345_abc_notes.pdf", store.PublicURL(path))
}

func TestLocalBlobStore_CreatesNestedDirectories(t *testing.T) {
	store := setupBlobStore(t)

	path := "user_7/deep/nested/file.txt"
	require.NoError(t, store.Upload(path, []byte("x")))

	info, err := os.Stat(store.Resolve(path))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestLocalBlobStore_Defaults(t *testing.T) {
	if logger.L == nil {
		require.NoError(t, logger.InitLogger("info", false))
	}

	tmp := t.TempDir()
	config.GlobalConfig.Storage = config.StorageConfig{
		Path:    filepath.Join(tmp, "uploads"),
		BaseURL: "/files/",
	}
	store, err := NewLocalBlobStore()
	require.NoError(t, err)

	// Trailing slash on the base URL is trimmed once, not doubled.
	assert.Equal(t, "/files/a/b.txt", store.PublicURL("a/b.txt"))

	// The base directory is created eagerly.
	info, err := os.Stat(filepath.Join(tmp, "uploads"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
