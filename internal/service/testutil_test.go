package service

import (
	"fmt"
	"testing"

	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/pkg/config"
	"studyhub/pkg/db"
	"studyhub/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Test Setup ---

// setupTestEnv initializes config, logger, the test database and an
// in-process change feed, and registers table cleanup.
func setupTestEnv(t *testing.T) realtime.Feed {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if logger.L == nil {
		if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
			t.Logf("Logger init failed (using default): %v", err)
		}
	}
	err := db.InitDB()
	require.NoError(t, err, "Failed to connect to test database")

	t.Cleanup(func() {
		wipeTable(t, &model.Notification{}, "notifications")
		wipeTable(t, &model.Message{}, "messages")
		wipeTable(t, &model.GroupRequest{}, "group_requests")
		wipeTable(t, &model.GroupMember{}, "group_members")
		wipeTable(t, &model.StudySession{}, "study_sessions")
		wipeTable(t, &model.StudyProgress{}, "study_progresses")
		wipeTable(t, &model.StudyGroup{}, "study_groups")
		wipeTable(t, &model.User{}, "users")
	})

	hub := realtime.NewHub()
	go hub.Run()
	return hub
}

func wipeTable(t *testing.T, value any, name string) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(value).Error; err != nil {
		t.Logf("Warning: Failed to cleanup %s table: %v", name, err)
	}
}

func insertTestUser(t *testing.T, username string) *model.User {
	user := &model.User{
		Username:   username,
		Password:   "testpassword",
		Email:      fmt.Sprintf("%s@example.com", username),
		Avatar:     "default.png",
		University: "Test University",
	}
	require.NoError(t, db.DB.Create(user).Error, "Failed to create test user %s", username)
	return user
}
