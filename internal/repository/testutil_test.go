package repository

import (
	"fmt"
	"testing"

	"studyhub/internal/model"
	"studyhub/pkg/config"
	"studyhub/pkg/db"
	"studyhub/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Test Setup ---

// setupTestDB initializes config, logger and the test database,
// and registers cleanup for every table the repositories touch.
func setupTestDB(t *testing.T) {
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
		cleanupTable(t, &model.Notification{}, "notifications")
		cleanupTable(t, &model.Message{}, "messages")
		cleanupTable(t, &model.GroupRequest{}, "group_requests")
		cleanupTable(t, &model.GroupMember{}, "group_members")
		cleanupTable(t, &model.StudySession{}, "study_sessions")
		cleanupTable(t, &model.StudyProgress{}, "study_progresses")
		cleanupTable(t, &model.StudyGroup{}, "study_groups")
		cleanupTable(t, &model.User{}, "users")
	})
}

func cleanupTable(t *testing.T, value any, name string) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(value).Error; err != nil {
		t.Logf("Warning: Failed to cleanup %s table: %v", name, err)
	}
}

// createTestUser inserts a user with defaults derived from the username.
func createTestUser(t *testing.T, username string) *model.User {
	user := &model.User{
		Username:   username,
		Password:   "testpassword",
		Email:      fmt.Sprintf("%s@example.com", username),
		Avatar:     "default.png",
		University: "Test University",
	}
	err := NewUserRepository().Create(user)
	require.NoError(t, err, "Failed to create test user %s", username)
	require.True(t, user.ID > 0)
	return user
}

// createTestGroup inserts a group owned by creatorID (who becomes a member).
func createTestGroup(t *testing.T, creatorID uint, name string) *model.StudyGroup {
	group := &model.StudyGroup{
		Name:       name,
		Subject:    "Algorithms",
		MaxMembers: 10,
		IsPublic:   true,
		CreatedBy:  creatorID,
	}
	err := NewGroupRepository().Create(group)
	require.NoError(t, err, "Failed to create test group %s", name)
	require.True(t, group.ID > 0)
	return group
}
