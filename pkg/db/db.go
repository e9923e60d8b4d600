package db

import (
	"fmt"
	"log"
	"studyhub/internal/model"
	"studyhub/pkg/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

// 初始化数据库连接
func InitDB() error {
	var err error
	DB, err = gorm.Open(mysql.Open(config.GlobalConfig.Database.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// 自动迁移模式
	// 注意顺序：被外键引用的表先建
	err = DB.AutoMigrate(
		&model.User{},
		&model.StudyGroup{},
		&model.GroupMember{},
		&model.GroupRequest{},
		&model.Message{},
		&model.Notification{},
		&model.StudySession{},
		&model.StudyProgress{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("Database connected and migrated successfully")
	return nil
}
