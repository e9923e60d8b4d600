package repository

import (
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{db: db.DB}
}

// 创建通知记录
func (r *NotificationRepository) Create(notification *model.Notification) error {
	return r.db.Create(notification).Error
}

// 某用户的全部通知，最新的在前
func (r *NotificationRepository) FindByUserID(userID uint) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

// 将单条通知标记为已读
func (r *NotificationRepository) MarkRead(notificationID uint) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ?", notificationID).
		Update("is_read", true).Error
}

// 将某用户的全部未读通知标记为已读
func (r *NotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// 未读数量，计数器漂移时用它校正
func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
