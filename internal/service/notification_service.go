package service

import (
	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/internal/repository"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// NotificationService 负责通知的落库和变更事件发布。
// Dispatch是fire-and-forget：通知只是副作用，失败只记日志，
// 绝不上抛给触发它的那个操作。
type NotificationService struct {
	feed             realtime.Feed
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(feed realtime.Feed, notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{
		feed:             feed,
		notificationRepo: notificationRepo,
	}
}

// Dispatch 创建通知记录并发布插入事件。永不返回错误。
func (s *NotificationService) Dispatch(targetUserID uint, notificationType, title, message string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	notification := &model.Notification{
		UserID:  targetUserID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Data:    data,
	}

	if err := s.notificationRepo.Create(notification); err != nil {
		logger.L.Error("Failed to create notification",
			zap.Uint("targetUserID", targetUserID),
			zap.String("type", notificationType),
			zap.Error(err))
		return
	}

	s.publishInsert(notification)
}

func (s *NotificationService) publishInsert(notification *model.Notification) {
	event, err := realtime.NewEvent(realtime.TableNotifications, realtime.OpInsert, notification)
	if err != nil {
		logger.L.Error("Failed to build notification event", zap.Error(err))
		return
	}
	if err := s.feed.Publish(event); err != nil {
		// 订阅方靠周期对账补上，这里不重试
		logger.L.Warn("Failed to publish notification event", zap.Error(err))
	}
}

// List 返回某用户的全部通知，最新的在前
func (s *NotificationService) List(userID uint) ([]model.Notification, error) {
	return s.notificationRepo.FindByUserID(userID)
}

// FindByUserID 同List，满足同步视图的存储接口
func (s *NotificationService) FindByUserID(userID uint) ([]model.Notification, error) {
	return s.notificationRepo.FindByUserID(userID)
}

// MarkRead 把单条通知翻成已读
func (s *NotificationService) MarkRead(notificationID uint) error {
	if notificationID == 0 {
		return apperr.ErrValidation
	}
	return s.notificationRepo.MarkRead(notificationID)
}

// MarkAllRead 把某用户的全部未读翻成已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// CountUnread 按is_read=false重新统计未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}
