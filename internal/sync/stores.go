package sync

import (
	"studyhub/internal/model"
)

// 同步视图对存储层的依赖。repository层的具体类型天然满足这些接口，
// 测试用内存假实现替换。
type MessageStore interface {
	FindByGroupID(groupID uint, limit, offset int) ([]model.Message, error)
}

type ProfileStore interface {
	FindByID(userID uint) (*model.User, error)
	FindByIDs(userIDs []uint) ([]model.User, error)
}

type RequestStore interface {
	FindByRequester(requesterID uint) ([]model.GroupRequest, error)
	FindPendingByGroupIDs(groupIDs []uint) ([]model.GroupRequest, error)
}

type GroupStore interface {
	FindIDsCreatedBy(userID uint) ([]uint, error)
}

type NotificationStore interface {
	FindByUserID(userID uint) ([]model.Notification, error)
	MarkRead(notificationID uint) error
	MarkAllRead(userID uint) error
	CountUnread(userID uint) (int64, error)
}
