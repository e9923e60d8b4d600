package model

import (
	"time"
)

const (
	NotificationTypeJoinRequest     = "join_request"
	NotificationTypeRequestAccepted = "request_accepted"
	NotificationTypeRequestRejected = "request_rejected"
)

// 通知作为其他操作的副作用产生，只有is_read允许翻转
// Data是按通知类型组织的结构化负载(例如 group_id/requester_id)
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"type:varchar(32);not null;index" json:"type"`
	Title     string         `gorm:"type:varchar(100);not null" json:"title"`
	Message   string         `gorm:"type:varchar(500)" json:"message"`
	Data      map[string]any `gorm:"serializer:json" json:"data"`
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
