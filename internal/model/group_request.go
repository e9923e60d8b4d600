package model

import (
	"time"
)

type RequestStatus string

const (
	// none不落库，表示该用户对该群组没有任何申请记录
	RequestStatusNone     RequestStatus = "none"
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// GroupRequest 表示一次入群申请
// (group_id, requester_id)唯一，重复申请由数据库唯一键拦截。
// 状态只能从pending单向流转到accepted或rejected，终态不可逆。
type GroupRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	GroupID     uint          `gorm:"not null;index;uniqueIndex:idx_group_requester" json:"group_id"`
	RequesterID uint          `gorm:"not null;index;uniqueIndex:idx_group_requester" json:"requester_id"`
	Status      RequestStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Group     StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
	Requester User       `gorm:"foreignKey:RequesterID" json:"-"`
}
