package model

import (
	"time"
)

// 成员资格按(group_id, user_id)唯一，一个用户在一个群组里至多出现一次
type GroupMember struct {
	GroupID  uint      `gorm:"primaryKey;autoIncrement:false" json:"group_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Group StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
	User  User       `gorm:"foreignKey:UserID" json:"-"`
}
