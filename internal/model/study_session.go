package model

import (
	"time"
)

// 学习小组的预约自习/讨论时段
type StudySession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	GroupID         uint      `gorm:"index" json:"group_id"`
	HostID          uint      `gorm:"not null;index" json:"host_id"`
	Title           string    `gorm:"type:varchar(100);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	ScheduledAt     time.Time `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int       `gorm:"default:60" json:"duration_minutes"`
	Location        string    `gorm:"type:varchar(255)" json:"location"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Host User `gorm:"foreignKey:HostID" json:"-"`
}
