package model

import (
	"time"
)

// 按用户+科目+自然周聚合的学习进度。
// 同一(user_id, subject, week_start)只有一行，更新语义是在原值上累加。
type StudyProgress struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"not null;index;uniqueIndex:idx_user_subject_week" json:"user_id"`
	Subject           string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_user_subject_week" json:"subject"`
	WeekStart         time.Time `gorm:"not null;index;uniqueIndex:idx_user_subject_week" json:"week_start"`
	HoursStudied      float64   `gorm:"default:0" json:"hours_studied"`
	SessionsCompleted int       `gorm:"default:0" json:"sessions_completed"`
	GoalsMet          int       `gorm:"default:0" json:"goals_met"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
