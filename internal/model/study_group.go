package model

import (
	"time"
)

type StudyGroup struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Subject     string `gorm:"type:varchar(100);not null;index" json:"subject"`
	Description string `gorm:"type:text" json:"description"`
	Difficulty  string `gorm:"type:varchar(20)" json:"difficulty"`
	MaxMembers  int    `gorm:"default:10" json:"max_members"`
	IsPublic    bool   `gorm:"default:true" json:"is_public"`
	CreatedBy   uint   `gorm:"not null;index" json:"created_by"`
	University  string `gorm:"type:varchar(100);index" json:"university"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Creator User          `gorm:"foreignKey:CreatedBy" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"-"`
}
