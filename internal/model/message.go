package model

import (
	"time"
)

// 群组消息，创建后不可变更
// content可以为空，但此时必须携带附件
type Message struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	GroupID   uint   `gorm:"not null;index" json:"group_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	Content   string `gorm:"type:text" json:"content"`
	FileURL   string `gorm:"type:varchar(500)" json:"file_url"`
	FileName  string `gorm:"type:varchar(255)" json:"file_name"`
	FileType  string `gorm:"type:varchar(100)" json:"file_type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Group  StudyGroup `gorm:"foreignKey:GroupID" json:"-"`
	Sender User       `gorm:"foreignKey:UserID" json:"-"`
}
