package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Username   string `gorm:"type:varchar(30);not null;uniqueIndex" json:"username"`
	Password   string `gorm:"type:varchar(100);not null" json:"-"`
	Email      string `gorm:"type:varchar(100);not null;uniqueIndex" json:"email"`
	FullName   string `gorm:"type:varchar(100)" json:"full_name"`
	Avatar     string `gorm:"type:varchar(255)" json:"avatar"`
	University string `gorm:"type:varchar(100);index" json:"university"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
