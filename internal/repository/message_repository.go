package repository

import (
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{db: db.DB}
}

// 保存新消息
func (r *MessageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// 获取群组的聊天记录，按创建时间升序
// created_at相同的行依赖存储返回的稳定插入顺序，不额外断开平局
func (r *MessageRepository) FindByGroupID(groupID uint, limit, offset int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}
