package repository

import (
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type StudySessionRepository struct {
	db *gorm.DB
}

func NewStudySessionRepository() *StudySessionRepository {
	return &StudySessionRepository{db: db.DB}
}

// 创建学习时段
func (r *StudySessionRepository) Create(session *model.StudySession) error {
	return r.db.Create(session).Error
}

// 按开始时间升序列出全部时段
func (r *StudySessionRepository) FindAll() ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.db.Order("scheduled_at ASC").Find(&sessions).Error
	return sessions, err
}

// 只有主持人可以修改自己的时段，返回是否更新成功
func (r *StudySessionRepository) UpdateIfHost(sessionID, hostID uint, updates map[string]any) (bool, error) {
	result := r.db.Model(&model.StudySession{}).
		Where("id = ? AND host_id = ?", sessionID, hostID).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
