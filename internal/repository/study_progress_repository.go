package repository

import (
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudyProgressRepository struct {
	db *gorm.DB
}

func NewStudyProgressRepository() *StudyProgressRepository {
	return &StudyProgressRepository{db: db.DB}
}

// 累加该用户该科目该周的进度：没有行则插入，有则在原值上累加。
// 累加在ON DUPLICATE KEY UPDATE里完成，并发写不会丢更新。
func (r *StudyProgressRepository) Accumulate(progress *model.StudyProgress) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "subject"}, {Name: "week_start"}},
		DoUpdates: clause.Assignments(map[string]any{
			"hours_studied":      gorm.Expr("hours_studied + VALUES(hours_studied)"),
			"sessions_completed": gorm.Expr("sessions_completed + VALUES(sessions_completed)"),
			"goals_met":          gorm.Expr("goals_met + VALUES(goals_met)"),
		}),
	}).Create(progress).Error
}

// 按周起始倒序列出某用户的全部进度记录
func (r *StudyProgressRepository) FindByUserID(userID uint) ([]model.StudyProgress, error) {
	var rows []model.StudyProgress
	err := r.db.Where("user_id = ?", userID).Order("week_start DESC").Find(&rows).Error
	return rows, err
}
