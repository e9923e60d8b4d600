package repository

import (
	"errors"
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository() *GroupRepository {
	return &GroupRepository{db: db.DB}
}

// 创建新群组，并自动将创建者添加为成员
func (r *GroupRepository) Create(group *model.StudyGroup) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		// 创建者自动入组
		creatorMember := &model.GroupMember{
			GroupID: group.ID,
			UserID:  group.CreatedBy,
		}
		if err := tx.Create(creatorMember).Error; err != nil {
			return err
		}
		return nil
	})
}

// 根据ID查找群组
func (r *GroupRepository) FindByID(groupID uint) (*model.StudyGroup, error) {
	var group model.StudyGroup
	err := r.db.First(&group, groupID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // group not found
		}
		return nil, err
	}
	return &group, nil
}

// 按创建时间倒序列出全部群组
func (r *GroupRepository) FindAll() ([]model.StudyGroup, error) {
	var groups []model.StudyGroup
	err := r.db.Order("created_at DESC").Find(&groups).Error
	return groups, err
}

// 查找某用户创建的所有群组ID
func (r *GroupRepository) FindIDsCreatedBy(userID uint) ([]uint, error) {
	var groupIDs []uint
	err := r.db.Model(&model.StudyGroup{}).Where("created_by = ?", userID).Pluck("id", &groupIDs).Error
	return groupIDs, err
}

// 删除群组。消息、申请、成员都有指向群组行的外键，
// 子表必须先清空，群组行才删得掉。放同一事务里，
// 任何一步失败整体回滚，不留半删状态。
func (r *GroupRepository) Delete(groupID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", groupID).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.StudyGroup{}, groupID).Error
	})
}
