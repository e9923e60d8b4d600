package repository

import (
	"errors"
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type GroupMemberRepository struct {
	db *gorm.DB
}

func NewGroupMemberRepository() *GroupMemberRepository {
	return &GroupMemberRepository{db: db.DB}
}

// 将用户添加到群组。
// 重复添加触发唯一键冲突，原样返回由调用方映射成领域结果。
func (r *GroupMemberRepository) Add(groupID, userID uint) error {
	member := &model.GroupMember{
		GroupID: groupID,
		UserID:  userID,
	}
	return r.db.Create(member).Error
}

// 将用户从群组中移除
func (r *GroupMemberRepository) Remove(groupID, userID uint) error {
	return r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{}).Error
}

// 查找特定群组的特定成员
func (r *GroupMemberRepository) Find(groupID, userID uint) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// 判断用户是否是群组成员
func (r *GroupMemberRepository) IsMember(groupID, userID uint) (bool, error) {
	member, err := r.Find(groupID, userID)
	if err != nil {
		return false, err
	}
	return member != nil, nil
}

// 群组成员数
func (r *GroupMemberRepository) Count(groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.GroupMember{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

// 获取群组所有成员的ID列表
func (r *GroupMemberRepository) FindMemberIDs(groupID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.Model(&model.GroupMember{}).Where("group_id = ?", groupID).Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// 查找用户所属的所有群组ID
func (r *GroupMemberRepository) FindGroupIDsByUser(userID uint) ([]uint, error) {
	var groupIDs []uint
	err := r.db.Model(&model.GroupMember{}).Where("user_id = ?", userID).Pluck("group_id", &groupIDs).Error
	return groupIDs, err
}
