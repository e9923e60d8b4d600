package repository

import (
	"errors"
	"studyhub/internal/model"
	"studyhub/pkg/db"

	"gorm.io/gorm"
)

type GroupRequestRepository struct {
	db *gorm.DB
}

func NewGroupRequestRepository() *GroupRequestRepository {
	return &GroupRequestRepository{db: db.DB}
}

// 插入一条pending申请。
// (group_id, requester_id)的唯一键冲突原样返回，由调用方映射。
func (r *GroupRequestRepository) Create(request *model.GroupRequest) error {
	return r.db.Create(request).Error
}

// 根据ID查找申请
func (r *GroupRequestRepository) FindByID(requestID uint) (*model.GroupRequest, error) {
	var request model.GroupRequest
	err := r.db.First(&request, requestID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// 状态只允许从pending流出，WHERE子句守住单向流转。
// 返回是否真的发生了状态翻转。
func (r *GroupRequestRepository) UpdateStatusFromPending(requestID uint, status model.RequestStatus) (bool, error) {
	result := r.db.Model(&model.GroupRequest{}).
		Where("id = ? AND status = ?", requestID, model.RequestStatusPending).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// 某用户发出的全部申请，最新的在前
func (r *GroupRequestRepository) FindByRequester(requesterID uint) ([]model.GroupRequest, error) {
	var requests []model.GroupRequest
	err := r.db.Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// 一批群组的待处理申请，最新的在前（群主的收件箱）
func (r *GroupRequestRepository) FindPendingByGroupIDs(groupIDs []uint) ([]model.GroupRequest, error) {
	var requests []model.GroupRequest
	if len(groupIDs) == 0 {
		return requests, nil
	}
	err := r.db.Where("group_id IN ? AND status = ?", groupIDs, model.RequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// 查找某用户对某群组的待处理申请
func (r *GroupRequestRepository) FindPending(groupID, requesterID uint) (*model.GroupRequest, error) {
	var request model.GroupRequest
	err := r.db.Where("group_id = ? AND requester_id = ? AND status = ?",
		groupID, requesterID, model.RequestStatusPending).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}
