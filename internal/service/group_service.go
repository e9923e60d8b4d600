package service

import (
	"fmt"
	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/internal/repository"
	"studyhub/pkg/logger"

	"go.uber.org/zap"
)

// GroupService 是成员资格的权威入口：建群、直接加入、退出、
// 创建者专属的删群，以及成员关系查询。
// 并发下的重复加入交给数据库唯一键裁决，这里不加任何客户端锁。
type GroupService struct {
	feed       realtime.Feed
	groupRepo  *repository.GroupRepository
	memberRepo *repository.GroupMemberRepository
}

func NewGroupService(feed realtime.Feed, groupRepo *repository.GroupRepository, memberRepo *repository.GroupMemberRepository) *GroupService {
	return &GroupService{
		feed:       feed,
		groupRepo:  groupRepo,
		memberRepo: memberRepo,
	}
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Subject     string `json:"subject" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	MaxMembers  int    `json:"max_members"`
	IsPublic    *bool  `json:"is_public"`
	University  string `json:"university"`
}

// CreateGroup 创建群组，创建者自动成为成员
func (s *GroupService) CreateGroup(userID uint, req CreateGroupRequest) (*model.StudyGroup, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}
	maxMembers := req.MaxMembers
	if maxMembers <= 0 {
		maxMembers = 10
	}

	group := &model.StudyGroup{
		Name:        req.Name,
		Subject:     req.Subject,
		Description: req.Description,
		Difficulty:  req.Difficulty,
		MaxMembers:  maxMembers,
		IsPublic:    isPublic,
		CreatedBy:   userID,
		University:  req.University,
	}

	if err := s.groupRepo.Create(group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.publish(realtime.TableStudyGroups, realtime.OpInsert, group)
	s.publish(realtime.TableGroupMembers, realtime.OpInsert,
		&model.GroupMember{GroupID: group.ID, UserID: userID})

	return group, nil
}

// Join 直接加入公开群组。重复加入由唯一键拦下并映射成AlreadyMember，
// 不算硬错误。非公开群组只能走申请审批。
func (s *GroupService) Join(userID, groupID uint) error {
	if userID == 0 {
		return apperr.ErrUnauthenticated
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return apperr.ErrNotFound
	}
	if !group.IsPublic {
		return apperr.ErrForbidden
	}

	if err := s.memberRepo.Add(groupID, userID); err != nil {
		if apperr.IsDuplicate(err) {
			return apperr.ErrAlreadyMember
		}
		return fmt.Errorf("failed to join group: %w", err)
	}

	s.publish(realtime.TableGroupMembers, realtime.OpInsert,
		&model.GroupMember{GroupID: groupID, UserID: userID})
	return nil
}

// Leave 退出群组
func (s *GroupService) Leave(userID, groupID uint) error {
	if userID == 0 {
		return apperr.ErrUnauthenticated
	}
	if err := s.memberRepo.Remove(groupID, userID); err != nil {
		return fmt.Errorf("failed to leave group: %w", err)
	}
	s.publish(realtime.TableGroupMembers, realtime.OpUpdate,
		&model.GroupMember{GroupID: groupID, UserID: userID})
	return nil
}

// DeleteGroup 删除群组，仅限创建者。
// 成员行由外键约束要求先删，repository层保证该顺序。
func (s *GroupService) DeleteGroup(actorID, groupID uint) error {
	if actorID == 0 {
		return apperr.ErrUnauthenticated
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return apperr.ErrNotFound
	}
	if group.CreatedBy != actorID {
		return apperr.ErrForbidden
	}

	if err := s.groupRepo.Delete(groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.publish(realtime.TableStudyGroups, realtime.OpUpdate, group)
	return nil
}

// IsMember 判断用户是否是群组成员
func (s *GroupService) IsMember(groupID, userID uint) (bool, error) {
	return s.memberRepo.IsMember(groupID, userID)
}

// IsCreator 判断用户是否是群组创建者
func (s *GroupService) IsCreator(groupID, userID uint) (bool, error) {
	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return false, err
	}
	return group != nil && group.CreatedBy == userID, nil
}

// MemberCount 群组当前成员数
// 注意：max_members在加入和审批时都不做容量校验，这是沿用的既有行为
func (s *GroupService) MemberCount(groupID uint) (int64, error) {
	return s.memberRepo.Count(groupID)
}

// ListGroups 按创建时间倒序列出全部群组
func (s *GroupService) ListGroups() ([]model.StudyGroup, error) {
	return s.groupRepo.FindAll()
}

// ListMyGroupIDs 用户已加入的群组ID
func (s *GroupService) ListMyGroupIDs(userID uint) ([]uint, error) {
	return s.memberRepo.FindGroupIDsByUser(userID)
}

// 发布变更事件。发布失败只记日志，订阅方靠下一次对账恢复。
func (s *GroupService) publish(table string, op realtime.Op, row any) {
	event, err := realtime.NewEvent(table, op, row)
	if err != nil {
		logger.L.Error("Failed to build change event", zap.String("table", table), zap.Error(err))
		return
	}
	if err := s.feed.Publish(event); err != nil {
		logger.L.Warn("Failed to publish change event", zap.String("table", table), zap.Error(err))
	}
}
