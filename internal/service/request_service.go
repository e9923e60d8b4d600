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

// RequestService 实现入群申请的状态机：
//
//	none → pending → {accepted | rejected}
//
// 终态不可逆，本子系统不提供重新申请的路径。
// 成员资格与待处理申请互斥：requestJoin在两者任一成立时失败。
type RequestService struct {
	feed          realtime.Feed
	requestRepo   *repository.GroupRequestRepository
	groupRepo     *repository.GroupRepository
	memberRepo    *repository.GroupMemberRepository
	notifications *NotificationService
}

func NewRequestService(
	feed realtime.Feed,
	requestRepo *repository.GroupRequestRepository,
	groupRepo *repository.GroupRepository,
	memberRepo *repository.GroupMemberRepository,
	notifications *NotificationService,
) *RequestService {
	return &RequestService{
		feed:          feed,
		requestRepo:   requestRepo,
		groupRepo:     groupRepo,
		memberRepo:    memberRepo,
		notifications: notifications,
	}
}

// RequestJoin 发起入群申请。
// 既有成员 → AlreadyMember；已有待处理申请 → AlreadyRequested，
// 后者既有本地预检，也兜底映射插入时的唯一键冲突（并发写入方在别的客户端时
// 预检不可能看见）。申请行先落库，之后才给群主发通知；
// 通知失败不回滚申请。
func (s *RequestService) RequestJoin(requesterID, groupID uint) (*model.GroupRequest, error) {
	if requesterID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	group, err := s.groupRepo.FindByID(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, apperr.ErrNotFound
	}

	isMember, err := s.memberRepo.IsMember(groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil, apperr.ErrAlreadyMember
	}

	// 本地预检
	pending, err := s.requestRepo.FindPending(groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing request: %w", err)
	}
	if pending != nil {
		return nil, apperr.ErrAlreadyRequested
	}

	request := &model.GroupRequest{
		GroupID:     groupID,
		RequesterID: requesterID,
		Status:      model.RequestStatusPending,
	}
	if err := s.requestRepo.Create(request); err != nil {
		if apperr.IsDuplicate(err) {
			// 并发写入方抢先插入，映射成同一个领域结果
			return nil, apperr.ErrAlreadyRequested
		}
		return nil, fmt.Errorf("failed to create join request: %w", err)
	}

	s.publish(realtime.OpInsert, request)

	// 副作用顺序：申请行已存在，通知才有意义；通知是尽力而为
	s.notifications.Dispatch(group.CreatedBy,
		model.NotificationTypeJoinRequest,
		"New Join Request",
		fmt.Sprintf("Someone from your university wants to join %q", group.Name),
		map[string]any{"group_id": groupID, "requester_id": requesterID})

	return request, nil
}

// Accept 接受申请，仅限群组创建者。
// 成员插入对并发重复是幂等的：申请者可能已经从别的路径自行加入，
// 唯一键冲突在这里被吞掉而不是当失败上报。
func (s *RequestService) Accept(actorID, requestID uint) error {
	request, group, err := s.authorize(actorID, requestID)
	if err != nil {
		return err
	}

	flipped, err := s.requestRepo.UpdateStatusFromPending(requestID, model.RequestStatusAccepted)
	if err != nil {
		return fmt.Errorf("failed to accept request: %w", err)
	}
	if !flipped {
		if request.Status == model.RequestStatusRejected {
			// rejected是永久终态，不做成员补录
			logger.L.Info("Accept: request already rejected, ignoring", zap.Uint("requestID", requestID))
			return nil
		}
		// 已经accepted，按幂等处理，成员补录照常执行
		logger.L.Info("Accept: request already accepted", zap.Uint("requestID", requestID))
	}

	if err := s.memberRepo.Add(request.GroupID, request.RequesterID); err != nil {
		if !apperr.IsDuplicate(err) {
			// 吞掉重复键，其余错误也只记日志——申请状态已翻转，
			// 成员补录可由重复Accept或对账补上
			logger.L.Error("Accept: failed to add member",
				zap.Uint("groupID", request.GroupID),
				zap.Uint("requesterID", request.RequesterID),
				zap.Error(err))
		}
	} else {
		s.publishMember(request.GroupID, request.RequesterID)
	}

	// 状态事件和通知只跟着真实的翻转走一次，
	// 幂等重试只补成员，不重复打扰申请人
	if flipped {
		request.Status = model.RequestStatusAccepted
		s.publish(realtime.OpUpdate, request)

		s.notifications.Dispatch(request.RequesterID,
			model.NotificationTypeRequestAccepted,
			"Request Accepted",
			fmt.Sprintf("Your request to join %q has been accepted!", group.Name),
			map[string]any{"group_id": request.GroupID})
	}

	return nil
}

// Reject 拒绝申请，仅限群组创建者。rejected是永久终态。
func (s *RequestService) Reject(actorID, requestID uint) error {
	request, group, err := s.authorize(actorID, requestID)
	if err != nil {
		return err
	}

	flipped, err := s.requestRepo.UpdateStatusFromPending(requestID, model.RequestStatusRejected)
	if err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}
	if !flipped {
		// 已经处于终态，不再发布事件或通知
		logger.L.Info("Reject: request already in terminal state", zap.Uint("requestID", requestID))
		return nil
	}

	request.Status = model.RequestStatusRejected
	s.publish(realtime.OpUpdate, request)

	s.notifications.Dispatch(request.RequesterID,
		model.NotificationTypeRequestRejected,
		"Request Declined",
		fmt.Sprintf("Your request to join %q was declined.", group.Name),
		map[string]any{})

	return nil
}

// 审批操作的公共前置：申请存在、群组存在、操作者是群组创建者
func (s *RequestService) authorize(actorID, requestID uint) (*model.GroupRequest, *model.StudyGroup, error) {
	if actorID == 0 {
		return nil, nil, apperr.ErrUnauthenticated
	}

	request, err := s.requestRepo.FindByID(requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find request: %w", err)
	}
	if request == nil {
		return nil, nil, apperr.ErrNotFound
	}

	group, err := s.groupRepo.FindByID(request.GroupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, nil, apperr.ErrNotFound
	}
	if group.CreatedBy != actorID {
		return nil, nil, apperr.ErrForbidden
	}

	return request, group, nil
}

func (s *RequestService) publish(op realtime.Op, request *model.GroupRequest) {
	event, err := realtime.NewEvent(realtime.TableGroupRequests, op, request)
	if err != nil {
		logger.L.Error("Failed to build request event", zap.Error(err))
		return
	}
	if err := s.feed.Publish(event); err != nil {
		logger.L.Warn("Failed to publish request event", zap.Error(err))
	}
}

func (s *RequestService) publishMember(groupID, userID uint) {
	event, err := realtime.NewEvent(realtime.TableGroupMembers, realtime.OpInsert,
		&model.GroupMember{GroupID: groupID, UserID: userID})
	if err != nil {
		logger.L.Error("Failed to build member event", zap.Error(err))
		return
	}
	if err := s.feed.Publish(event); err != nil {
		logger.L.Warn("Failed to publish member event", zap.Error(err))
	}
}
