package service

import (
	"fmt"
	"time"

	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/repository"
)

// SessionService 管理预约的学习时段。只有主持人可以修改自己的时段。
type SessionService struct {
	sessionRepo *repository.StudySessionRepository
}

func NewSessionService(sessionRepo *repository.StudySessionRepository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo}
}

type CreateSessionRequest struct {
	GroupID         uint      `json:"group_id"`
	Title           string    `json:"title" binding:"required,min=1,max=100"`
	Description     string    `json:"description"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        string    `json:"location"`
}

// CreateSession 创建时段，主持人是当前用户
func (s *SessionService) CreateSession(hostID uint, req CreateSessionRequest) (*model.StudySession, error) {
	if hostID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	duration := req.DurationMinutes
	if duration <= 0 {
		duration = 60
	}

	session := &model.StudySession{
		GroupID:         req.GroupID,
		HostID:          hostID,
		Title:           req.Title,
		Description:     req.Description,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: duration,
		Location:        req.Location,
	}

	if err := s.sessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// UpdateSession 修改时段，WHERE host_id守住主持人专属
func (s *SessionService) UpdateSession(hostID, sessionID uint, updates map[string]any) error {
	if hostID == 0 {
		return apperr.ErrUnauthenticated
	}

	updated, err := s.sessionRepo.UpdateIfHost(sessionID, hostID, updates)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !updated {
		return apperr.ErrForbidden
	}
	return nil
}

// ListSessions 按开始时间升序列出全部时段
func (s *SessionService) ListSessions() ([]model.StudySession, error) {
	return s.sessionRepo.FindAll()
}
