package service

import (
	"fmt"
	"strings"
	"time"

	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/repository"
)

// ProgressService 记录每周学习进度。
// 一行对应(用户, 科目, 周)，重复记录按累加合并而不是覆盖。
type ProgressService struct {
	progressRepo *repository.StudyProgressRepository
}

func NewProgressService(progressRepo *repository.StudyProgressRepository) *ProgressService {
	return &ProgressService{progressRepo: progressRepo}
}

type RecordProgressRequest struct {
	Subject           string    `json:"subject" binding:"required,min=1,max=100"`
	WeekStart         time.Time `json:"week_start"`
	HoursStudied      float64   `json:"hours_studied"`
	SessionsCompleted int       `json:"sessions_completed"`
	GoalsMet          int       `json:"goals_met"`
}

// 各字段的累计总值
type ProgressTotals struct {
	HoursStudied      float64 `json:"hours_studied"`
	SessionsCompleted int     `json:"sessions_completed"`
	GoalsMet          int     `json:"goals_met"`
}

// RecordProgress 把一次进度累加进当前用户对应周的记录。
// week_start缺省取当前周，任何给定日期都归一到所在周，
// 保证同一周的多次记录落在同一行上。
func (s *ProgressService) RecordProgress(userID uint, req RecordProgressRequest) error {
	if userID == 0 {
		return apperr.ErrUnauthenticated
	}
	if strings.TrimSpace(req.Subject) == "" {
		return fmt.Errorf("%w: subject is required", apperr.ErrValidation)
	}
	if req.HoursStudied < 0 || req.SessionsCompleted < 0 || req.GoalsMet < 0 {
		return fmt.Errorf("%w: progress values cannot be negative", apperr.ErrValidation)
	}

	weekStart := req.WeekStart
	if weekStart.IsZero() {
		weekStart = time.Now()
	}

	return s.progressRepo.Accumulate(&model.StudyProgress{
		UserID:            userID,
		Subject:           strings.TrimSpace(req.Subject),
		WeekStart:         startOfWeek(weekStart),
		HoursStudied:      req.HoursStudied,
		SessionsCompleted: req.SessionsCompleted,
		GoalsMet:          req.GoalsMet,
	})
}

// ListProgress 返回某用户的进度记录，最近的周在前
func (s *ProgressService) ListProgress(userID uint) ([]model.StudyProgress, error) {
	if userID == 0 {
		return nil, apperr.ErrUnauthenticated
	}
	return s.progressRepo.FindByUserID(userID)
}

// TotalStats 汇总某用户全部周的累计值
func (s *ProgressService) TotalStats(userID uint) (ProgressTotals, error) {
	rows, err := s.ListProgress(userID)
	if err != nil {
		return ProgressTotals{}, err
	}
	var totals ProgressTotals
	for _, p := range rows {
		totals.HoursStudied += p.HoursStudied
		totals.SessionsCompleted += p.SessionsCompleted
		totals.GoalsMet += p.GoalsMet
	}
	return totals, nil
}

// 归一到所在周的周一零点(UTC)，作为该周记录的唯一键
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -daysSinceMonday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
