package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type checkInStore interface {
	Create(ctx context.Context, checkIn *models.CheckIn) error
	List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, error)
}

type taskReader interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
}

// CheckInService is the attendance ledger. Exactly one check-in exists
// per (student, task); duplicates are rejected, never overwritten.
type CheckInService struct {
	checkIns checkInStore
	tasks    taskReader
	registry courseScope
	logger   *zap.Logger
	now      func() time.Time
}

// NewCheckInService constructs CheckInService.
func NewCheckInService(checkIns checkInStore, tasks taskReader, registry courseScope, logger *zap.Logger) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{
		checkIns: checkIns,
		tasks:    tasks,
		registry: registry,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordCheckIn writes one attendance row for (student, task). The
// stored status compares the current time of day against the task's
// start time: no start time means unconditionally on time. ABSENT is
// never written here; reporting derives it for missing rows.
func (s *CheckInService) RecordCheckIn(ctx context.Context, studentID, taskID string) (*models.CheckIn, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	visible, err := s.registry.CoursesVisibleTo(ctx, studentID, models.RoleStudent)
	if err != nil {
		return nil, err
	}
	if !containsID(visible, task.CourseID) {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	now := s.now()
	if now.Format("2006-01-02") < task.ScheduledDate.Format("2006-01-02") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task is not open for check-in yet")
	}

	status := models.CheckInStatusOnTime
	if task.StartTime != nil && now.Format("15:04") > *task.StartTime {
		status = models.CheckInStatusLate
	}

	checkIn := &models.CheckIn{StudentID: studentID, TaskID: taskID, CheckedAt: now, Status: status}
	if err := s.checkIns.Create(ctx, checkIn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateCheckIn, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	s.logger.Info("check-in recorded",
		zap.String("student_id", studentID),
		zap.String("task_id", taskID),
		zap.String("status", string(status)))
	return checkIn, nil
}

// List returns check-ins visible to the caller: students see their
// own, teachers and admins see rows within their visible courses.
func (s *CheckInService) List(ctx context.Context, principalID string, role models.UserRole, filter models.CheckInFilter) ([]models.CheckInDetail, error) {
	switch role {
	case models.RoleStudent:
		filter.StudentID = principalID
		filter.CourseIDs = nil
	default:
		visible, err := s.registry.CoursesVisibleTo(ctx, principalID, role)
		if err != nil {
			return nil, err
		}
		if len(visible) == 0 {
			return nil, nil
		}
		filter.CourseIDs = visible
	}

	checkIns, err := s.checkIns.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list check-ins")
	}
	return checkIns, nil
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
