package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type taskStore interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

// SaveTaskRequest carries task create/update fields. Times of day use
// the "HH:MM" form.
type SaveTaskRequest struct {
	CourseID      string  `json:"course_id" validate:"required"`
	Name          string  `json:"name" validate:"required"`
	Number        string  `json:"number" validate:"required"`
	ScheduledDate string  `json:"scheduled_date" validate:"required"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
}

// TaskQuery narrows task listings.
type TaskQuery struct {
	CourseID  string
	DateFrom  string
	DateTo    string
	Ascending bool
}

// TaskService is the course-scoped task catalog.
type TaskService struct {
	tasks     taskStore
	courses   courseReader
	registry  courseScope
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService constructs TaskService.
func NewTaskService(tasks taskStore, courses courseReader, registry courseScope, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, courses: courses, registry: registry, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// TasksFor returns tasks in the caller's visible courses, scheduled
// date descending unless ascending is requested.
func (s *TaskService) TasksFor(ctx context.Context, principalID string, role models.UserRole, query TaskQuery) ([]models.TaskDetail, error) {
	visible, err := s.registry.CoursesVisibleTo(ctx, principalID, role)
	if err != nil {
		return nil, err
	}
	if len(visible) == 0 {
		return nil, nil
	}

	filter := models.TaskFilter{CourseIDs: visible, CourseID: query.CourseID, Ascending: query.Ascending}
	if query.DateFrom != "" {
		from, err := parseDate(query.DateFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_from")
		}
		filter.DateFrom = &from
	}
	if query.DateTo != "" {
		to, err := parseDate(query.DateTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_to")
		}
		filter.DateTo = &to
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// TodayTasks returns the caller's tasks scheduled for today, ascending.
func (s *TaskService) TodayTasks(ctx context.Context, principalID string, role models.UserRole) ([]models.TaskDetail, error) {
	today := s.now().Format("2006-01-02")
	return s.TasksFor(ctx, principalID, role, TaskQuery{DateFrom: today, DateTo: today, Ascending: true})
}

// Create inserts a new task after validating the time window.
func (s *TaskService) Create(ctx context.Context, req SaveTaskRequest) (*models.Task, error) {
	task, err := s.buildTask(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "task number already in use")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update edits an existing task.
func (s *TaskService) Update(ctx context.Context, id string, req SaveTaskRequest) (*models.Task, error) {
	existing, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	task, err := s.buildTask(ctx, req)
	if err != nil {
		return nil, err
	}
	task.ID = existing.ID
	task.CreatedAt = existing.CreatedAt
	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "task number already in use")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task with its check-ins, submissions and
// evaluations.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}

func (s *TaskService) buildTask(ctx context.Context, req SaveTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid scheduled_date")
	}
	start, err := parseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_time")
	}
	end, err := parseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_time")
	}
	if start != nil && end != nil && *end < *start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time precedes start_time")
	}
	return &models.Task{
		CourseID:      req.CourseID,
		Name:          req.Name,
		Number:        req.Number,
		ScheduledDate: date,
		StartTime:     start,
		EndTime:       end,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func parseTimeOfDay(raw *string) (*string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if _, err := time.Parse("15:04", *raw); err != nil {
		return nil, err
	}
	return raw, nil
}
