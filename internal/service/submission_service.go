package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

// MaxArtifactRefs caps the artifact list on one submission.
const MaxArtifactRefs = 5

type submissionStore interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error)
	UpdateContent(ctx context.Context, submission *models.Submission) error
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error)
}

// SubmitRequest carries a new submission payload. At least one of
// content and artifact_refs must be present.
type SubmitRequest struct {
	TaskID       string   `json:"task_id" validate:"required"`
	Content      string   `json:"content"`
	ArtifactRefs []string `json:"artifact_refs"`
}

// AmendRequest edits a pending submission.
type AmendRequest struct {
	Content      string   `json:"content"`
	ArtifactRefs []string `json:"artifact_refs"`
}

// SubmissionQuery narrows submission listings.
type SubmissionQuery struct {
	Status   string
	CourseID string
	TaskID   string
	Search   string
	Page     int
	PageSize int
}

// SubmissionService is the submission store: student-owned work rows
// with a pending/evaluated lifecycle independent of attendance.
type SubmissionService struct {
	submissions submissionStore
	tasks       taskReader
	registry    courseScope
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(submissions submissionStore, tasks taskReader, registry courseScope, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{submissions: submissions, tasks: tasks, registry: registry, validator: validate, logger: logger}
}

// Submit creates a pending submission for an enrolled student. The
// store does not block multiple pending submissions per task;
// corrections happen through new submissions, not evaluation edits.
func (s *SubmissionService) Submit(ctx context.Context, studentID string, req SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	content, refs, err := normalizePayload(req.Content, req.ArtifactRefs)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.FindByID(ctx, req.TaskID)
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

	submission := &models.Submission{
		StudentID:    studentID,
		TaskID:       req.TaskID,
		Content:      content,
		ArtifactRefs: refs,
		Status:       models.SubmissionStatusPending,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	s.logger.Info("submission created",
		zap.String("student_id", studentID),
		zap.String("task_id", req.TaskID),
		zap.Int("artifacts", len(refs)))
	return submission, nil
}

// Amend edits a submission's content while it is still pending. Only
// the owner may amend; an evaluated submission is locked.
func (s *SubmissionService) Amend(ctx context.Context, studentID, submissionID string, req AmendRequest) (*models.Submission, error) {
	content, refs, err := normalizePayload(req.Content, req.ArtifactRefs)
	if err != nil {
		return nil, err
	}

	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if submission.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "submission belongs to another student")
	}
	if submission.Status != models.SubmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrSubmissionLocked, "")
	}

	submission.Content = content
	submission.ArtifactRefs = refs
	if err := s.submissions.UpdateContent(ctx, submission); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with an evaluation between load and update.
			return nil, appErrors.Clone(appErrors.ErrSubmissionLocked, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to amend submission")
	}
	return submission, nil
}

// VisibleTo lists submissions in the caller's scope: students see only
// their own, teachers only rows of assigned courses, admins all.
func (s *SubmissionService) VisibleTo(ctx context.Context, principalID string, role models.UserRole, query SubmissionQuery) ([]models.SubmissionDetail, int, error) {
	filter := models.SubmissionFilter{
		CourseID: query.CourseID,
		TaskID:   query.TaskID,
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if query.Status != "" {
		status := models.SubmissionStatus(strings.ToUpper(query.Status))
		if !status.Valid() {
			return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown submission status")
		}
		filter.Status = status
	}

	switch role {
	case models.RoleStudent:
		filter.StudentID = principalID
	default:
		visible, err := s.registry.CoursesVisibleTo(ctx, principalID, role)
		if err != nil {
			return nil, 0, err
		}
		if len(visible) == 0 {
			return nil, 0, nil
		}
		filter.CourseIDs = visible
	}

	submissions, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return submissions, total, nil
}

func normalizePayload(content string, refs []string) (*string, []string, error) {
	trimmed := strings.TrimSpace(content)
	cleaned := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref != "" {
			cleaned = append(cleaned, ref)
		}
	}

	if trimmed == "" && len(cleaned) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrEmptySubmission, "")
	}
	if len(cleaned) > MaxArtifactRefs {
		return nil, nil, appErrors.Clone(appErrors.ErrTooManyArtifacts, fmt.Sprintf("at most %d artifact references allowed", MaxArtifactRefs))
	}
	for _, ref := range cleaned {
		parsed, err := url.Parse(ref)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidArtifactURL, "artifact reference must be an absolute URL: "+ref)
		}
	}

	var contentPtr *string
	if trimmed != "" {
		contentPtr = &trimmed
	}
	return contentPtr, cleaned, nil
}
