package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type evaluationStore interface {
	FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error)
	FindByID(ctx context.Context, id string) (*models.Evaluation, error)
	CreateWithStatusFlip(ctx context.Context, evaluation *models.Evaluation) error
	Update(ctx context.Context, evaluation *models.Evaluation) error
}

type submissionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error)
}

// EvaluateRequest scores one submission.
type EvaluateRequest struct {
	SubmissionID string  `json:"submission_id" validate:"required"`
	Score        int     `json:"score"`
	Comment      *string `json:"comment"`
}

// EvaluateBatchRequest applies one shared score/comment to many
// submissions.
type EvaluateBatchRequest struct {
	SubmissionIDs []string `json:"submission_ids" validate:"required,min=1"`
	Score         int      `json:"score"`
	Comment       *string  `json:"comment"`
}

// UpdateEvaluationRequest edits an existing evaluation.
type UpdateEvaluationRequest struct {
	Score   int     `json:"score"`
	Comment *string `json:"comment"`
}

// BatchItemResult reports one submission's outcome in a batch.
type BatchItemResult struct {
	SubmissionID string             `json:"submission_id"`
	Evaluation   *models.Evaluation `json:"evaluation,omitempty"`
	Error        *appErrors.Error   `json:"error,omitempty"`
}

// BatchResult summarises a best-effort batch evaluation.
type BatchResult struct {
	SuccessCount int               `json:"success_count"`
	Items        []BatchItemResult `json:"items"`
}

// EvaluationService attaches scores to submissions. The evaluation
// insert and the submission status flip commit as one unit; batch
// evaluation runs one unit per item so a single conflict never aborts
// the rest.
type EvaluationService struct {
	evaluations evaluationStore
	submissions submissionReader
	registry    courseScope
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEvaluationService constructs EvaluationService.
func NewEvaluationService(evaluations evaluationStore, submissions submissionReader, registry courseScope, validate *validator.Validate, logger *zap.Logger) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{evaluations: evaluations, submissions: submissions, registry: registry, validator: validate, logger: logger}
}

// Evaluate scores one submission and flips it to evaluated.
func (s *EvaluationService) Evaluate(ctx context.Context, teacherID string, req EvaluateRequest) (*models.Evaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	return s.evaluateOne(ctx, teacherID, req.SubmissionID, req.Score, req.Comment)
}

// EvaluateBatch applies the shared score/comment to every submission
// id, best-effort per item. The caller gets a per-item result so it
// can report partial success.
func (s *EvaluationService) EvaluateBatch(ctx context.Context, teacherID string, req EvaluateBatchRequest) (*BatchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}

	result := &BatchResult{Items: make([]BatchItemResult, 0, len(req.SubmissionIDs))}
	for _, submissionID := range req.SubmissionIDs {
		evaluation, err := s.evaluateOne(ctx, teacherID, submissionID, req.Score, req.Comment)
		if err != nil {
			result.Items = append(result.Items, BatchItemResult{SubmissionID: submissionID, Error: appErrors.FromError(err)})
			continue
		}
		result.Items = append(result.Items, BatchItemResult{SubmissionID: submissionID, Evaluation: evaluation})
		result.SuccessCount++
	}

	s.logger.Info("batch evaluation finished",
		zap.String("teacher_id", teacherID),
		zap.Int("requested", len(req.SubmissionIDs)),
		zap.Int("succeeded", result.SuccessCount))
	return result, nil
}

// Update edits the author's own evaluation. The submission status is
// left untouched; re-opening is intentionally not exposed.
func (s *EvaluationService) Update(ctx context.Context, teacherID, evaluationID string, req UpdateEvaluationRequest) (*models.Evaluation, error) {
	if req.Score < 0 || req.Score > 100 {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "")
	}
	evaluation, err := s.evaluations.FindByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation")
	}
	if evaluation.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "evaluation belongs to another teacher")
	}
	evaluation.Score = req.Score
	evaluation.Comment = req.Comment
	if err := s.evaluations.Update(ctx, evaluation); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update evaluation")
	}
	return evaluation, nil
}

func (s *EvaluationService) evaluateOne(ctx context.Context, teacherID, submissionID string, score int, comment *string) (*models.Evaluation, error) {
	if score < 0 || score > 100 {
		return nil, appErrors.Clone(appErrors.ErrScoreOutOfRange, "")
	}

	detail, err := s.submissions.FindDetailByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}

	visible, err := s.registry.CoursesVisibleTo(ctx, teacherID, models.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if !containsID(visible, detail.CourseID) {
		return nil, appErrors.Clone(appErrors.ErrNotAssigned, "")
	}

	if detail.Status != models.SubmissionStatusPending {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEvaluated, "")
	}

	evaluation := &models.Evaluation{
		SubmissionID: submissionID,
		TeacherID:    teacherID,
		Score:        score,
		Comment:      comment,
	}
	if err := s.evaluations.CreateWithStatusFlip(ctx, evaluation); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the insert race; the unique index is the arbiter.
			return nil, appErrors.Clone(appErrors.ErrAlreadyEvaluated, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create evaluation")
	}
	return evaluation, nil
}
