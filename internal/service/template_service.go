package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type templateStore interface {
	ListVisibleTo(ctx context.Context, teacherID string) ([]models.CommentTemplate, error)
	Create(ctx context.Context, template *models.CommentTemplate) error
	Delete(ctx context.Context, teacherID, templateID string) error
}

// SaveTemplateRequest carries a new comment template.
type SaveTemplateRequest struct {
	Category string `json:"category" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// TemplateService manages reusable evaluation comment templates.
// System templates (no owner) are seeded out of band and read-only;
// teachers own everything they create.
type TemplateService struct {
	templates templateStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs TemplateService.
func NewTemplateService(templates templateStore, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{templates: templates, validator: validate, logger: logger}
}

// ListVisibleTo returns system templates plus the teacher's own.
func (s *TemplateService) ListVisibleTo(ctx context.Context, teacherID string) ([]models.CommentTemplate, error) {
	templates, err := s.templates.ListVisibleTo(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comment templates")
	}
	return templates, nil
}

// Create inserts a template owned by the teacher.
func (s *TemplateService) Create(ctx context.Context, teacherID string, req SaveTemplateRequest) (*models.CommentTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	template := &models.CommentTemplate{
		OwnerID:  &teacherID,
		Category: req.Category,
		Content:  req.Content,
	}
	if err := s.templates.Create(ctx, template); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment template")
	}
	return template, nil
}

// Delete removes one of the teacher's own templates. Unknown ids and
// foreign or system templates both come back as not found so the
// endpoint leaks nothing about other owners.
func (s *TemplateService) Delete(ctx context.Context, teacherID, templateID string) error {
	if err := s.templates.Delete(ctx, teacherID, templateID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment template")
	}
	return nil
}
