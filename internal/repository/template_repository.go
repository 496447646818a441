package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// TemplateRepository persists reusable comment templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListVisibleTo returns system-wide templates plus the teacher's own,
// grouped by category.
func (r *TemplateRepository) ListVisibleTo(ctx context.Context, teacherID string) ([]models.CommentTemplate, error) {
	const query = `SELECT id, owner_id, category, content, created_at FROM comment_templates
		WHERE owner_id IS NULL OR owner_id = $1
		ORDER BY category ASC, created_at ASC`
	var templates []models.CommentTemplate
	if err := r.db.SelectContext(ctx, &templates, query, teacherID); err != nil {
		return nil, fmt.Errorf("list comment templates: %w", err)
	}
	return templates, nil
}

// Create inserts a teacher-owned template.
func (r *TemplateRepository) Create(ctx context.Context, template *models.CommentTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	template.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO comment_templates (id, owner_id, category, content, created_at)
		VALUES (:id, :owner_id, :category, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create comment template: %w", err)
	}
	return nil
}

// Delete removes a template verifying ownership. System templates have
// no owner and cannot be deleted through this path.
func (r *TemplateRepository) Delete(ctx context.Context, teacherID, templateID string) error {
	const query = `DELETE FROM comment_templates WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, templateID, teacherID)
	if err != nil {
		return fmt.Errorf("delete comment template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted template rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
