package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// SubmissionRepository persists work submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new pending submission.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	submission.SubmittedAt = now
	submission.UpdatedAt = now
	const query = `INSERT INTO submissions (id, student_id, task_id, content, artifact_refs, status, submitted_at, updated_at)
		VALUES (:id, :student_id, :task_id, :content, :artifact_refs, :status, :submitted_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, submission); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns one submission.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, student_id, task_id, content, artifact_refs, status, submitted_at, updated_at FROM submissions WHERE id = $1`
	var submission models.Submission
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindDetailByID returns one submission with task and course info.
func (r *SubmissionRepository) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	const query = `
SELECT s.id, s.student_id, s.task_id, s.content, s.artifact_refs, s.status, s.submitted_at, s.updated_at,
       u.full_name AS student_name, t.name AS task_name, t.course_id AS course_id, c.name AS course_name
FROM submissions s
JOIN tasks t ON t.id = s.task_id
JOIN courses c ON c.id = t.course_id
JOIN users u ON u.id = s.student_id
WHERE s.id = $1`
	var detail models.SubmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateContent amends content and artifact refs while the row is
// still pending. Returns sql.ErrNoRows when the submission is gone or
// no longer pending so the service can tell the two conflicts apart.
func (r *SubmissionRepository) UpdateContent(ctx context.Context, submission *models.Submission) error {
	submission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE submissions SET content = :content, artifact_refs = :artifact_refs, updated_at = :updated_at
		WHERE id = :id AND status = 'PENDING'`
	result, err := r.db.NamedExecContext(ctx, query, submission)
	if err != nil {
		return fmt.Errorf("amend submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check amended submission rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns submissions matching the filter plus the total count.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		clauses = append(clauses, "s.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if len(filter.CourseIDs) > 0 {
		clauses = append(clauses, "t.course_id IN (?)")
		args = append(args, filter.CourseIDs)
	}
	if filter.CourseID != "" {
		clauses = append(clauses, "t.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.TaskID != "" {
		clauses = append(clauses, "s.task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "s.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		clauses = append(clauses, "(u.full_name ILIKE ? OR t.name ILIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	where := strings.Join(clauses, " AND ")

	countRaw := fmt.Sprintf(`SELECT COUNT(*)
FROM submissions s
JOIN tasks t ON t.id = s.task_id
JOIN users u ON u.id = s.student_id
WHERE %s`, where)
	countQuery, countArgs, err := sqlx.In(countRaw, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("build submission count query: %w", err)
	}
	countQuery = r.db.Rebind(countQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	listRaw := fmt.Sprintf(`SELECT s.id, s.student_id, s.task_id, s.content, s.artifact_refs, s.status, s.submitted_at, s.updated_at,
       u.full_name AS student_name, t.name AS task_name, t.course_id AS course_id, c.name AS course_name
FROM submissions s
JOIN tasks t ON t.id = s.task_id
JOIN courses c ON c.id = t.course_id
JOIN users u ON u.id = s.student_id
WHERE %s
ORDER BY s.submitted_at DESC
LIMIT ? OFFSET ?`, where)
	listArgs := append(append([]interface{}{}, args...), pageSize, (page-1)*pageSize)
	listQuery, inArgs, err := sqlx.In(listRaw, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("build submission list query: %w", err)
	}
	listQuery = r.db.Rebind(listQuery)
	var submissions []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &submissions, listQuery, inArgs...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return submissions, total, nil
}
