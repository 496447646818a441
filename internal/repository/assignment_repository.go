package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// AssignmentRepository persists teacher-course assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CourseIDsByTeacher returns the teacher's assigned course ids.
func (r *AssignmentRepository) CourseIDsByTeacher(ctx context.Context, teacherID string) ([]string, error) {
	const query = `SELECT course_id FROM assignments WHERE teacher_id = $1 ORDER BY course_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assigned courses: %w", err)
	}
	return ids, nil
}

// ListByTeacher returns assignments with course and teacher names.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error) {
	const query = `
SELECT a.id, a.teacher_id, a.course_id, a.created_at,
       c.name AS course_name, u.full_name AS teacher_name
FROM assignments a
JOIN courses c ON c.id = a.course_id
JOIN users u ON u.id = a.teacher_id
WHERE a.teacher_id = $1
ORDER BY c.name ASC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceForTeacher swaps the teacher's assignment set atomically:
// delete all rows, insert the selected set.
func (r *AssignmentRepository) ReplaceForTeacher(ctx context.Context, teacherID string, courseIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	now := time.Now().UTC()
	for _, courseID := range courseIDs {
		assignment := models.Assignment{ID: uuid.NewString(), TeacherID: teacherID, CourseID: courseID, CreatedAt: now}
		const query = `INSERT INTO assignments (id, teacher_id, course_id, created_at) VALUES (:id, :teacher_id, :course_id, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment replace: %w", err)
	}
	return nil
}
