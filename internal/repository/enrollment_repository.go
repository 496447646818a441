package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// EnrollmentRepository persists student-course enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CourseIDsByStudent returns the student's enrolled course ids.
func (r *EnrollmentRepository) CourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	const query = `SELECT course_id FROM enrollments WHERE student_id = $1 ORDER BY course_id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return ids, nil
}

// ListByStudent returns enrollments with course and student names.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	const query = `
SELECT e.id, e.student_id, e.course_id, e.created_at,
       c.name AS course_name, u.full_name AS student_name
FROM enrollments e
JOIN courses c ON c.id = e.course_id
JOIN users u ON u.id = e.student_id
WHERE e.student_id = $1
ORDER BY c.name ASC`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ReplaceForStudent swaps the student's enrollment set atomically:
// delete all rows, insert the selected set. Idempotent "save" semantics.
func (r *EnrollmentRepository) ReplaceForStudent(ctx context.Context, studentID string, courseIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment replace: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear enrollments: %w", err)
	}

	now := time.Now().UTC()
	for _, courseID := range courseIDs {
		enrollment := models.Enrollment{ID: uuid.NewString(), StudentID: studentID, CourseID: courseID, CreatedAt: now}
		const query = `INSERT INTO enrollments (id, student_id, course_id, created_at) VALUES (:id, :student_id, :course_id, :created_at)`
		if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment replace: %w", err)
	}
	return nil
}

// CountStudents returns the number of distinct students enrolled in
// any of the given courses.
func (r *EnrollmentRepository) CountStudents(ctx context.Context, courseIDs []string) (int, error) {
	if len(courseIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`SELECT COUNT(DISTINCT student_id) FROM enrollments WHERE course_id IN (?)`, courseIDs)
	if err != nil {
		return 0, fmt.Errorf("build enrollment count query: %w", err)
	}
	query = r.db.Rebind(query)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count enrolled students: %w", err)
	}
	return count, nil
}
