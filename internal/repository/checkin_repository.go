package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// CheckInRepository persists the attendance ledger. The unique index
// on (student_id, task_id) is what serializes concurrent duplicate
// check-ins; there is no application-level lock.
type CheckInRepository struct {
	db *sqlx.DB
}

// NewCheckInRepository constructs the repository.
func NewCheckInRepository(db *sqlx.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create inserts a check-in. Returns ErrDuplicate when a row already
// exists for the (student, task) pair.
func (r *CheckInRepository) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if checkIn.ID == "" {
		checkIn.ID = uuid.NewString()
	}
	if checkIn.CheckedAt.IsZero() {
		checkIn.CheckedAt = time.Now().UTC()
	}
	const query = `INSERT INTO check_ins (id, student_id, task_id, checked_at, status)
		VALUES (:id, :student_id, :task_id, :checked_at, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, checkIn); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}

// List returns check-ins matching the filter, newest first.
func (r *CheckInRepository) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	if filter.TaskID != "" {
		clauses = append(clauses, "ci.task_id = ?")
		args = append(args, filter.TaskID)
	}
	if filter.StudentID != "" {
		clauses = append(clauses, "ci.student_id = ?")
		args = append(args, filter.StudentID)
	}
	if len(filter.CourseIDs) > 0 {
		clauses = append(clauses, "t.course_id IN (?)")
		args = append(args, filter.CourseIDs)
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "t.scheduled_date >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "t.scheduled_date <= ?")
		args = append(args, *filter.DateTo)
	}

	raw := fmt.Sprintf(`SELECT ci.id, ci.student_id, ci.task_id, ci.checked_at, ci.status,
       u.full_name AS student_name, t.name AS task_name, t.scheduled_date AS task_date
FROM check_ins ci
JOIN tasks t ON t.id = ci.task_id
JOIN users u ON u.id = ci.student_id
WHERE %s
ORDER BY ci.checked_at DESC`, strings.Join(clauses, " AND "))

	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build check-in query: %w", err)
	}
	query = r.db.Rebind(query)
	var checkIns []models.CheckInDetail
	if err := r.db.SelectContext(ctx, &checkIns, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return checkIns, nil
}
