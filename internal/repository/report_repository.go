package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/traincamp-api/internal/models"
)

// ReportRepository produces raw per-course aggregates for the window
// reporter. It owns no state; every call recomputes from the ledgers.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CourseWindowCounts returns one aggregate row per visible course with
// tasks scheduled inside [start, end]. Counts for check-ins,
// submissions and evaluations are restricted to those tasks.
func (r *ReportRepository) CourseWindowCounts(ctx context.Context, courseIDs []string, start, end time.Time) ([]models.CourseWindowCounts, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	// The check-in and submission joins fan out per task, so the score
	// sum comes from a correlated subquery over evaluations alone; a
	// SUM over the joined row set would count each score once per
	// check-in on its task.
	const raw = `
SELECT c.id AS course_id,
       c.name AS course_name,
       COUNT(DISTINCT t.id) AS task_count,
       (SELECT COUNT(DISTINCT e.student_id) FROM enrollments e WHERE e.course_id = c.id) AS student_count,
       COUNT(DISTINCT ci.id) AS check_in_count,
       COUNT(DISTINCT s.id) AS submission_count,
       COUNT(DISTINCT ev.id) AS evaluated_count,
       (SELECT SUM(ev2.score)
        FROM evaluations ev2
        JOIN submissions s2 ON s2.id = ev2.submission_id
        JOIN tasks t2 ON t2.id = s2.task_id
        WHERE t2.course_id = c.id AND t2.scheduled_date BETWEEN ? AND ?) AS score_sum
FROM courses c
LEFT JOIN tasks t ON t.course_id = c.id AND t.scheduled_date BETWEEN ? AND ?
LEFT JOIN check_ins ci ON ci.task_id = t.id
LEFT JOIN submissions s ON s.task_id = t.id
LEFT JOIN evaluations ev ON ev.submission_id = s.id
WHERE c.id IN (?)
GROUP BY c.id, c.name
ORDER BY c.name ASC`
	query, args, err := sqlx.In(raw, start, end, start, end, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("build report query: %w", err)
	}
	query = r.db.Rebind(query)
	var rows []models.CourseWindowCounts
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("aggregate report window: %w", err)
	}
	return rows, nil
}
