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

// TaskRepository persists course tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByID returns one task.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	const query = `SELECT id, course_id, name, number, scheduled_date, start_time, end_time, created_at, updated_at FROM tasks WHERE id = $1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks within the caller's visible course set, scheduled
// date descending unless the filter asks for ascending.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskDetail, error) {
	if len(filter.CourseIDs) == 0 {
		return nil, nil
	}

	clauses := []string{"t.course_id IN (?)"}
	args := []interface{}{filter.CourseIDs}
	if filter.CourseID != "" {
		clauses = append(clauses, "t.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.DateFrom != nil {
		clauses = append(clauses, "t.scheduled_date >= ?")
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "t.scheduled_date <= ?")
		args = append(args, *filter.DateTo)
	}

	order := "DESC"
	if filter.Ascending {
		order = "ASC"
	}
	raw := fmt.Sprintf(`SELECT t.id, t.course_id, t.name, t.number, t.scheduled_date, t.start_time, t.end_time, t.created_at, t.updated_at,
       c.name AS course_name
FROM tasks t
JOIN courses c ON c.id = t.course_id
WHERE %s
ORDER BY t.scheduled_date %s, t.number ASC`, strings.Join(clauses, " AND "), order)

	query, inArgs, err := sqlx.In(raw, args...)
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}
	query = r.db.Rebind(query)
	var tasks []models.TaskDetail
	if err := r.db.SelectContext(ctx, &tasks, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create inserts a new task. A unique constraint on number backs the
// human-facing task-number uniqueness.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	const query = `INSERT INTO tasks (id, course_id, name, number, scheduled_date, start_time, end_time, created_at, updated_at)
		VALUES (:id, :course_id, :name, :number, :scheduled_date, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update edits a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET course_id = :course_id, name = :name, number = :number, scheduled_date = :scheduled_date,
		start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated task rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a task and its dependent rows.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`DELETE FROM evaluations WHERE submission_id IN (SELECT id FROM submissions WHERE task_id = $1)`,
		`DELETE FROM submissions WHERE task_id = $1`,
		`DELETE FROM check_ins WHERE task_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade task delete: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted task rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit task delete: %w", err)
	}
	return nil
}
