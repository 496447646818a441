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

// EvaluationRepository persists evaluations. The unique index on
// submission_id backs the 1:1 invariant; concurrent double-evaluate
// attempts lose at insert time.
type EvaluationRepository struct {
	db *sqlx.DB
}

// NewEvaluationRepository constructs the repository.
func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

// FindBySubmission returns the evaluation attached to a submission.
func (r *EvaluationRepository) FindBySubmission(ctx context.Context, submissionID string) (*models.Evaluation, error) {
	const query = `SELECT id, submission_id, teacher_id, score, comment, created_at, updated_at FROM evaluations WHERE submission_id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, submissionID); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// FindByID returns one evaluation.
func (r *EvaluationRepository) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	const query = `SELECT id, submission_id, teacher_id, score, comment, created_at, updated_at FROM evaluations WHERE id = $1`
	var evaluation models.Evaluation
	if err := r.db.GetContext(ctx, &evaluation, query, id); err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// CreateWithStatusFlip inserts the evaluation and moves the submission
// from PENDING to EVALUATED as one transaction. Either both writes
// land or neither does. Returns ErrDuplicate when the submission
// already carries an evaluation or is no longer pending.
func (r *EvaluationRepository) CreateWithStatusFlip(ctx context.Context, evaluation *models.Evaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	evaluation.CreatedAt = now
	evaluation.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evaluation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO evaluations (id, submission_id, teacher_id, score, comment, created_at, updated_at)
		VALUES (:id, :submission_id, :teacher_id, :score, :comment, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, evaluation); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create evaluation: %w", err)
	}

	const flip = `UPDATE submissions SET status = 'EVALUATED', updated_at = $1 WHERE id = $2 AND status = 'PENDING'`
	result, err := tx.ExecContext(ctx, flip, now, evaluation.SubmissionID)
	if err != nil {
		return fmt.Errorf("flip submission status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check flipped submission rows: %w", err)
	}
	if affected == 0 {
		// The insert above is rolled back with the tx; status never
		// flips without an evaluation row and vice versa.
		return ErrDuplicate
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation: %w", err)
	}
	return nil
}

// Update edits score and comment of an existing evaluation without
// touching the submission status.
func (r *EvaluationRepository) Update(ctx context.Context, evaluation *models.Evaluation) error {
	evaluation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluations SET score = :score, comment = :comment, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, evaluation)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated evaluation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
