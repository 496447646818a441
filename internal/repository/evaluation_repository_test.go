package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/traincamp-api/internal/models"
)

func TestEvaluationRepositoryCreateWithStatusFlip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE submissions SET status = 'EVALUATED'").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	evaluation := &models.Evaluation{SubmissionID: "sub-1", TeacherID: "tch-1", Score: 80}
	err := repo.CreateWithStatusFlip(context.Background(), evaluation)
	require.NoError(t, err)
	require.NotEmpty(t, evaluation.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryFlipRollsBackWhenNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE submissions SET status = 'EVALUATED'").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateWithStatusFlip(context.Background(), &models.Evaluation{SubmissionID: "sub-1", TeacherID: "tch-1"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryInsertLosesUniqueRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO evaluations").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateWithStatusFlip(context.Background(), &models.Evaluation{SubmissionID: "sub-1", TeacherID: "tch-1"})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEvaluationRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEvaluationRepository(db)

	mock.ExpectExec("UPDATE evaluations SET score").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Evaluation{ID: "ev-404", Score: 50})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
