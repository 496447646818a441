package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryCourseWindowCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"course_id", "course_name", "task_count", "student_count",
		"check_in_count", "submission_count", "evaluated_count", "score_sum",
	}).AddRow("course-1", "Backend Camp", 2, 3, 5, 4, 3, 240.0)

	mock.ExpectQuery("SELECT c.id AS course_id").
		WithArgs(start, end, start, end, "course-1").
		WillReturnRows(rows)

	counts, err := repo.CourseWindowCounts(context.Background(), []string{"course-1"}, start, end)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, "Backend Camp", counts[0].CourseName)
	require.Equal(t, 5, counts[0].CheckInCount)
	require.NotNil(t, counts[0].ScoreSum)
	require.InDelta(t, 240.0, *counts[0].ScoreSum, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryScoreSumIsolatedFromCheckInFanOut(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	// One task with three check-ins and a single evaluation scored 90.
	// The statement must compute score_sum in its own subquery over
	// evaluations, before the fan-out joins, so the sum stays 90
	// instead of being tripled by the check-in rows.
	rows := sqlmock.NewRows([]string{
		"course_id", "course_name", "task_count", "student_count",
		"check_in_count", "submission_count", "evaluated_count", "score_sum",
	}).AddRow("course-1", "Backend Camp", 1, 3, 3, 1, 1, 90.0)

	mock.ExpectQuery(`(?s)SELECT SUM\(ev2\.score\).+AS score_sum.+LEFT JOIN check_ins`).
		WithArgs(start, end, start, end, "course-1").
		WillReturnRows(rows)

	counts, err := repo.CourseWindowCounts(context.Background(), []string{"course-1"}, start, end)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, 3, counts[0].CheckInCount)
	require.Equal(t, 1, counts[0].EvaluatedCount)
	require.NotNil(t, counts[0].ScoreSum)
	require.InDelta(t, 90.0, *counts[0].ScoreSum, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryEmptyCourseSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	counts, err := repo.CourseWindowCounts(context.Background(), nil, time.Now(), time.Now())
	require.NoError(t, err)
	require.Nil(t, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
