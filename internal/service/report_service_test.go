package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type reportStoreStub struct {
	rows      []models.CourseWindowCounts
	courseIDs []string
}

func (s *reportStoreStub) CourseWindowCounts(ctx context.Context, courseIDs []string, start, end time.Time) ([]models.CourseWindowCounts, error) {
	s.courseIDs = courseIDs
	return s.rows, nil
}

func floatPtr(v float64) *float64 { return &v }

func newReportFixture(rows []models.CourseWindowCounts) (*ReportService, *reportStoreStub) {
	store := &reportStoreStub{rows: rows}
	scope := &scopeStub{visible: map[string][]string{"adm-1": {"course-1", "course-2"}}}
	svc := NewReportService(store, scope, nil, 0, nil)
	return svc, store
}

func TestWindowReportRatesAndAbsent(t *testing.T) {
	// 2 tasks x 3 students = 6 expected check-ins. 5 recorded, 4
	// submissions, 3 evaluated with 240 total points.
	svc, store := newReportFixture([]models.CourseWindowCounts{
		{
			CourseID:        "course-1",
			CourseName:      "Backend Camp",
			TaskCount:       2,
			StudentCount:    3,
			CheckInCount:    5,
			SubmissionCount: 4,
			EvaluatedCount:  3,
			ScoreSum:        floatPtr(240),
		},
	})

	report, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07"})
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1", "course-2"}, store.courseIDs)

	require.Len(t, report.Courses, 1)
	course := report.Courses[0]
	assert.Equal(t, 83, course.CheckInRate)
	assert.Equal(t, 67, course.SubmissionRate)
	assert.Equal(t, 75, course.EvaluationRate)
	assert.Equal(t, 1, course.Absent)
	assert.InDelta(t, 80.0, course.AverageScore, 0.001)

	assert.Equal(t, 83, report.CheckInRate)
	assert.Equal(t, 67, report.SubmissionRate)
	assert.Equal(t, 75, report.EvaluationRate)
	assert.InDelta(t, 80.0, report.AverageScore, 0.001)
}

func TestWindowReportZeroDenominators(t *testing.T) {
	svc, _ := newReportFixture([]models.CourseWindowCounts{
		{CourseID: "course-1", CourseName: "Empty", TaskCount: 0, StudentCount: 0},
	})

	report, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07"})
	require.NoError(t, err)
	course := report.Courses[0]
	assert.Zero(t, course.CheckInRate)
	assert.Zero(t, course.SubmissionRate)
	assert.Zero(t, course.EvaluationRate)
	assert.Zero(t, course.Absent)
	assert.Zero(t, course.AverageScore)
}

func TestWindowReportClampsAboveHundred(t *testing.T) {
	// Loose multiplicity lets submissions outnumber the expected
	// approximation; rates must clamp rather than exceed 100.
	svc, _ := newReportFixture([]models.CourseWindowCounts{
		{
			CourseID:        "course-1",
			CourseName:      "Busy",
			TaskCount:       1,
			StudentCount:    2,
			CheckInCount:    2,
			SubmissionCount: 5,
			EvaluatedCount:  5,
			ScoreSum:        floatPtr(500),
		},
	})

	report, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07"})
	require.NoError(t, err)
	course := report.Courses[0]
	assert.Equal(t, 100, course.CheckInRate)
	assert.Equal(t, 100, course.SubmissionRate)
	assert.Equal(t, 100, course.EvaluationRate)
	assert.Zero(t, course.Absent)
}

func TestWindowReportAggregatesAcrossCourses(t *testing.T) {
	svc, _ := newReportFixture([]models.CourseWindowCounts{
		{CourseID: "course-1", CourseName: "A", TaskCount: 1, StudentCount: 2, CheckInCount: 2, SubmissionCount: 2, EvaluatedCount: 2, ScoreSum: floatPtr(180)},
		{CourseID: "course-2", CourseName: "B", TaskCount: 1, StudentCount: 2, CheckInCount: 0, SubmissionCount: 0, EvaluatedCount: 0},
	})

	report, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TaskCount)
	assert.Equal(t, 4, report.StudentCount)
	assert.Equal(t, 50, report.CheckInRate)
	assert.Equal(t, 50, report.SubmissionRate)
	assert.Equal(t, 100, report.EvaluationRate)
	assert.InDelta(t, 90.0, report.AverageScore, 0.001)
	assert.Equal(t, 2, report.Courses[1].Absent)
}

func TestWindowReportCourseFilter(t *testing.T) {
	svc, store := newReportFixture(nil)

	_, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07", CourseID: "course-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"course-2"}, store.courseIDs)

	_, err = svc.Window(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07", CourseID: "course-9"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestWindowReportValidatesDates(t *testing.T) {
	svc, _ := newReportFixture(nil)

	cases := []ReportQuery{
		{},
		{DateFrom: "2026-03-01"},
		{DateFrom: "bad", DateTo: "2026-03-07"},
		{DateFrom: "2026-03-07", DateTo: "2026-03-01"},
	}
	for _, query := range cases {
		_, err := svc.Window(context.Background(), "adm-1", models.RoleAdmin, query)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestRatePercentRounding(t *testing.T) {
	assert.Equal(t, 33, ratePercent(1, 3))
	assert.Equal(t, 67, ratePercent(2, 3))
	assert.Equal(t, 50, ratePercent(1, 2))
	assert.Equal(t, 0, ratePercent(0, 10))
	assert.Equal(t, 100, ratePercent(10, 10))
	assert.Equal(t, 0, ratePercent(5, 0))
}

func TestExportCSVContainsCourseRows(t *testing.T) {
	svc, _ := newReportFixture([]models.CourseWindowCounts{
		{CourseID: "course-1", CourseName: "Backend Camp", TaskCount: 2, StudentCount: 3, CheckInCount: 5, SubmissionCount: 4, EvaluatedCount: 3, ScoreSum: floatPtr(240)},
	})

	data, err := svc.ExportCSV(context.Background(), "adm-1", models.RoleAdmin, ReportQuery{DateFrom: "2026-03-01", DateTo: "2026-03-07"})
	require.NoError(t, err)
	assert.Contains(t, string(data), "Backend Camp")
	assert.Contains(t, string(data), "80.0")
}
