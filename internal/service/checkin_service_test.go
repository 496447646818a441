package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type checkInStoreStub struct {
	created   []*models.CheckIn
	createErr error
	listed    []models.CheckInDetail
	filter    models.CheckInFilter
}

func (s *checkInStoreStub) Create(ctx context.Context, checkIn *models.CheckIn) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, checkIn)
	return nil
}

func (s *checkInStoreStub) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, error) {
	s.filter = filter
	return s.listed, nil
}

type taskReaderStub struct {
	tasks map[string]*models.Task
}

func (s *taskReaderStub) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if task, ok := s.tasks[id]; ok {
		cp := *task
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type scopeStub struct {
	visible map[string][]string
	err     error
}

func (s *scopeStub) CoursesVisibleTo(ctx context.Context, principalID string, role models.UserRole) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.visible[principalID], nil
}

func fixedClock(raw string) func() time.Time {
	parsed, err := time.Parse("2006-01-02 15:04", raw)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return parsed }
}

func newCheckInFixture(startTime *string) (*CheckInService, *checkInStoreStub) {
	store := &checkInStoreStub{}
	tasks := &taskReaderStub{tasks: map[string]*models.Task{
		"task-1": {
			ID:            "task-1",
			CourseID:      "course-1",
			ScheduledDate: mustDate("2026-03-02"),
			StartTime:     startTime,
		},
	}}
	scope := &scopeStub{visible: map[string][]string{"stu-1": {"course-1"}}}
	svc := NewCheckInService(store, tasks, scope, nil)
	return svc, store
}

func mustDate(raw string) time.Time {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		panic(err)
	}
	return parsed
}

func strPtr(v string) *string { return &v }

func TestRecordCheckInOnTime(t *testing.T) {
	svc, store := newCheckInFixture(strPtr("09:00"))
	svc.now = fixedClock("2026-03-02 08:55")

	checkIn, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusOnTime, checkIn.Status)
	require.Len(t, store.created, 1)
}

func TestRecordCheckInLate(t *testing.T) {
	svc, _ := newCheckInFixture(strPtr("09:00"))
	svc.now = fixedClock("2026-03-02 09:01")

	checkIn, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusLate, checkIn.Status)
}

func TestRecordCheckInNoStartTimeAlwaysOnTime(t *testing.T) {
	svc, _ := newCheckInFixture(nil)
	svc.now = fixedClock("2026-03-02 23:59")

	checkIn, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.CheckInStatusOnTime, checkIn.Status)
}

func TestRecordCheckInBeforeScheduledDate(t *testing.T) {
	svc, store := newCheckInFixture(strPtr("09:00"))
	svc.now = fixedClock("2026-03-01 10:00")

	_, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.created)
}

func TestRecordCheckInDuplicate(t *testing.T) {
	svc, store := newCheckInFixture(nil)
	svc.now = fixedClock("2026-03-02 10:00")
	store.createErr = repository.ErrDuplicate

	_, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE_CHECK_IN", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestRecordCheckInNotEnrolled(t *testing.T) {
	store := &checkInStoreStub{}
	tasks := &taskReaderStub{tasks: map[string]*models.Task{
		"task-1": {ID: "task-1", CourseID: "course-9", ScheduledDate: mustDate("2026-03-02")},
	}}
	scope := &scopeStub{visible: map[string][]string{"stu-1": {"course-1"}}}
	svc := NewCheckInService(store, tasks, scope, nil)
	svc.now = fixedClock("2026-03-02 10:00")

	_, err := svc.RecordCheckIn(context.Background(), "stu-1", "task-1")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_ENROLLED", appErr.Code)
}

func TestRecordCheckInUnknownTask(t *testing.T) {
	svc, _ := newCheckInFixture(nil)

	_, err := svc.RecordCheckIn(context.Background(), "stu-1", "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCheckInListScopesStudentToOwnRows(t *testing.T) {
	svc, store := newCheckInFixture(nil)

	_, err := svc.List(context.Background(), "stu-1", models.RoleStudent, models.CheckInFilter{CourseIDs: []string{"course-2"}})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", store.filter.StudentID)
	assert.Empty(t, store.filter.CourseIDs)
}

func TestCheckInListTeacherScopedToVisibleCourses(t *testing.T) {
	store := &checkInStoreStub{}
	tasks := &taskReaderStub{}
	scope := &scopeStub{visible: map[string][]string{"tch-1": {"course-1", "course-2"}}}
	svc := NewCheckInService(store, tasks, scope, nil)

	_, err := svc.List(context.Background(), "tch-1", models.RoleTeacher, models.CheckInFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"course-1", "course-2"}, store.filter.CourseIDs)
}
