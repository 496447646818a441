package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
)

type submissionStoreStub struct {
	created    []*models.Submission
	items      map[string]*models.Submission
	updateErr  error
	listFilter models.SubmissionFilter
	listed     []models.SubmissionDetail
	total      int
}

func (s *submissionStoreStub) Create(ctx context.Context, submission *models.Submission) error {
	s.created = append(s.created, submission)
	return nil
}

func (s *submissionStoreStub) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	if submission, ok := s.items[id]; ok {
		cp := *submission
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *submissionStoreStub) FindDetailByID(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *submissionStoreStub) UpdateContent(ctx context.Context, submission *models.Submission) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.items[submission.ID] = submission
	return nil
}

func (s *submissionStoreStub) List(ctx context.Context, filter models.SubmissionFilter) ([]models.SubmissionDetail, int, error) {
	s.listFilter = filter
	return s.listed, s.total, nil
}

func newSubmissionFixture() (*SubmissionService, *submissionStoreStub) {
	store := &submissionStoreStub{items: map[string]*models.Submission{}}
	tasks := &taskReaderStub{tasks: map[string]*models.Task{
		"task-1": {ID: "task-1", CourseID: "course-1", ScheduledDate: mustDate("2026-03-02")},
	}}
	scope := &scopeStub{visible: map[string][]string{"stu-1": {"course-1"}}}
	return NewSubmissionService(store, tasks, scope, nil, nil), store
}

func TestSubmitContentOnly(t *testing.T) {
	svc, store := newSubmissionFixture()

	submission, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{TaskID: "task-1", Content: "  notes  "})
	require.NoError(t, err)
	require.NotNil(t, submission.Content)
	assert.Equal(t, "notes", *submission.Content)
	assert.Equal(t, models.SubmissionStatusPending, submission.Status)
	require.Len(t, store.created, 1)
}

func TestSubmitEmptyPayloadRejected(t *testing.T) {
	svc, store := newSubmissionFixture()

	_, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{TaskID: "task-1", Content: "   ", ArtifactRefs: []string{" ", ""}})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EMPTY_SUBMISSION", appErr.Code)
	assert.Empty(t, store.created)
}

func TestSubmitTooManyArtifacts(t *testing.T) {
	svc, _ := newSubmissionFixture()

	refs := make([]string, MaxArtifactRefs+1)
	for i := range refs {
		refs[i] = "https://files.example.com/a"
	}
	_, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{TaskID: "task-1", ArtifactRefs: refs})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TOO_MANY_ARTIFACTS", appErr.Code)
}

func TestSubmitRelativeArtifactURLRejected(t *testing.T) {
	svc, _ := newSubmissionFixture()

	_, err := svc.Submit(context.Background(), "stu-1", SubmitRequest{TaskID: "task-1", ArtifactRefs: []string{"files/report.pdf"}})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_ARTIFACT_URL", appErr.Code)
}

func TestSubmitNotEnrolled(t *testing.T) {
	svc, _ := newSubmissionFixture()

	_, err := svc.Submit(context.Background(), "stu-2", SubmitRequest{TaskID: "task-1", Content: "work"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_ENROLLED", appErr.Code)
}

func TestAmendPendingSubmission(t *testing.T) {
	svc, store := newSubmissionFixture()
	store.items["sub-1"] = &models.Submission{ID: "sub-1", StudentID: "stu-1", Status: models.SubmissionStatusPending}

	submission, err := svc.Amend(context.Background(), "stu-1", "sub-1", AmendRequest{Content: "revised"})
	require.NoError(t, err)
	require.NotNil(t, submission.Content)
	assert.Equal(t, "revised", *submission.Content)
}

func TestAmendEvaluatedSubmissionLocked(t *testing.T) {
	svc, store := newSubmissionFixture()
	store.items["sub-1"] = &models.Submission{ID: "sub-1", StudentID: "stu-1", Status: models.SubmissionStatusEvaluated}

	_, err := svc.Amend(context.Background(), "stu-1", "sub-1", AmendRequest{Content: "revised"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SUBMISSION_LOCKED", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestAmendLosesRaceWithEvaluation(t *testing.T) {
	svc, store := newSubmissionFixture()
	store.items["sub-1"] = &models.Submission{ID: "sub-1", StudentID: "stu-1", Status: models.SubmissionStatusPending}
	store.updateErr = sql.ErrNoRows

	_, err := svc.Amend(context.Background(), "stu-1", "sub-1", AmendRequest{Content: "revised"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SUBMISSION_LOCKED", appErr.Code)
}

func TestAmendForeignSubmissionForbidden(t *testing.T) {
	svc, store := newSubmissionFixture()
	store.items["sub-1"] = &models.Submission{ID: "sub-1", StudentID: "stu-9", Status: models.SubmissionStatusPending}

	_, err := svc.Amend(context.Background(), "stu-1", "sub-1", AmendRequest{Content: "revised"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestVisibleToStudentSeesOnlyOwn(t *testing.T) {
	svc, store := newSubmissionFixture()

	_, _, err := svc.VisibleTo(context.Background(), "stu-1", models.RoleStudent, SubmissionQuery{})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", store.listFilter.StudentID)
	assert.Empty(t, store.listFilter.CourseIDs)
}

func TestVisibleToRejectsUnknownStatus(t *testing.T) {
	svc, _ := newSubmissionFixture()

	_, _, err := svc.VisibleTo(context.Background(), "stu-1", models.RoleStudent, SubmissionQuery{Status: "WAITING"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestVisibleToTeacherWithNoCoursesIsEmpty(t *testing.T) {
	store := &submissionStoreStub{items: map[string]*models.Submission{}}
	tasks := &taskReaderStub{}
	scope := &scopeStub{visible: map[string][]string{}}
	svc := NewSubmissionService(store, tasks, scope, nil, nil)

	submissions, total, err := svc.VisibleTo(context.Background(), "tch-1", models.RoleTeacher, SubmissionQuery{})
	require.NoError(t, err)
	assert.Empty(t, submissions)
	assert.Zero(t, total)
}
