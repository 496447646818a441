package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/traincamp-api/internal/middleware"
	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/repository"
	"github.com/noah-isme/traincamp-api/internal/service"
	"github.com/noah-isme/traincamp-api/pkg/response"
)

type checkInStoreMock struct {
	createErr error
}

func (m *checkInStoreMock) Create(ctx context.Context, checkIn *models.CheckIn) error {
	return m.createErr
}

func (m *checkInStoreMock) List(ctx context.Context, filter models.CheckInFilter) ([]models.CheckInDetail, error) {
	return nil, nil
}

type taskReaderMock struct {
	task *models.Task
}

func (m *taskReaderMock) FindByID(ctx context.Context, id string) (*models.Task, error) {
	if m.task == nil {
		return nil, sql.ErrNoRows
	}
	return m.task, nil
}

type scopeMock struct {
	visible []string
}

func (m *scopeMock) CoursesVisibleTo(ctx context.Context, principalID string, role models.UserRole) ([]string, error) {
	return m.visible, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newCheckInHandlerFixture(store *checkInStoreMock) *CheckInHandler {
	tasks := &taskReaderMock{task: &models.Task{
		ID:            "task-1",
		CourseID:      "course-1",
		ScheduledDate: time.Now().UTC().Add(-24 * time.Hour),
	}}
	scope := &scopeMock{visible: []string{"course-1"}}
	svc := service.NewCheckInService(store, tasks, scope, nil)
	return NewCheckInHandler(svc)
}

func TestCheckInHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCheckInHandlerFixture(&checkInStoreMock{})

	payload, _ := json.Marshal(gin.H{"task_id": "task-1"})
	c, w := newGinContext(http.MethodPost, "/check-ins", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
}

func TestCheckInHandlerCreateDuplicateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCheckInHandlerFixture(&checkInStoreMock{createErr: repository.ErrDuplicate})

	payload, _ := json.Marshal(gin.H{"task_id": "task-1"})
	c, w := newGinContext(http.MethodPost, "/check-ins", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	require.Equal(t, "DUPLICATE_CHECK_IN", envelope.Error.Code)
}

func TestCheckInHandlerCreateRequiresTaskID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCheckInHandlerFixture(&checkInStoreMock{})

	c, w := newGinContext(http.MethodPost, "/check-ins", []byte(`{}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckInHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newCheckInHandlerFixture(&checkInStoreMock{})

	payload, _ := json.Marshal(gin.H{"task_id": "task-1"})
	c, w := newGinContext(http.MethodPost, "/check-ins", payload)

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
