package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/traincamp-api/internal/models"
	"github.com/noah-isme/traincamp-api/internal/service"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
	"github.com/noah-isme/traincamp-api/pkg/response"
)

// CheckInHandler wires HTTP endpoints to the attendance ledger.
type CheckInHandler struct {
	service *service.CheckInService
}

// NewCheckInHandler creates a new handler.
func NewCheckInHandler(svc *service.CheckInService) *CheckInHandler {
	return &CheckInHandler{service: svc}
}

// Create godoc
// @Summary Record a check-in for a task
// @Tags CheckIns
// @Accept json
// @Produce json
// @Param payload body object{task_id=string} true "Task reference"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /check-ins [post]
func (h *CheckInHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		TaskID string `json:"task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "task_id required"))
		return
	}

	checkIn, err := h.service.RecordCheckIn(c.Request.Context(), claims.UserID, payload.TaskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, checkIn)
}

// List godoc
// @Summary List check-ins visible to the caller
// @Tags CheckIns
// @Produce json
// @Param task_id query string false "Task filter"
// @Param date_from query string false "Window start (YYYY-MM-DD)"
// @Param date_to query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /check-ins [get]
func (h *CheckInHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CheckInFilter{TaskID: c.Query("task_id")}
	if raw := c.Query("date_from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date_from"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date_to"))
			return
		}
		filter.DateTo = &to
	}

	checkIns, err := h.service.List(c.Request.Context(), claims.UserID, claims.Role, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, checkIns, nil)
}
