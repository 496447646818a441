package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/traincamp-api/internal/service"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
	"github.com/noah-isme/traincamp-api/pkg/response"
)

// RegistryHandler exposes the assignment and enrollment replace-set
// endpoints.
type RegistryHandler struct {
	service *service.RegistryService
}

// NewRegistryHandler creates a new handler.
func NewRegistryHandler(svc *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{service: svc}
}

// SaveAssignments godoc
// @Summary Replace a teacher's assignment set
// @Tags Registry
// @Accept json
// @Produce json
// @Param id path string true "Teacher id"
// @Param payload body service.SaveCoursesRequest true "Course ids"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id}/assignments [put]
func (h *RegistryHandler) SaveAssignments(c *gin.Context) {
	var req service.SaveCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	if err := h.service.AssignCourses(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAssignments godoc
// @Summary List a teacher's assignments
// @Tags Registry
// @Produce json
// @Param id path string true "Teacher id"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/assignments [get]
func (h *RegistryHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// SaveEnrollments godoc
// @Summary Replace a student's enrollment set
// @Tags Registry
// @Accept json
// @Produce json
// @Param id path string true "Student id"
// @Param payload body service.SaveCoursesRequest true "Course ids"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollments [put]
func (h *RegistryHandler) SaveEnrollments(c *gin.Context) {
	var req service.SaveCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	if err := h.service.EnrollCourses(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListEnrollments godoc
// @Summary List a student's enrollments
// @Tags Registry
// @Produce json
// @Param id path string true "Student id"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *RegistryHandler) ListEnrollments(c *gin.Context) {
	enrollments, err := h.service.ListEnrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
