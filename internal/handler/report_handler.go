package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/traincamp-api/internal/service"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
	"github.com/noah-isme/traincamp-api/pkg/response"
)

// ReportHandler wires HTTP endpoints to the window reporter.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Window godoc
// @Summary Aggregate pipeline rates over a date window
// @Tags Reports
// @Produce json
// @Param date_from query string true "Window start (YYYY-MM-DD)"
// @Param date_to query string true "Window end (YYYY-MM-DD)"
// @Param course_id query string false "Narrow to one visible course"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/window [get]
func (h *ReportHandler) Window(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := service.ReportQuery{DateFrom: c.Query("date_from"), DateTo: c.Query("date_to"), CourseID: c.Query("course_id")}
	report, err := h.service.Window(c.Request.Context(), claims.UserID, claims.Role, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export the window report as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param date_from query string true "Window start (YYYY-MM-DD)"
// @Param date_to query string true "Window end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/window/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := service.ReportQuery{DateFrom: c.Query("date_from"), DateTo: c.Query("date_to"), CourseID: c.Query("course_id")}
	filename := fmt.Sprintf("window-report-%s", time.Now().UTC().Format("20060102-150405"))

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.service.ExportCSV(c.Request.Context(), claims.UserID, claims.Role, query)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.service.ExportPDF(c.Request.Context(), claims.UserID, claims.Role, query)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
