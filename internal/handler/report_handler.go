package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/service"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// ReportHandler exposes progress report exports.
type ReportHandler struct {
	reports  *service.ReportService
	identity *IdentityResolver
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, identity *IdentityResolver) *ReportHandler {
	return &ReportHandler{reports: reports, identity: identity}
}

// Progress godoc
// @Summary Render a progress report as CSV or PDF
// @Tags Reports
// @Produce json
// @Param format query string false "csv or pdf" default(csv)
// @Param course_id query string false "Filter by course"
// @Param term_id query string false "Filter by term"
// @Param store query bool false "Persist the report and return a signed download token"
// @Success 200 {object} response.Envelope
// @Router /reports/progress [get]
func (h *ReportHandler) Progress(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", service.ReportFormatCSV)
	courseID := c.Query("course_id")
	termID := c.Query("term_id")

	if c.Query("store") == "true" {
		stored, err := h.reports.Store(c.Request.Context(), user.ID, courseID, termID, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, stored, nil)
		return
	}

	rendered, err := h.reports.Render(c.Request.Context(), user.ID, courseID, termID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	c.Data(http.StatusOK, rendered.ContentType, rendered.Content)
}

// Download godoc
// @Summary Fetch a previously stored report using a signed token
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /reports/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token parameter required"))
		return
	}
	file, filename, err := h.reports.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
