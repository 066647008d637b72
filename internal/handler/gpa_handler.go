package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	"github.com/noah-isme/academic-metrics-api/internal/service"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// GPAHandler exposes GPA calculation endpoints.
type GPAHandler struct {
	gpa      *service.GPAService
	identity *IdentityResolver
}

// NewGPAHandler constructs handler.
func NewGPAHandler(gpa *service.GPAService, identity *IdentityResolver) *GPAHandler {
	return &GPAHandler{gpa: gpa, identity: identity}
}

type calculateGPARequest struct {
	TermID string `json:"term_id"`
}

// Calculate godoc
// @Summary Recalculate the caller's GPA figures and snapshot the result
// @Tags GPA
// @Accept json
// @Produce json
// @Param payload body calculateGPARequest false "Term scope"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /gpa/calculate [post]
func (h *GPAHandler) Calculate(c *gin.Context) {
	user, err := h.identity.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req calculateGPARequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.gpa.Calculate(c.Request.Context(), user.ID, req.TermID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary List stored GPA snapshots, newest first
// @Tags GPA
// @Produce json
// @Param term_id query string false "Filter by term"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /gpa/history [get]
func (h *GPAHandler) History(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.GPASnapshotFilter{
		UserID: user.ID,
		TermID: c.Query("term_id"),
		Limit:  queryInt(c, "limit"),
	}
	history, err := h.gpa.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
