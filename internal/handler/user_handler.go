package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	"github.com/noah-isme/academic-metrics-api/internal/service"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// UserHandler exposes user aggregate endpoints.
type UserHandler struct {
	metrics  *service.UserMetricsService
	identity *IdentityResolver
}

// NewUserHandler constructs handler.
func NewUserHandler(metrics *service.UserMetricsService, identity *IdentityResolver) *UserHandler {
	return &UserHandler{metrics: metrics, identity: identity}
}

// Me godoc
// @Summary Return the caller's profile with current aggregate fields
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UpdateMetrics godoc
// @Summary Patch user aggregate metric fields with audit logging
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.UpdateUserMetricsRequest true "Fields to patch"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /users/metrics [patch]
func (h *UserHandler) UpdateMetrics(c *gin.Context) {
	user, err := h.identity.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateUserMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	patched, err := h.metrics.Update(c.Request.Context(), user.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"patched_fields": patched}, nil)
}

// Changes godoc
// @Summary List the caller's audit change log, newest first
// @Tags Users
// @Produce json
// @Param change_type query string false "Filter by change type"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /users/changes [get]
func (h *UserHandler) Changes(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ChangeLogFilter{
		UserID:     user.ID,
		ChangeType: c.Query("change_type"),
		Limit:      queryInt(c, "limit"),
	}
	changes, err := h.metrics.ChangeHistory(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changes, nil)
}
