package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/service"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// TermHandler exposes term lifecycle endpoints.
type TermHandler struct {
	terms    *service.TermService
	identity *IdentityResolver
}

// NewTermHandler constructs handler.
func NewTermHandler(terms *service.TermService, identity *IdentityResolver) *TermHandler {
	return &TermHandler{terms: terms, identity: identity}
}

// Complete godoc
// @Summary Close out a term, folding its credits into lifetime totals
// @Tags Terms
// @Produce json
// @Param id path string true "Term ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /terms/{id}/complete [post]
func (h *TermHandler) Complete(c *gin.Context) {
	user, err := h.identity.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.terms.Complete(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Credits godoc
// @Summary Sum active-course credit hours for a term
// @Tags Terms
// @Produce json
// @Param term_id query string false "Term ID, defaults to the active term"
// @Success 200 {object} response.Envelope
// @Router /terms/credits [get]
func (h *TermHandler) Credits(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	credits, err := h.terms.SemesterCredits(c.Request.Context(), user.ID, c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, credits, nil)
}
