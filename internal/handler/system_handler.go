package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/service"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// SystemHandler exposes instrumentation snapshots for dashboards.
type SystemHandler struct {
	instrumentation *service.InstrumentationService
}

// NewSystemHandler constructs the system metrics handler.
func NewSystemHandler(instrumentation *service.InstrumentationService) *SystemHandler {
	return &SystemHandler{instrumentation: instrumentation}
}

// Metrics godoc
// @Summary Return a point-in-time snapshot of service counters
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *SystemHandler) Metrics(c *gin.Context) {
	if h.instrumentation == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	snapshot := h.instrumentation.Snapshot()
	meta := map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
	response.JSON(c, http.StatusOK, snapshot, nil, meta)
}
