package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	"github.com/noah-isme/academic-metrics-api/internal/service"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/jobs"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// RecalculationJobType tags queued batch recomputation jobs.
const RecalculationJobType = "metrics.recalculate_all"

// RecalculationPayload is the queued payload for a batch recomputation.
type RecalculationPayload struct {
	UserID       string `json:"user_id"`
	WeekStartDay string `json:"week_start_day"`
}

// MetricsHandler exposes period metrics endpoints.
type MetricsHandler struct {
	metrics  *service.PeriodMetricsService
	identity *IdentityResolver
	queue    *jobs.Queue
}

// NewMetricsHandler constructs handler. The queue is optional; without it
// batch recomputation always runs synchronously.
func NewMetricsHandler(metrics *service.PeriodMetricsService, identity *IdentityResolver, queue *jobs.Queue) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, identity: identity, queue: queue}
}

// Calculate godoc
// @Summary Compute and store one period summary snapshot
// @Tags Metrics
// @Accept json
// @Produce json
// @Param payload body service.CalculateMetricsRequest true "Calculation scope"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics/calculate [post]
func (h *MetricsHandler) Calculate(c *gin.Context) {
	user, err := h.identity.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CalculateMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.UserID = user.ID
	summary, err := h.metrics.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CalculateAll godoc
// @Summary Recompute snapshots for every active course and period type
// @Tags Metrics
// @Accept json
// @Produce json
// @Param async query bool false "Queue the recomputation instead of waiting"
// @Param week_start_day query string false "Week start override (sunday|monday)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /metrics/calculate-all [post]
func (h *MetricsHandler) CalculateAll(c *gin.Context) {
	user, err := h.identity.Require(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	weekStart := c.Query("week_start_day")

	if h.queue != nil && c.Query("async") == "true" {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    RecalculationJobType,
			Payload: RecalculationPayload{UserID: user.ID, WeekStartDay: weekStart},
		}
		if err := h.queue.Enqueue(job); err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusAccepted, gin.H{"job_id": job.ID, "status": "queued"}, nil)
		return
	}

	results, err := h.metrics.CalculateAll(c.Request.Context(), user.ID, weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// List godoc
// @Summary List stored period summary snapshots
// @Tags Metrics
// @Produce json
// @Param course_id query string false "Filter by course"
// @Param term_id query string false "Filter by term"
// @Param period_type query string false "Filter by period type"
// @Param period_start query int false "Exact window start (ms)"
// @Param period_end query int false "Exact window end (ms)"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /metrics [get]
func (h *MetricsHandler) List(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.PeriodSummaryFilter{
		UserID:     user.ID,
		CourseID:   c.Query("course_id"),
		TermID:     c.Query("term_id"),
		PeriodType: models.PeriodType(c.Query("period_type")),
		Limit:      queryInt(c, "limit"),
	}
	filter.PeriodStart = queryMillis(c, "period_start")
	filter.PeriodEnd = queryMillis(c, "period_end")

	summaries, cached, err := h.metrics.GetMetrics(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil, map[string]interface{}{"cached": cached, "generated_at": time.Now().UTC()})
}

// Summary godoc
// @Summary Aggregate all stored snapshots for a scope into running totals
// @Tags Metrics
// @Produce json
// @Param course_id query string false "Filter by course"
// @Param term_id query string false "Filter by term"
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	user, err := h.identity.Resolve(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, cached, err := h.metrics.GetSummaryStats(c.Request.Context(), user.ID, c.Query("course_id"), c.Query("term_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, map[string]interface{}{"cached": cached})
}

func queryInt(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

func queryMillis(c *gin.Context, name string) *int64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
