package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	"github.com/noah-isme/academic-metrics-api/internal/period"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type assignmentReader interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type summaryStore interface {
	Upsert(ctx context.Context, summary *models.PeriodSummary) error
	List(ctx context.Context, filter models.PeriodSummaryFilter) ([]models.PeriodSummary, error)
	Stats(ctx context.Context, userID, courseID, termID string) (*models.SummaryStats, error)
}

// CalculateMetricsRequest identifies one (user, course?, period) computation.
type CalculateMetricsRequest struct {
	UserID        string            `json:"-" validate:"required"`
	CourseID      string            `json:"course_id"`
	TermID        string            `json:"term_id"`
	PeriodType    models.PeriodType `json:"period_type" validate:"required"`
	ReferenceDate *time.Time        `json:"reference_date"`
	WeekStartDay  string            `json:"week_start_day"`
}

// PeriodMetricsService computes and persists period summary snapshots.
type PeriodMetricsService struct {
	assignments     assignmentReader
	courses         courseReader
	summaries       summaryStore
	cache           *CacheService
	instrumentation *InstrumentationService
	validator       *validator.Validate
	logger          *zap.Logger
	weekStart       time.Weekday
	now             func() time.Time
}

// NewPeriodMetricsService constructs a PeriodMetricsService. The week start
// is the configured default; requests may override it per call.
func NewPeriodMetricsService(assignments assignmentReader, courses courseReader, summaries summaryStore,
	cache *CacheService, instrumentation *InstrumentationService, weekStart time.Weekday,
	validate *validator.Validate, logger *zap.Logger) *PeriodMetricsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodMetricsService{
		assignments:     assignments,
		courses:         courses,
		summaries:       summaries,
		cache:           cache,
		instrumentation: instrumentation,
		validator:       validate,
		logger:          logger,
		weekStart:       weekStart,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Calculate computes one window and upserts its snapshot. Recomputing the
// same window converges to a single stored row with identical contents.
func (s *PeriodMetricsService) Calculate(ctx context.Context, req CalculateMetricsRequest) (*models.PeriodSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics payload")
	}
	if !req.PeriodType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period type %q", req.PeriodType))
	}
	weekStart := s.weekStart
	if req.WeekStartDay != "" {
		parsed, err := period.ParseWeekStart(req.WeekStartDay)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week start day")
		}
		weekStart = parsed
	}
	reference := s.now()
	if req.ReferenceDate != nil {
		reference = req.ReferenceDate.UTC()
	}
	window, err := period.Resolve(req.PeriodType, reference, weekStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to resolve period window")
	}

	termID := req.TermID
	if req.CourseID != "" {
		course, err := s.courses.FindByID(ctx, req.CourseID)
		if err != nil {
			if isNoRows(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if course.UserID != req.UserID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		if termID == "" {
			termID = course.TermID
		}
	}

	dueFrom := time.UnixMilli(window.Start).UTC()
	dueTo := time.UnixMilli(window.End).UTC()
	start := s.now()
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{
		UserID:   req.UserID,
		CourseID: req.CourseID,
		DueFrom:  &dueFrom,
		DueTo:    &dueTo,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	s.instrumentation.ObserveDBQuery("metrics_assignments", time.Since(start))

	summary := s.aggregate(req.UserID, req.CourseID, termID, req.PeriodType, window, assignments)
	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist period summary")
	}
	s.instrumentation.RecordSnapshotUpsert(req.PeriodType)
	s.invalidateCache(ctx, req.UserID)
	return summary, nil
}

// CalculateAll recomputes every period type for the user: one overall pass
// plus one per active course. Iteration failures are logged and recorded,
// never propagated; partial completion is an expected outcome.
func (s *PeriodMetricsService) CalculateAll(ctx context.Context, userID, weekStartDay string) ([]models.BatchCalculationResult, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	// A bad week start would fail every iteration identically, so reject
	// it once here instead of reporting it per item.
	if weekStartDay != "" {
		if _, err := period.ParseWeekStart(weekStartDay); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid week start day")
		}
	}
	courses, err := s.courses.List(ctx, models.CourseFilter{UserID: userID, ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	results := make([]models.BatchCalculationResult, 0, len(models.AllPeriodTypes)*(len(courses)+1))
	for _, periodType := range models.AllPeriodTypes {
		results = append(results, s.runBatchItem(ctx, CalculateMetricsRequest{
			UserID:       userID,
			PeriodType:   periodType,
			WeekStartDay: weekStartDay,
		}))
		for _, course := range courses {
			results = append(results, s.runBatchItem(ctx, CalculateMetricsRequest{
				UserID:       userID,
				CourseID:     course.ID,
				TermID:       course.TermID,
				PeriodType:   periodType,
				WeekStartDay: weekStartDay,
			}))
		}
	}
	return results, nil
}

func (s *PeriodMetricsService) runBatchItem(ctx context.Context, req CalculateMetricsRequest) models.BatchCalculationResult {
	result := models.BatchCalculationResult{CourseID: req.CourseID, PeriodType: req.PeriodType}
	summary, err := s.Calculate(ctx, req)
	if err != nil {
		s.instrumentation.RecordBatchFailure()
		s.logger.Warn("batch metrics iteration failed",
			zap.String("user_id", req.UserID),
			zap.String("course_id", req.CourseID),
			zap.String("period_type", string(req.PeriodType)),
			zap.Error(err))
		result.Error = err.Error()
		return result
	}
	result.SnapshotID = summary.ID
	return result
}

// GetMetrics returns stored snapshots, most recently computed first. The
// boolean indicates whether the payload came from cache.
func (s *PeriodMetricsService) GetMetrics(ctx context.Context, filter models.PeriodSummaryFilter) ([]models.PeriodSummary, bool, error) {
	if filter.UserID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	cacheKey := makeMetricsCacheKey("snapshots", filter.UserID, filter.CourseID, filter.TermID,
		string(filter.PeriodType), formatMillis(filter.PeriodStart), formatMillis(filter.PeriodEnd), fmt.Sprintf("%d", filter.Limit))
	var cached []models.PeriodSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, true, nil
	}

	start := s.now()
	summaries, err := s.summaries.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list snapshots")
	}
	s.instrumentation.ObserveDBQuery("metrics_snapshots", time.Since(start))
	if err := s.cache.Set(ctx, cacheKey, summaries, 0); err != nil {
		s.logger.Warn("cache snapshots", zap.Error(err))
	}
	return summaries, false, nil
}

// GetSummaryStats rolls all stored snapshots for the scope into running
// totals. Nil means no snapshots exist.
func (s *PeriodMetricsService) GetSummaryStats(ctx context.Context, userID, courseID, termID string) (*models.SummaryStats, bool, error) {
	if userID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	cacheKey := makeMetricsCacheKey("stats", userID, courseID, termID)
	var cached models.SummaryStats
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	start := s.now()
	stats, err := s.summaries.Stats(ctx, userID, courseID, termID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate snapshots")
	}
	s.instrumentation.ObserveDBQuery("metrics_stats", time.Since(start))
	if stats != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
			s.logger.Warn("cache stats", zap.Error(err))
		}
	}
	return stats, false, nil
}

// aggregate folds assignments into the snapshot shape for one window.
func (s *PeriodMetricsService) aggregate(userID, courseID, termID string, periodType models.PeriodType,
	window period.Window, assignments []models.Assignment) *models.PeriodSummary {
	now := s.now()
	summary := &models.PeriodSummary{
		UserID:      userID,
		CourseID:    courseID,
		TermID:      termID,
		MetricType:  models.MetricTypePeriodSummary,
		PeriodType:  periodType,
		PeriodStart: window.Start,
		PeriodEnd:   window.End,
		PeriodLabel: window.Label,
		IsComplete:  window.Elapsed(now),
		ComputedAt:  now,
	}

	var gradeSum float64
	var minGrade, maxGrade float64
	var saturday, sunday int
	nowMillis := now.UnixMilli()

	for _, assignment := range assignments {
		summary.TotalAssignments++
		if assignment.Completed() {
			summary.CompletedAssignments++
		} else {
			summary.PendingAssignments++
			// Overdue is an informational sub-count of pending.
			if assignment.DueAt.UnixMilli() < nowMillis {
				summary.OverdueAssignments++
			}
		}

		switch assignment.DueAt.UTC().Weekday() {
		case time.Monday:
			summary.Monday++
		case time.Tuesday:
			summary.Tuesday++
		case time.Wednesday:
			summary.Wednesday++
		case time.Thursday:
			summary.Thursday++
		case time.Friday:
			summary.Friday++
		case time.Saturday:
			saturday++
		case time.Sunday:
			sunday++
		}

		percentage, earned, possible, graded := assignment.ResolveGradePercentage()
		if !graded {
			continue
		}
		if summary.GradedAssignments == 0 {
			minGrade, maxGrade = percentage, percentage
		} else {
			if percentage < minGrade {
				minGrade = percentage
			}
			if percentage > maxGrade {
				maxGrade = percentage
			}
		}
		summary.GradedAssignments++
		gradeSum += percentage
		summary.PointsEarned += earned
		summary.PointsPossible += possible

		switch {
		case percentage >= 90:
			summary.GradesA++
		case percentage >= 80:
			summary.GradesB++
		case percentage >= 70:
			summary.GradesC++
		case percentage >= 60:
			summary.GradesD++
		default:
			summary.GradesF++
		}
	}

	// Weekend slots only exist for full-week windows; elsewhere they stay
	// absent rather than zero.
	if periodType == models.Period7DayWeek {
		summary.Saturday = &saturday
		summary.Sunday = &sunday
	}

	// Absence, not zero: an average of 0 would conflate "no data" with
	// "failing everything".
	if summary.GradedAssignments > 0 {
		average := gradeSum / float64(summary.GradedAssignments)
		summary.AverageGrade = &average
		summary.MinGrade = &minGrade
		summary.MaxGrade = &maxGrade
	}
	return summary
}

func (s *PeriodMetricsService) invalidateCache(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("metrics:*:%s:*", userID)); err != nil {
		s.logger.Warn("invalidate metrics cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func makeMetricsCacheKey(parts ...string) string {
	key := "metrics"
	for _, part := range parts {
		key += ":" + part
	}
	return key
}

func formatMillis(v *int64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
