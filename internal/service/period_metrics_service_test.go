package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

type fakeAssignmentRepo struct {
	assignments []models.Assignment
}

func (m *fakeAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var result []models.Assignment
	for _, a := range m.assignments {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		if filter.DueFrom != nil && a.DueAt.Before(*filter.DueFrom) {
			continue
		}
		if filter.DueTo != nil && a.DueAt.After(*filter.DueTo) {
			continue
		}
		if filter.CompletedOnly && !a.Completed() {
			continue
		}
		if filter.GradedOnly {
			if _, _, _, ok := a.ResolveGradePercentage(); !ok {
				continue
			}
		}
		result = append(result, a)
	}
	return result, nil
}

type fakeCourseRepo struct {
	courses map[string]*models.Course
}

func (m *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	var result []models.Course
	for _, c := range m.courses {
		if filter.UserID != "" && c.UserID != filter.UserID {
			continue
		}
		if filter.TermID != "" && c.TermID != filter.TermID {
			continue
		}
		if filter.ActiveOnly && c.Status != models.CourseStatusActive {
			continue
		}
		result = append(result, *c)
	}
	return result, nil
}

func (m *fakeCourseRepo) SumCreditHours(ctx context.Context, userID, termID string) (float64, error) {
	var sum float64
	for _, c := range m.courses {
		if c.UserID == userID && c.TermID == termID && c.Status == models.CourseStatusActive {
			sum += float64(c.CreditHours)
		}
	}
	return sum, nil
}

type fakeSummaryStore struct {
	rows       map[string]*models.PeriodSummary
	upserts    int
	failCourse string
}

func summaryKey(s *models.PeriodSummary) string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", s.UserID, s.CourseID, s.PeriodType, s.PeriodStart, s.PeriodEnd)
}

func (m *fakeSummaryStore) Upsert(ctx context.Context, summary *models.PeriodSummary) error {
	if m.failCourse != "" && summary.CourseID == m.failCourse {
		return errors.New("storage unavailable")
	}
	if m.rows == nil {
		m.rows = make(map[string]*models.PeriodSummary)
	}
	key := summaryKey(summary)
	if existing, ok := m.rows[key]; ok {
		summary.ID = existing.ID
	} else {
		summary.ID = fmt.Sprintf("snap-%d", len(m.rows)+1)
	}
	clone := *summary
	m.rows[key] = &clone
	m.upserts++
	return nil
}

func (m *fakeSummaryStore) List(ctx context.Context, filter models.PeriodSummaryFilter) ([]models.PeriodSummary, error) {
	var result []models.PeriodSummary
	for _, row := range m.rows {
		if row.UserID != filter.UserID {
			continue
		}
		result = append(result, *row)
	}
	return result, nil
}

func (m *fakeSummaryStore) Stats(ctx context.Context, userID, courseID, termID string) (*models.SummaryStats, error) {
	if len(m.rows) == 0 {
		return nil, nil
	}
	stats := &models.SummaryStats{}
	for _, row := range m.rows {
		if row.UserID != userID {
			continue
		}
		stats.SnapshotCount++
		stats.TotalAssignments += row.TotalAssignments
		stats.CompletedAssignments += row.CompletedAssignments
		stats.PendingAssignments += row.PendingAssignments
		stats.OverdueAssignments += row.OverdueAssignments
		stats.GradedAssignments += row.GradedAssignments
	}
	return stats, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newMetricsFixture(assignments []models.Assignment, courses map[string]*models.Course) (*PeriodMetricsService, *fakeSummaryStore) {
	store := &fakeSummaryStore{}
	svc := NewPeriodMetricsService(
		&fakeAssignmentRepo{assignments: assignments},
		&fakeCourseRepo{courses: courses},
		store, nil, nil, time.Sunday, nil, zap.NewNop())
	return svc, store
}

func TestPeriodMetricsCalculateAggregates(t *testing.T) {
	// Wednesday inside the Mon 11 - Fri 15 work week.
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	assignments := []models.Assignment{
		{ID: "a1", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusDone,
			DueAt:        time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
			PointsEarned: ptrFloat(45), PointsPossible: ptrFloat(50)},
		{ID: "a2", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusDone,
			DueAt: time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC),
			Grade: ptrFloat(80)},
		{ID: "a3", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusTodo,
			DueAt: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)},
		{ID: "a4", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusTodo,
			DueAt: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
	}
	svc, _ := newMetricsFixture(assignments, nil)
	svc.now = fixedClock(now)

	summary, err := svc.Calculate(context.Background(), CalculateMetricsRequest{
		UserID:     "u1",
		PeriodType: models.Period5DayWeek,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalAssignments)
	assert.Equal(t, 2, summary.CompletedAssignments)
	assert.Equal(t, 2, summary.PendingAssignments)
	assert.Equal(t, 1, summary.OverdueAssignments)
	assert.Equal(t, summary.TotalAssignments, summary.CompletedAssignments+summary.PendingAssignments)
	assert.Equal(t, 2, summary.GradedAssignments)

	require.NotNil(t, summary.AverageGrade)
	assert.InDelta(t, 85.0, *summary.AverageGrade, 0.0001)
	assert.InDelta(t, 80.0, *summary.MinGrade, 0.0001)
	assert.InDelta(t, 90.0, *summary.MaxGrade, 0.0001)
	assert.InDelta(t, 125.0, summary.PointsEarned, 0.0001)
	assert.InDelta(t, 150.0, summary.PointsPossible, 0.0001)

	assert.Equal(t, 1, summary.GradesA)
	assert.Equal(t, 1, summary.GradesB)
	assert.Equal(t, 0, summary.GradesC)

	assert.Equal(t, 1, summary.Monday)
	assert.Equal(t, 1, summary.Tuesday)
	assert.Equal(t, 1, summary.Wednesday)
	assert.Equal(t, 1, summary.Friday)
	assert.Nil(t, summary.Saturday)
	assert.Nil(t, summary.Sunday)

	assert.False(t, summary.IsComplete)
	assert.Equal(t, models.MetricTypePeriodSummary, summary.MetricType)
}

func TestPeriodMetricsCalculateIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	assignments := []models.Assignment{
		{ID: "a1", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusDone,
			DueAt: time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), Grade: ptrFloat(92)},
	}
	svc, store := newMetricsFixture(assignments, nil)
	svc.now = fixedClock(now)

	req := CalculateMetricsRequest{UserID: "u1", PeriodType: models.PeriodMonthly}
	first, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Calculate(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, store.rows, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PeriodStart, second.PeriodStart)
	assert.Equal(t, first.PeriodEnd, second.PeriodEnd)
	assert.Equal(t, first.GradedAssignments, second.GradedAssignments)
}

func TestPeriodMetricsCalculateWeekendBuckets(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	assignments := []models.Assignment{
		{ID: "a1", UserID: "u1", Status: models.AssignmentStatusDone,
			DueAt: time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)}, // Saturday
	}
	svc, _ := newMetricsFixture(assignments, nil)
	svc.now = fixedClock(now)

	summary, err := svc.Calculate(context.Background(), CalculateMetricsRequest{
		UserID:     "u1",
		PeriodType: models.Period7DayWeek,
	})
	require.NoError(t, err)
	require.NotNil(t, summary.Saturday)
	require.NotNil(t, summary.Sunday)
	assert.Equal(t, 1, *summary.Saturday)
	assert.Equal(t, 0, *summary.Sunday)
}

func TestPeriodMetricsCalculateRejectsForeignCourse(t *testing.T) {
	courses := map[string]*models.Course{
		"c9": {ID: "c9", UserID: "someone-else", TermID: "t1", Status: models.CourseStatusActive},
	}
	svc, _ := newMetricsFixture(nil, courses)

	_, err := svc.Calculate(context.Background(), CalculateMetricsRequest{
		UserID:     "u1",
		CourseID:   "c9",
		PeriodType: models.PeriodDaily,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "course not found")
}

func TestPeriodMetricsCalculateInvalidPeriodType(t *testing.T) {
	svc, _ := newMetricsFixture(nil, nil)
	_, err := svc.Calculate(context.Background(), CalculateMetricsRequest{
		UserID:     "u1",
		PeriodType: models.PeriodType("weekly"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period type")
}

func TestPeriodMetricsCalculateAllContinuesOnFailure(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	courses := map[string]*models.Course{
		"good": {ID: "good", UserID: "u1", TermID: "t1", Status: models.CourseStatusActive},
		"bad":  {ID: "bad", UserID: "u1", TermID: "t1", Status: models.CourseStatusActive},
	}
	svc, store := newMetricsFixture(nil, courses)
	svc.now = fixedClock(now)
	store.failCourse = "bad"

	results, err := svc.CalculateAll(context.Background(), "u1", "")
	require.NoError(t, err)

	// One overall pass plus one per course, for each of the seven period types.
	assert.Len(t, results, len(models.AllPeriodTypes)*3)

	var failed, succeeded int
	for _, r := range results {
		if r.Error != "" {
			failed++
			assert.Equal(t, "bad", r.CourseID)
		} else {
			succeeded++
			assert.NotEmpty(t, r.SnapshotID)
		}
	}
	assert.Equal(t, len(models.AllPeriodTypes), failed)
	assert.Equal(t, len(models.AllPeriodTypes)*2, succeeded)
}

func TestPeriodMetricsCalculateAllRejectsBadWeekStart(t *testing.T) {
	courses := map[string]*models.Course{
		"c1": {ID: "c1", UserID: "u1", TermID: "t1", Status: models.CourseStatusActive},
	}
	svc, store := newMetricsFixture(nil, courses)

	results, err := svc.CalculateAll(context.Background(), "u1", "someday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid week start day")
	assert.Nil(t, results)
	assert.Zero(t, store.upserts)
}

func TestPeriodMetricsCalculatePointsBeatLegacyGrade(t *testing.T) {
	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	// One assignment carrying both representations: the points pair must
	// decide the grade, not the flat legacy value.
	assignments := []models.Assignment{
		{ID: "a1", UserID: "u1", CourseID: "c1", Status: models.AssignmentStatusDone,
			DueAt:        time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC),
			PointsEarned: ptrFloat(45), PointsPossible: ptrFloat(50),
			Grade: ptrFloat(80)},
	}
	svc, _ := newMetricsFixture(assignments, nil)
	svc.now = fixedClock(now)

	summary, err := svc.Calculate(context.Background(), CalculateMetricsRequest{
		UserID:     "u1",
		PeriodType: models.Period5DayWeek,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.GradedAssignments)
	require.NotNil(t, summary.AverageGrade)
	assert.InDelta(t, 90.0, *summary.AverageGrade, 0.0001)
	assert.InDelta(t, 45.0, summary.PointsEarned, 0.0001)
	assert.InDelta(t, 50.0, summary.PointsPossible, 0.0001)

	// 90% is an A; a regression to the legacy value would land in B.
	assert.Equal(t, 1, summary.GradesA)
	assert.Equal(t, 0, summary.GradesB)
}
