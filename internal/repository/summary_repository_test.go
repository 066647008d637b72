package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

func newSummaryMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var summaryRowColumns = []string{
	"id", "user_id", "course_id", "term_id", "metric_type", "period_type", "period_start",
	"period_end", "period_label", "total_assignments", "completed_assignments", "pending_assignments",
	"overdue_assignments", "graded_assignments", "average_grade", "min_grade", "max_grade",
	"points_earned", "points_possible", "grades_a", "grades_b", "grades_c", "grades_d", "grades_f",
	"monday_count", "tuesday_count", "wednesday_count", "thursday_count", "friday_count",
	"saturday_count", "sunday_count", "is_complete", "computed_at", "created_at", "updated_at", "deleted_at",
}

func TestSummaryRepositoryUpsertWritesBackStoredID(t *testing.T) {
	db, mock, cleanup := newSummaryMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	mock.ExpectQuery("INSERT INTO period_summaries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	summary := &models.PeriodSummary{
		UserID:     "user-1",
		MetricType: models.MetricTypePeriodSummary,
		PeriodType: models.PeriodMonthly,
	}
	err := repo.Upsert(context.Background(), summary)
	require.NoError(t, err)
	assert.Equal(t, "existing-id", summary.ID)
	assert.False(t, summary.CreatedAt.IsZero())
	assert.False(t, summary.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newSummaryMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(summaryRowColumns).
		AddRow("sum-1", "user-1", "course-1", "term-1", models.MetricTypePeriodSummary, "monthly",
			int64(1709251200000), int64(1711929599999), "March 2024", 5, 3, 2,
			1, 3, 88.5, 70.0, 95.0,
			250.0, 300.0, 2, 1, 0, 0, 0,
			1, 0, 2, 0, 1,
			nil, nil, false, now, now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+summaryColumns+" FROM period_summaries WHERE deleted_at IS NULL AND user_id = $1 AND course_id = $2 AND period_type = $3 ORDER BY computed_at DESC LIMIT 25")).
		WithArgs("user-1", "course-1", "monthly").
		WillReturnRows(rows)

	summaries, err := repo.List(context.Background(), models.PeriodSummaryFilter{
		UserID:     "user-1",
		CourseID:   "course-1",
		PeriodType: models.PeriodMonthly,
		Limit:      25,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "sum-1", summaries[0].ID)
	require.NotNil(t, summaries[0].AverageGrade)
	assert.InDelta(t, 88.5, *summaries[0].AverageGrade, 0.001)
	assert.Nil(t, summaries[0].Saturday)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepositoryListDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newSummaryMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + summaryColumns + " FROM period_summaries WHERE deleted_at IS NULL AND user_id = $1 ORDER BY computed_at DESC LIMIT 100")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(summaryRowColumns))

	summaries, err := repo.List(context.Background(), models.PeriodSummaryFilter{UserID: "user-1", Limit: 900})
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepositoryStats(t *testing.T) {
	db, mock, cleanup := newSummaryMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	statsColumns := []string{"snapshot_count", "total_assignments", "completed_assignments",
		"pending_assignments", "overdue_assignments", "graded_assignments", "average_grade",
		"grades_a", "grades_b", "grades_c", "grades_d", "grades_f"}
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS snapshot_count").
		WithArgs("user-1", "course-1").
		WillReturnRows(sqlmock.NewRows(statsColumns).AddRow(4, 20, 15, 5, 1, 12, 88.5, 6, 4, 2, 0, 0))

	stats, err := repo.Stats(context.Background(), "user-1", "course-1", "")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.SnapshotCount)
	assert.Equal(t, 20, stats.TotalAssignments)
	require.NotNil(t, stats.AverageGrade)
	assert.InDelta(t, 88.5, *stats.AverageGrade, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryRepositoryStatsNilWhenEmpty(t *testing.T) {
	db, mock, cleanup := newSummaryMock(t)
	defer cleanup()
	repo := NewSummaryRepository(db)

	statsColumns := []string{"snapshot_count", "total_assignments", "completed_assignments",
		"pending_assignments", "overdue_assignments", "graded_assignments", "average_grade",
		"grades_a", "grades_b", "grades_c", "grades_d", "grades_f"}
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS snapshot_count").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(statsColumns).AddRow(0, 0, 0, 0, 0, 0, nil, 0, 0, 0, 0, 0))

	stats, err := repo.Stats(context.Background(), "user-1", "", "")
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}
