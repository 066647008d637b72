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

func newChangeLogMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestChangeLogRepositoryAppendDefaultsMetricType(t *testing.T) {
	db, mock, cleanup := newChangeLogMock(t)
	defer cleanup()
	repo := NewChangeLogRepository(db)

	mock.ExpectExec("INSERT INTO user_change_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.UserChangeLog{
		UserID:        "user-1",
		ChangeType:    models.ChangeTypeGPAUpdate,
		FieldName:     "current_gpa",
		PreviousValue: 3.4,
		NewValue:      3.6,
		Reason:        "gpa recalculation",
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, models.MetricTypeUserChangeLog, entry.MetricType)
	assert.False(t, entry.ChangedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryListByChangeType(t *testing.T) {
	db, mock, cleanup := newChangeLogMock(t)
	defer cleanup()
	repo := NewChangeLogRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "metric_type", "change_type", "field_name",
		"previous_value", "new_value", "reason", "changed_at", "created_at", "deleted_at"}).
		AddRow("log-1", "user-1", models.MetricTypeUserChangeLog, models.ChangeTypeCreditUpdate,
			"total_credits_earned", 60.0, 63.0, "registrar import", now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+changeLogColumns+" FROM user_change_logs WHERE deleted_at IS NULL AND user_id = $1 AND change_type = $2 ORDER BY changed_at DESC LIMIT 50")).
		WithArgs("user-1", models.ChangeTypeCreditUpdate).
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.ChangeLogFilter{
		UserID:     "user-1",
		ChangeType: models.ChangeTypeCreditUpdate,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "total_credits_earned", entries[0].FieldName)
	assert.InDelta(t, 63.0, entries[0].NewValue, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}
