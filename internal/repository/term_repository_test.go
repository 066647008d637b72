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

func newTermMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var termRowColumns = []string{
	"id", "user_id", "name", "start_date", "end_date", "status", "created_at", "updated_at", "deleted_at",
}

func TestTermRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(termRowColumns).
		AddRow("term-1", "user-1", "Spring 2024", now.AddDate(0, -2, 0), now.AddDate(0, 2, 0), "active", now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+termColumns+" FROM terms WHERE user_id = $1 AND status = $2 AND deleted_at IS NULL LIMIT 1")).
		WithArgs("user-1", "active").
		WillReturnRows(rows)

	term, err := repo.FindActive(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "term-1", term.ID)
	assert.Equal(t, models.TermStatusActive, term.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetStatus(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL")).
		WithArgs("past", sqlmock.AnyArg(), "term-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStatus(context.Background(), "term-1", models.TermStatusPast))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositorySetStatusMissingTerm(t *testing.T) {
	db, mock, cleanup := newTermMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE terms SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL")).
		WithArgs("past", sqlmock.AnyArg(), "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "ghost", models.TermStatusPast)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
