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

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var assignmentRowColumns = []string{
	"id", "user_id", "course_id", "title", "status", "due_at", "points_earned",
	"points_possible", "grade_percentage", "grade", "created_at", "updated_at", "deleted_at",
}

func TestAssignmentRepositoryListWindowFilter(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 23, 59, 59, 999000000, time.UTC)
	now := time.Now()
	rows := sqlmock.NewRows(assignmentRowColumns).
		AddRow("a-1", "user-1", "course-1", "Essay", "done", from.Add(24*time.Hour), 45.0, 50.0, nil, nil, now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+assignmentColumns+" FROM assignments WHERE deleted_at IS NULL AND user_id = $1 AND course_id = $2 AND due_at >= $3 AND due_at <= $4 ORDER BY due_at ASC")).
		WithArgs("user-1", "course-1", from, to).
		WillReturnRows(rows)

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{
		UserID:   "user-1",
		CourseID: "course-1",
		DueFrom:  &from,
		DueTo:    &to,
	})
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "a-1", assignments[0].ID)
	assert.True(t, assignments[0].Completed())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListGradedOnly(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+assignmentColumns+" FROM assignments WHERE deleted_at IS NULL AND user_id = $1 AND status = $2 AND (points_earned IS NOT NULL AND points_possible IS NOT NULL OR grade_percentage IS NOT NULL OR grade IS NOT NULL) ORDER BY due_at ASC")).
		WithArgs("user-1", "done").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns))

	assignments, err := repo.List(context.Background(), models.AssignmentFilter{
		UserID:        "user-1",
		CompletedOnly: true,
		GradedOnly:    true,
	})
	require.NoError(t, err)
	assert.Empty(t, assignments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListCourseSet(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+assignmentColumns+" FROM assignments WHERE deleted_at IS NULL AND course_id IN ($1,$2) ORDER BY due_at ASC")).
		WithArgs("course-1", "course-2").
		WillReturnRows(sqlmock.NewRows(assignmentRowColumns))

	_, err := repo.List(context.Background(), models.AssignmentFilter{CourseIDs: []string{"course-1", "course-2"}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
