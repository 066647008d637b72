package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const courseColumns = `id, user_id, term_id, name, code, credit_hours, status, created_at, updated_at, deleted_at`

// CourseRepository reads course rows owned by the planner application.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns the course with the given ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1 AND deleted_at IS NULL LIMIT 1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns non-deleted courses matching the filter.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE deleted_at IS NULL", courseColumns)
	var args []interface{}
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.TermID != "" {
		query += fmt.Sprintf(" AND term_id = $%d", len(args)+1)
		args = append(args, filter.TermID)
	}
	if filter.ActiveOnly {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(models.CourseStatusActive))
	}
	query += " ORDER BY created_at ASC"

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// SumCreditHours totals credit hours over a user's active courses in a term.
// Dropped courses carry no credit weight.
func (r *CourseRepository) SumCreditHours(ctx context.Context, userID, termID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(credit_hours), 0) FROM courses
        WHERE user_id = $1 AND term_id = $2 AND status = $3 AND deleted_at IS NULL`
	var total float64
	if err := r.db.GetContext(ctx, &total, query, userID, termID, string(models.CourseStatusActive)); err != nil {
		return 0, fmt.Errorf("sum credit hours: %w", err)
	}
	return total, nil
}
