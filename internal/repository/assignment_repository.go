package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const assignmentColumns = `id, user_id, course_id, title, status, due_at, points_earned,
        points_possible, grade_percentage, grade, created_at, updated_at, deleted_at`

// AssignmentRepository reads assignments for aggregation. Rows are owned by
// the planner application; this service never writes them.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns non-deleted assignments matching the filter, ordered by due
// instant.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE deleted_at IS NULL", assignmentColumns)
	var args []interface{}
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if len(filter.CourseIDs) > 0 {
		placeholders := make([]string, len(filter.CourseIDs))
		for i, id := range filter.CourseIDs {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND course_id IN (%s)", strings.Join(placeholders, ","))
	}
	if filter.DueFrom != nil {
		query += fmt.Sprintf(" AND due_at >= $%d", len(args)+1)
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query += fmt.Sprintf(" AND due_at <= $%d", len(args)+1)
		args = append(args, *filter.DueTo)
	}
	if filter.CompletedOnly {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, string(models.AssignmentStatusDone))
	}
	if filter.GradedOnly {
		query += " AND (points_earned IS NOT NULL AND points_possible IS NOT NULL OR grade_percentage IS NOT NULL OR grade IS NOT NULL)"
	}
	query += " ORDER BY due_at ASC"

	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}
