package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const summaryColumns = `id, user_id, course_id, term_id, metric_type, period_type, period_start,
        period_end, period_label, total_assignments, completed_assignments, pending_assignments,
        overdue_assignments, graded_assignments, average_grade, min_grade, max_grade,
        points_earned, points_possible, grades_a, grades_b, grades_c, grades_d, grades_f,
        monday_count, tuesday_count, wednesday_count, thursday_count, friday_count,
        saturday_count, sunday_count, is_complete, computed_at, created_at, updated_at, deleted_at`

// SummaryRepository persists period summary snapshots. The table carries a
// unique index on (user_id, course_id, period_type, period_start, period_end)
// so recomputing a window is a keyed upsert, never a scan.
type SummaryRepository struct {
	db *sqlx.DB
}

// NewSummaryRepository creates a new summary repository.
func NewSummaryRepository(db *sqlx.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// Upsert inserts the snapshot or overwrites the existing row for the same
// window in place. The stored row's ID is written back onto the summary.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *models.PeriodSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = now
	}
	summary.UpdatedAt = now
	const query = `INSERT INTO period_summaries (id, user_id, course_id, term_id, metric_type,
            period_type, period_start, period_end, period_label, total_assignments,
            completed_assignments, pending_assignments, overdue_assignments, graded_assignments,
            average_grade, min_grade, max_grade, points_earned, points_possible,
            grades_a, grades_b, grades_c, grades_d, grades_f,
            monday_count, tuesday_count, wednesday_count, thursday_count, friday_count,
            saturday_count, sunday_count, is_complete, computed_at, created_at, updated_at)
        VALUES (:id, :user_id, :course_id, :term_id, :metric_type,
            :period_type, :period_start, :period_end, :period_label, :total_assignments,
            :completed_assignments, :pending_assignments, :overdue_assignments, :graded_assignments,
            :average_grade, :min_grade, :max_grade, :points_earned, :points_possible,
            :grades_a, :grades_b, :grades_c, :grades_d, :grades_f,
            :monday_count, :tuesday_count, :wednesday_count, :thursday_count, :friday_count,
            :saturday_count, :sunday_count, :is_complete, :computed_at, :created_at, :updated_at)
        ON CONFLICT (user_id, course_id, period_type, period_start, period_end)
        DO UPDATE SET term_id = EXCLUDED.term_id, period_label = EXCLUDED.period_label,
            total_assignments = EXCLUDED.total_assignments,
            completed_assignments = EXCLUDED.completed_assignments,
            pending_assignments = EXCLUDED.pending_assignments,
            overdue_assignments = EXCLUDED.overdue_assignments,
            graded_assignments = EXCLUDED.graded_assignments,
            average_grade = EXCLUDED.average_grade, min_grade = EXCLUDED.min_grade,
            max_grade = EXCLUDED.max_grade, points_earned = EXCLUDED.points_earned,
            points_possible = EXCLUDED.points_possible, grades_a = EXCLUDED.grades_a,
            grades_b = EXCLUDED.grades_b, grades_c = EXCLUDED.grades_c,
            grades_d = EXCLUDED.grades_d, grades_f = EXCLUDED.grades_f,
            monday_count = EXCLUDED.monday_count, tuesday_count = EXCLUDED.tuesday_count,
            wednesday_count = EXCLUDED.wednesday_count, thursday_count = EXCLUDED.thursday_count,
            friday_count = EXCLUDED.friday_count, saturday_count = EXCLUDED.saturday_count,
            sunday_count = EXCLUDED.sunday_count, is_complete = EXCLUDED.is_complete,
            computed_at = EXCLUDED.computed_at, updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, summary)
	if err != nil {
		return fmt.Errorf("upsert period summary: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&summary.ID); err != nil {
			return fmt.Errorf("scan period summary id: %w", err)
		}
	}
	return rows.Err()
}

// List returns snapshots matching the filter, most recently computed first.
func (r *SummaryRepository) List(ctx context.Context, filter models.PeriodSummaryFilter) ([]models.PeriodSummary, error) {
	query := fmt.Sprintf("SELECT %s FROM period_summaries WHERE deleted_at IS NULL", summaryColumns)
	var args []interface{}
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.CourseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, filter.CourseID)
	}
	if filter.TermID != "" {
		query += fmt.Sprintf(" AND term_id = $%d", len(args)+1)
		args = append(args, filter.TermID)
	}
	if filter.PeriodType != "" {
		query += fmt.Sprintf(" AND period_type = $%d", len(args)+1)
		args = append(args, string(filter.PeriodType))
	}
	if filter.PeriodStart != nil {
		query += fmt.Sprintf(" AND period_start = $%d", len(args)+1)
		args = append(args, *filter.PeriodStart)
	}
	if filter.PeriodEnd != nil {
		query += fmt.Sprintf(" AND period_end = $%d", len(args)+1)
		args = append(args, *filter.PeriodEnd)
	}
	query += " ORDER BY computed_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	var summaries []models.PeriodSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("list period summaries: %w", err)
	}
	return summaries, nil
}

// Stats rolls all stored snapshots for the scope into running totals. It
// returns nil when no snapshots exist.
func (r *SummaryRepository) Stats(ctx context.Context, userID, courseID, termID string) (*models.SummaryStats, error) {
	query := `SELECT COUNT(*) AS snapshot_count,
            COALESCE(SUM(total_assignments), 0) AS total_assignments,
            COALESCE(SUM(completed_assignments), 0) AS completed_assignments,
            COALESCE(SUM(pending_assignments), 0) AS pending_assignments,
            COALESCE(SUM(overdue_assignments), 0) AS overdue_assignments,
            COALESCE(SUM(graded_assignments), 0) AS graded_assignments,
            SUM(average_grade * graded_assignments) / NULLIF(SUM(graded_assignments), 0) AS average_grade,
            COALESCE(SUM(grades_a), 0) AS grades_a, COALESCE(SUM(grades_b), 0) AS grades_b,
            COALESCE(SUM(grades_c), 0) AS grades_c, COALESCE(SUM(grades_d), 0) AS grades_d,
            COALESCE(SUM(grades_f), 0) AS grades_f
        FROM period_summaries WHERE deleted_at IS NULL AND user_id = $1`
	args := []interface{}{userID}
	if courseID != "" {
		query += fmt.Sprintf(" AND course_id = $%d", len(args)+1)
		args = append(args, courseID)
	}
	if termID != "" {
		query += fmt.Sprintf(" AND term_id = $%d", len(args)+1)
		args = append(args, termID)
	}
	var stats models.SummaryStats
	if err := r.db.GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("summary stats: %w", err)
	}
	if stats.SnapshotCount == 0 {
		return nil, nil
	}
	return &stats, nil
}
