package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const gpaSnapshotColumns = `id, user_id, term_id, metric_type, transfer_gpa, transfer_credits,
        institution_gpa, predicted_term_gpa, overall_gpa, credits_earned, credits_attempted,
        calculation_method, calculated_at, created_at, deleted_at`

// GPASnapshotRepository persists the append-only GPA calculation history.
type GPASnapshotRepository struct {
	db *sqlx.DB
}

// NewGPASnapshotRepository creates a new GPA snapshot repository.
func NewGPASnapshotRepository(db *sqlx.DB) *GPASnapshotRepository {
	return &GPASnapshotRepository{db: db}
}

// Insert appends a new history row. Snapshots are never updated.
func (r *GPASnapshotRepository) Insert(ctx context.Context, snapshot *models.GPASnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = now
	}
	if snapshot.CalculatedAt.IsZero() {
		snapshot.CalculatedAt = now
	}
	const query = `INSERT INTO gpa_snapshots (id, user_id, term_id, metric_type, transfer_gpa,
            transfer_credits, institution_gpa, predicted_term_gpa, overall_gpa, credits_earned,
            credits_attempted, calculation_method, calculated_at, created_at)
        VALUES (:id, :user_id, :term_id, :metric_type, :transfer_gpa,
            :transfer_credits, :institution_gpa, :predicted_term_gpa, :overall_gpa, :credits_earned,
            :credits_attempted, :calculation_method, :calculated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("insert gpa snapshot: %w", err)
	}
	return nil
}

// List returns GPA history rows, most recent first.
func (r *GPASnapshotRepository) List(ctx context.Context, filter models.GPASnapshotFilter) ([]models.GPASnapshot, error) {
	query := fmt.Sprintf("SELECT %s FROM gpa_snapshots WHERE deleted_at IS NULL", gpaSnapshotColumns)
	var args []interface{}
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.TermID != "" {
		query += fmt.Sprintf(" AND term_id = $%d", len(args)+1)
		args = append(args, filter.TermID)
	}
	query += " ORDER BY calculated_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	var snapshots []models.GPASnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("list gpa snapshots: %w", err)
	}
	return snapshots, nil
}
