package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const changeLogColumns = `id, user_id, metric_type, change_type, field_name, previous_value,
        new_value, reason, changed_at, created_at, deleted_at`

// ChangeLogRepository appends and reads the user change audit trail.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository creates a new change log repository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Append writes one audit entry. Entries are immutable once written.
func (r *ChangeLogRepository) Append(ctx context.Context, entry *models.UserChangeLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = now
	}
	if entry.MetricType == "" {
		entry.MetricType = models.MetricTypeUserChangeLog
	}
	const query = `INSERT INTO user_change_logs (id, user_id, metric_type, change_type, field_name,
            previous_value, new_value, reason, changed_at, created_at)
        VALUES (:id, :user_id, :metric_type, :change_type, :field_name,
            :previous_value, :new_value, :reason, :changed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append change log: %w", err)
	}
	return nil
}

// List returns audit entries, most recent first.
func (r *ChangeLogRepository) List(ctx context.Context, filter models.ChangeLogFilter) ([]models.UserChangeLog, error) {
	query := fmt.Sprintf("SELECT %s FROM user_change_logs WHERE deleted_at IS NULL", changeLogColumns)
	var args []interface{}
	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", len(args)+1)
		args = append(args, filter.UserID)
	}
	if filter.ChangeType != "" {
		query += fmt.Sprintf(" AND change_type = $%d", len(args)+1)
		args = append(args, filter.ChangeType)
	}
	query += " ORDER BY changed_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	var entries []models.UserChangeLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list change logs: %w", err)
	}
	return entries, nil
}
