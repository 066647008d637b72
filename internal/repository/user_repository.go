package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const userColumns = `id, subject, email, full_name, current_gpa, institution_gpa, predicted_term_gpa,
        transfer_gpa, transfer_credits, total_credits_earned, total_credits_attempted,
        completed_assignments, total_assignments, created_at, updated_at, deleted_at`

// UserRepository reads planner accounts and patches their cached aggregates.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns the user with the given ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindBySubject returns the user owning the auth-provider subject.
func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE subject = $1 AND deleted_at IS NULL LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, subject); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindFirst returns the oldest account. Query endpoints fall back to it when
// no identity is present (demo mode).
func (r *UserRepository) FindFirst(ctx context.Context) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE deleted_at IS NULL ORDER BY created_at ASC LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query); err != nil {
		return nil, err
	}
	return &user, nil
}

// aggregateColumns is the closed set of user fields this service may patch.
var aggregateColumns = map[string]bool{
	"current_gpa":             true,
	"institution_gpa":         true,
	"predicted_term_gpa":      true,
	"transfer_gpa":            true,
	"transfer_credits":        true,
	"total_credits_earned":    true,
	"total_credits_attempted": true,
}

// PatchAggregates updates the provided aggregate columns on the user row.
// Column names outside the allow-list are rejected.
func (r *UserRepository) PatchAggregates(ctx context.Context, userID string, fields map[string]float64) error {
	if len(fields) == 0 {
		return nil
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !aggregateColumns[column] {
			return fmt.Errorf("column %s not patchable", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+2)
	for _, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, fields[column])
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d AND deleted_at IS NULL", strings.Join(sets, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch user aggregates: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}
