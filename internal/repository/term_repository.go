package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

const termColumns = `id, user_id, name, start_date, end_date, status, created_at, updated_at, deleted_at`

// TermRepository handles persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID returns the term with the given ID.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1 AND deleted_at IS NULL LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindActive returns the user's currently active term.
func (r *TermRepository) FindActive(ctx context.Context, userID string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE user_id = $1 AND status = $2 AND deleted_at IS NULL LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, userID, string(models.TermStatusActive)); err != nil {
		return nil, err
	}
	return &term, nil
}

// SetStatus transitions a term's lifecycle state.
func (r *TermRepository) SetStatus(ctx context.Context, id string, status models.TermStatus) error {
	const query = `UPDATE terms SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set term status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("term %s not found", id)
	}
	return nil
}
