package favourites

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// foreignKeyViolation is the postgres error code raised when the job row is gone
const foreignKeyViolation = "23503"

// Repository stores favourite membership in the favourites table
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new Repository instance
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Add marks jobID as a favourite of userID. Adding twice is a no-op.
func (r *Repository) Add(ctx context.Context, userID, jobID string) error {
	query := `
		INSERT INTO favourites (user_id, job_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, job_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return domain.ErrJobNotFound
		}
		return fmt.Errorf("failed to insert favourite: %w", err)
	}

	return nil
}

// Remove drops jobID from the favourites of userID. Removing a missing row is a no-op.
func (r *Repository) Remove(ctx context.Context, userID, jobID string) error {
	query := `
		DELETE FROM favourites
		WHERE user_id = $1 AND job_id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("failed to delete favourite: %w", err)
	}

	return nil
}
