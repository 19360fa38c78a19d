package jobsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Storage reads jobs from PostgreSQL
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a Storage on top of an open connection
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// GetJobByID loads a job and whether userID has it in their favourites.
// An empty userID never has favourites.
func (s *Storage) GetJobByID(ctx context.Context, userID, jobID string) (domain.Job, error) {
	query := `
		SELECT
			j.id,
			j.title,
			COALESCE(j.company, '')      AS company,
			COALESCE(j.company_url, '')  AS company_url,
			COALESCE(j.company_logo, '') AS company_logo,
			COALESCE(j.location, '')     AS location,
			COALESCE(j.type, '')         AS type,
			j.created_at,
			COALESCE(j.description, '')  AS description,
			COALESCE(j.how_to_apply, '') AS how_to_apply,
			EXISTS (
				SELECT 1 FROM favourites f
				WHERE f.job_id = j.id AND f.user_id = $1
			) AS is_favourite
		FROM jobs j
		WHERE j.id = $2
	`

	var job domain.Job
	err := s.db.GetContext(ctx, &job, query, userID, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Job{}, domain.ErrJobNotFound
		}
		return domain.Job{}, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}
