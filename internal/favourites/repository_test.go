package favourites

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertFavourite = "INSERT INTO favourites (user_id, job_id) VALUES ($1, $2) ON CONFLICT (user_id, job_id) DO NOTHING"
	deleteFavourite = "DELETE FROM favourites WHERE user_id = $1 AND job_id = $2"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestRepository_Add(t *testing.T) {
	tests := []struct {
		name        string
		execErr     error
		expectedErr error
	}{
		{name: "inserts row"},
		{
			name:        "job removed meanwhile",
			execErr:     &pq.Error{Code: "23503"},
			expectedErr: domain.ErrJobNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			exec := mock.ExpectExec(regexp.QuoteMeta(insertFavourite)).WithArgs("user-1", "job-1")
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := repo.Add(context.Background(), "user-1", "job-1")

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_AddOtherFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta(insertFavourite)).
		WithArgs("user-1", "job-1").
		WillReturnError(errors.New("connection refused"))

	err := repo.Add(context.Background(), "user-1", "job-1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrJobNotFound)
	assert.Contains(t, err.Error(), "failed to insert favourite")
}

func TestRepository_Remove(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteFavourite)).
		WithArgs("user-1", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Remove(context.Background(), "user-1", "job-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
