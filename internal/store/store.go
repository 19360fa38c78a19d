// Package store holds the state a job detail view reads: the viewer, the
// current job and the viewer's favourites. Views never mutate it directly;
// they dispatch commands and subscribe to snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// JobFetcher loads a job for a given viewer
type JobFetcher interface {
	GetJobByID(ctx context.Context, userID, jobID string) (domain.Job, error)
}

// Favourites persists favourite membership
type Favourites interface {
	AddFavourite(ctx context.Context, userID string, job domain.Job) error
	RemoveFavourite(ctx context.Context, userID, jobID string) error
}

// State is a snapshot of the store
type State struct {
	User       domain.User
	CurrentJob domain.Job
	Favourites []domain.Job
}

// Store is the state container for one viewer session
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]chan State
	nextID int

	fetcher    JobFetcher
	favourites Favourites
	logger     *slog.Logger
}

// New creates a Store for the given viewer
func New(user domain.User, fetcher JobFetcher, favourites Favourites, logger *slog.Logger) *Store {
	return &Store{
		state:      State{User: user},
		subs:       make(map[int]chan State),
		fetcher:    fetcher,
		favourites: favourites,
		logger:     logger,
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change.
// A slow subscriber only ever sees the latest snapshot.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// SetUser replaces the viewer
func (s *Store) SetUser(user domain.User) {
	s.update(func(st *State) {
		st.User = user
	})
}

// GetJobByID fetches a job into CurrentJob. On failure CurrentJob is reset to
// the zero job and the error is returned.
func (s *Store) GetJobByID(ctx context.Context, userID, jobID string) error {
	job, err := s.fetcher.GetJobByID(ctx, userID, jobID)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, domain.ErrJobNotFound) {
			level = slog.LevelInfo
		}
		s.logger.Log(ctx, level, "Failed to load job",
			slog.String("job_id", jobID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s.update(func(st *State) {
			st.CurrentJob = domain.Job{}
		})
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	s.update(func(st *State) {
		st.CurrentJob = job
	})
	return nil
}

// ToggleIsFavourite flips the favourite flag of the current job
func (s *Store) ToggleIsFavourite() {
	s.update(func(st *State) {
		st.CurrentJob.IsFavourite = !st.CurrentJob.IsFavourite
	})
}

// AddFavouritePost persists the job as a favourite and records it locally
func (s *Store) AddFavouritePost(ctx context.Context, userID string, job domain.Job) error {
	if err := s.favourites.AddFavourite(ctx, userID, job); err != nil {
		return fmt.Errorf("failed to add favourite: %w", err)
	}

	job.IsFavourite = true
	s.update(func(st *State) {
		for _, fav := range st.Favourites {
			if fav.ID == job.ID {
				return
			}
		}
		st.Favourites = append(st.Favourites, job)
	})
	return nil
}

// RemoveFavouritePost removes the job from favourites
func (s *Store) RemoveFavouritePost(ctx context.Context, userID, jobID string) error {
	if err := s.favourites.RemoveFavourite(ctx, userID, jobID); err != nil {
		return fmt.Errorf("failed to remove favourite: %w", err)
	}

	s.update(func(st *State) {
		kept := st.Favourites[:0]
		for _, fav := range st.Favourites {
			if fav.ID != jobID {
				kept = append(kept, fav)
			}
		}
		st.Favourites = kept
	})
	return nil
}

// update applies fn and notifies subscribers while holding the lock,
// so snapshots are delivered in dispatch order.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.state)
	snapshot := s.snapshotLocked()

	for _, ch := range s.subs {
		// drop a stale unread snapshot in favour of the newest one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (s *Store) snapshotLocked() State {
	snapshot := s.state
	snapshot.Favourites = append([]domain.Job(nil), s.state.Favourites...)
	return snapshot
}
