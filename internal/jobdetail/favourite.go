package jobdetail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// ToggleFavourite adds or removes the current job from the viewer's
// favourites. The flag only flips once the mutation succeeded; a failed
// mutation leaves it as it was and returns the error.
func (v *View) ToggleFavourite(ctx context.Context) error {
	state := v.store.State()
	if !state.User.IsAuthenticated {
		return domain.ErrNotAuthenticated
	}

	userID := state.User.ID
	job := state.CurrentJob

	key := toggleKey(userID, v.jobID)
	if !v.inFlight.acquire(key) {
		return domain.ErrToggleInFlight
	}
	defer v.inFlight.release(key)

	if job.IsFavourite {
		if err := v.store.RemoveFavouritePost(ctx, userID, job.ID); err != nil {
			v.logger.Error("Failed to remove favourite",
				slog.String("user_id", userID),
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("toggle favourite: %w", err)
		}
	} else {
		if err := v.store.AddFavouritePost(ctx, userID, job); err != nil {
			v.logger.Error("Failed to add favourite",
				slog.String("user_id", userID),
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("toggle favourite: %w", err)
		}
	}

	v.store.ToggleIsFavourite()

	v.logger.Info("Favourite toggled",
		slog.String("user_id", userID),
		slog.String("job_id", job.ID),
		slog.Bool("is_favourite", !job.IsFavourite),
	)
	return nil
}

// InFlight tracks favourite toggles in progress per viewer and job
type InFlight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewInFlight creates an empty InFlight
func NewInFlight() *InFlight {
	return &InFlight{keys: make(map[string]struct{})}
}

func (f *InFlight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *InFlight) release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
}

func toggleKey(userID, jobID string) string {
	return userID + "\x00" + jobID
}
