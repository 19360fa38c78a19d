package jobdetail

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard/internal/content"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/store"
	"github.com/cuongbtq/jobboard/shared/logger"
)

type fetchCall struct {
	UserID string
	JobID  string
}

type fakeFetcher struct {
	mu      sync.Mutex
	job     domain.Job
	err     error
	release chan struct{} // when set, fetches block until closed
	calls   []fetchCall
}

func (f *fakeFetcher) GetJobByID(ctx context.Context, userID, jobID string) (domain.Job, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{UserID: userID, JobID: jobID})
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.Job{}, ctx.Err()
		}
	}
	return f.job, f.err
}

func (f *fakeFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

type favouriteCall struct {
	Action string
	UserID string
	JobID  string
	Job    domain.Job
}

type fakeFavourites struct {
	mu    sync.Mutex
	err   error
	calls []favouriteCall
}

func (f *fakeFavourites) AddFavourite(_ context.Context, userID string, job domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, favouriteCall{Action: "add", UserID: userID, JobID: job.ID, Job: job})
	return f.err
}

func (f *fakeFavourites) RemoveFavourite(_ context.Context, userID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, favouriteCall{Action: "remove", UserID: userID, JobID: jobID})
	return f.err
}

func (f *fakeFavourites) Calls() []favouriteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]favouriteCall(nil), f.calls...)
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func backendEngineer() domain.Job {
	return domain.Job{
		ID:          "42",
		Title:       "Backend Engineer",
		Company:     "Acme",
		CompanyURL:  "https://acme.example",
		CompanyLogo: "https://acme.example/logo.png",
		Location:    "Remote",
		Type:        "Full Time",
		CreatedAt:   fixedNow.Add(-3 * 24 * time.Hour),
		Description: "<script>alert(1)</script>**bold**",
		HowToApply:  "Email [us](mailto:jobs@acme.example)",
	}
}

func signedIn() domain.User {
	return domain.User{ID: "user-1", IsAuthenticated: true}
}

func newTestView(user domain.User, fetcher store.JobFetcher, favs store.Favourites, jobID string) (*View, *store.Store) {
	return newSharedTestView(user, fetcher, favs, jobID, nil)
}

// newSharedTestView builds a view whose toggle guard is shared with others
func newSharedTestView(user domain.User, fetcher store.JobFetcher, favs store.Favourites, jobID string, inFlight *InFlight) (*View, *store.Store) {
	log := logger.NewNop().Logger
	st := store.New(user, fetcher, favs, log)
	v := NewView(&Config{
		Store:     st,
		Formatter: content.NewFormatter(content.Options{}),
		Logger:    log,
		Now:       func() time.Time { return fixedNow },
		InFlight:  inFlight,
	}, jobID)
	return v, st
}
