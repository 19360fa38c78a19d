// Package jobdetail implements the job detail view: a single job fetch per
// mount, a loading/detail/not-found decision, and the favourite toggle.
package jobdetail

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/elapsed"
	"github.com/cuongbtq/jobboard/internal/store"
)

// DefaultFallbackLogo is shown until the company logo has loaded
const DefaultFallbackLogo = "/static/images/broken-image.svg"

// Dispatcher is the subset of the state container a view talks to
type Dispatcher interface {
	State() store.State
	GetJobByID(ctx context.Context, userID, jobID string) error
	ToggleIsFavourite()
	AddFavouritePost(ctx context.Context, userID string, job domain.Job) error
	RemoveFavouritePost(ctx context.Context, userID, jobID string) error
}

// Formatter turns raw job text into injectable HTML
type Formatter interface {
	Format(raw string) (template.HTML, error)
}

// Config holds view dependencies
type Config struct {
	Store        Dispatcher
	Formatter    Formatter
	Logger       *slog.Logger
	FallbackLogo string
	Now          func() time.Time
	// InFlight is shared by every view of a process so concurrent toggles of
	// the same viewer and job are rejected; nil guards this view only
	InFlight *InFlight
}

// View is one mounted job detail view
type View struct {
	store        Dispatcher
	formatter    Formatter
	logger       *slog.Logger
	fallbackLogo string
	now          func() time.Time
	inFlight     *InFlight

	jobID string

	mu          sync.Mutex
	isLoading   bool
	imageLoaded bool
	mounted     bool
	unmounted   bool
	settled     chan struct{}
}

// NewView creates a view bound to jobID
func NewView(cfg *Config, jobID string) *View {
	fallback := cfg.FallbackLogo
	if fallback == "" {
		fallback = DefaultFallbackLogo
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	inFlight := cfg.InFlight
	if inFlight == nil {
		inFlight = NewInFlight()
	}

	return &View{
		store:        cfg.Store,
		formatter:    cfg.Formatter,
		logger:       cfg.Logger,
		fallbackLogo: fallback,
		now:          now,
		inFlight:     inFlight,
		jobID:        jobID,
		settled:      make(chan struct{}),
	}
}

// JobID returns the identifier the view is bound to
func (v *View) JobID() string {
	return v.jobID
}

// Mount issues the job fetch. Only the first call fetches; every call returns
// a channel closed once that fetch has settled.
func (v *View) Mount(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.mounted {
		return v.settled
	}
	v.mounted = true
	v.isLoading = true

	userID := v.store.State().User.ID

	go func() {
		defer close(v.settled)

		err := v.store.GetJobByID(ctx, userID, v.jobID)

		v.mu.Lock()
		defer v.mu.Unlock()
		if v.unmounted {
			v.logger.Debug("Job fetch settled after unmount",
				slog.String("job_id", v.jobID),
			)
			return
		}
		v.isLoading = false
		if err != nil {
			v.logger.Debug("Job fetch failed",
				slog.String("job_id", v.jobID),
				slog.String("error", err.Error()),
			)
		}
	}()

	return v.settled
}

// Unmount tears the view down; a fetch settling afterwards leaves it untouched
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.unmounted = true
}

// IsLoading reports whether the fetch is still outstanding
func (v *View) IsLoading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.isLoading
}

// OnImageLoad records the logo image load event
func (v *View) OnImageLoad() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.imageLoaded = true
}

// LogoSrc returns the real logo once loaded, otherwise the fallback asset
func (v *View) LogoSrc() string {
	v.mu.Lock()
	imageLoaded := v.imageLoaded
	v.mu.Unlock()

	logo := v.store.State().CurrentJob.CompanyLogo
	if imageLoaded && logo != "" {
		return logo
	}
	return v.fallbackLogo
}

// Render builds the page for the current view and store state
func (v *View) Render() (Page, error) {
	if v.IsLoading() {
		return Page{Kind: PageLoading, JobID: v.jobID}, nil
	}

	state := v.store.State()
	job := state.CurrentJob
	if job.Title == "" {
		return Page{Kind: PageNotFound, JobID: v.jobID, Message: NotFoundMessage}, nil
	}

	description, err := v.formatter.Format(job.Description)
	if err != nil {
		return Page{}, fmt.Errorf("failed to format description: %w", err)
	}
	howToApply, err := v.formatter.Format(job.HowToApply)
	if err != nil {
		return Page{}, fmt.Errorf("failed to format how to apply: %w", err)
	}

	return Page{
		Kind:  PageDetail,
		JobID: v.jobID,
		Detail: &Detail{
			Title:         job.Title,
			Company:       job.Company,
			CompanyURL:    job.CompanyURL,
			LogoSrc:       v.LogoSrc(),
			LogoURL:       job.CompanyLogo,
			Location:      job.Location,
			Type:          job.Type,
			Elapsed:       elapsed.Since(job.CreatedAt, v.now()),
			Description:   description,
			HowToApply:    howToApply,
			ShowFavourite: state.User.IsAuthenticated,
			IsFavourite:   job.IsFavourite,
		},
	}, nil
}
