package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/auth"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/jobdetail"
	"github.com/cuongbtq/jobboard/internal/store"
	"github.com/gin-gonic/gin"
)

// ContextUserKey is the gin context key holding the current viewer
const ContextUserKey = "viewer"

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	Fetcher        store.JobFetcher
	Favourites     store.Favourites
	Formatter      jobdetail.Formatter
	Verifier       auth.Verifier
	CookieName     string
	AllowedOrigins []string
	FallbackLogo   string
	FetchTimeout   time.Duration
	HealthChecks   map[string]HealthCheck
}

// JobHandler serves the job detail page and its API
type JobHandler struct {
	logger       *slog.Logger
	fetcher      store.JobFetcher
	favourites   store.Favourites
	formatter    jobdetail.Formatter
	fallbackLogo string
	fetchTimeout time.Duration
	inFlight     *jobdetail.InFlight
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	fetchTimeout := deps.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Second
	}

	return &JobHandler{
		logger:       deps.Logger,
		fetcher:      deps.Fetcher,
		favourites:   deps.Favourites,
		formatter:    deps.Formatter,
		fallbackLogo: deps.FallbackLogo,
		fetchTimeout: fetchTimeout,
		inFlight:     jobdetail.NewInFlight(),
	}
}

// newView builds a fresh state container and view for one viewer session
func (h *JobHandler) newView(user domain.User, jobID string) (*jobdetail.View, *store.Store) {
	st := store.New(user, h.fetcher, h.favourites, h.logger)
	v := jobdetail.NewView(&jobdetail.Config{
		Store:        st,
		Formatter:    h.formatter,
		Logger:       h.logger,
		FallbackLogo: h.fallbackLogo,
		InFlight:     h.inFlight,
	}, jobID)
	return v, st
}

// mountAndWait mounts the view and blocks until the fetch settles or the
// fetch timeout elapses
func (h *JobHandler) mountAndWait(ctx context.Context, v *jobdetail.View) {
	ctx, cancel := context.WithTimeout(ctx, h.fetchTimeout)
	defer cancel()

	select {
	case <-v.Mount(ctx):
	case <-ctx.Done():
	}
}

// CurrentUser returns the viewer set by the auth middleware
func CurrentUser(c *gin.Context) domain.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(domain.User); ok {
			return user
		}
	}
	return domain.Anonymous()
}
