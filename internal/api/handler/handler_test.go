package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard/internal/api/web"
	"github.com/cuongbtq/jobboard/internal/content"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/gin-gonic/gin"
)

const (
	testJobID    = "job-1"
	testLogoURL  = "https://cdn.example.com/acme.png"
	fallbackLogo = "/static/images/broken-image.svg"
)

type stubFetcher struct {
	jobs map[string]domain.Job
	err  error
}

func (f *stubFetcher) GetJobByID(_ context.Context, userID, jobID string) (domain.Job, error) {
	if f.err != nil {
		return domain.Job{}, f.err
	}
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}

type recordingFavourites struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *recordingFavourites) AddFavourite(_ context.Context, userID string, job domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "add:"+userID+":"+job.ID)
	return f.err
}

func (f *recordingFavourites) RemoveFavourite(_ context.Context, userID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "remove:"+userID+":"+jobID)
	return f.err
}

func (f *recordingFavourites) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testJob() domain.Job {
	return domain.Job{
		ID:          testJobID,
		Title:       "Backend Engineer",
		Company:     "Acme",
		CompanyURL:  "https://acme.example.com",
		CompanyLogo: testLogoURL,
		Location:    "Remote",
		Type:        "Full Time",
		CreatedAt:   time.Now().Add(-3 * 24 * time.Hour),
		Description: "<script>alert(1)</script>We write **Go**.",
		HowToApply:  "Email <a href=\"mailto:jobs@acme.example.com\">jobs</a>",
	}
}

func signedInUser() domain.User {
	return domain.User{ID: "user-1", IsAuthenticated: true}
}

func newTestDeps(fetcher *stubFetcher, favs *recordingFavourites) *Dependencies {
	return &Dependencies{
		Logger:       logger.NewNop().Logger,
		Fetcher:      fetcher,
		Favourites:   favs,
		Formatter:    content.NewFormatter(content.Options{}),
		FallbackLogo: fallbackLogo,
		FetchTimeout: time.Second,
	}
}

// newTestEngine wires the job routes with the viewer fixed to user
func newTestEngine(deps *Dependencies, user domain.User) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(func(c *gin.Context) {
		if user.IsAuthenticated {
			c.Set(ContextUserKey, user)
		}
		c.Next()
	})

	h := NewJobHandler(deps)
	r.GET("/jobs/:job_id", h.ShowJobPage)
	r.POST("/jobs/:job_id/favourite", h.ToggleFavouriteForm)
	r.GET("/jobs/:job_id/live", h.LiveJob)
	r.GET("/api/v1/jobs/:job_id", h.GetJob)
	r.POST("/api/v1/jobs/:job_id/favourite", h.ToggleFavourite)
	r.GET("/health", Health("test", deps.HealthChecks))
	return r
}

var errBackend = errors.New("backend unavailable")

// favouriteBackend serves the favourite flag from the rows its own
// AddFavourite/RemoveFavourite maintain
type favouriteBackend struct {
	mu    sync.Mutex
	jobs  map[string]domain.Job
	rows  map[string]bool
	calls []string

	entered chan struct{} // when set, AddFavourite signals then waits on release
	release chan struct{}
}

func newFavouriteBackend(jobs ...domain.Job) *favouriteBackend {
	b := &favouriteBackend{jobs: map[string]domain.Job{}, rows: map[string]bool{}}
	for _, job := range jobs {
		b.jobs[job.ID] = job
	}
	return b
}

func (b *favouriteBackend) GetJobByID(_ context.Context, userID, jobID string) (domain.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	job.IsFavourite = b.rows[userID+"/"+jobID]
	return job, nil
}

func (b *favouriteBackend) AddFavourite(_ context.Context, userID string, job domain.Job) error {
	if b.entered != nil {
		close(b.entered)
		<-b.release
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "add:"+userID+":"+job.ID)
	b.rows[userID+"/"+job.ID] = true
	return nil
}

func (b *favouriteBackend) RemoveFavourite(_ context.Context, userID, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, "remove:"+userID+":"+jobID)
	delete(b.rows, userID+"/"+jobID)
	return nil
}

func (b *favouriteBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func newBackendDeps(b *favouriteBackend) *Dependencies {
	deps := newTestDeps(&stubFetcher{}, &recordingFavourites{})
	deps.Fetcher = b
	deps.Favourites = b
	return deps
}
