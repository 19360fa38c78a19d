package jobsource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/favourites"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingFetcher struct {
	job   domain.Job
	err   error
	calls int
}

func (c *countingFetcher) GetJobByID(context.Context, string, string) (domain.Job, error) {
	c.calls++
	return c.job, c.err
}

func testJob() domain.Job {
	return domain.Job{
		ID:        "42",
		Title:     "Backend Engineer",
		Company:   "Acme",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "jobs:detail:42:user:u1", CacheKey("u1", "42"))
	assert.Equal(t, "jobs:detail:42:user:anonymous", CacheKey("", "42"))
}

func TestCached_ReadThrough(t *testing.T) {
	kv := newMemoryKV()
	source := &countingFetcher{job: testJob()}
	cached := NewCached(source, kv, time.Minute, logger.NewNop().Logger)

	first, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	second, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, kv.ttls[CacheKey("u1", "42")])

	// a different viewer has its own entry
	_, err = cached.GetJobByID(context.Background(), "u2", "42")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCached_Invalidate(t *testing.T) {
	kv := newMemoryKV()
	source := &countingFetcher{job: testJob()}
	cached := NewCached(source, kv, time.Minute, logger.NewNop().Logger)

	_, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(context.Background(), "u1", "42"))

	_, err = cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	kv := newMemoryKV()
	source := &countingFetcher{err: domain.ErrJobNotFound}
	cached := NewCached(source, kv, time.Minute, logger.NewNop().Logger)

	_, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.Empty(t, kv.data)
}

func TestCached_BackendFailureFallsThrough(t *testing.T) {
	kv := newMemoryKV()
	kv.getErr = errors.New("connection refused")
	source := &countingFetcher{job: testJob()}
	cached := NewCached(source, kv, time.Minute, logger.NewNop().Logger)

	job, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	assert.Equal(t, "Backend Engineer", job.Title)
	assert.Equal(t, 1, source.calls)
}

func TestCached_CorruptEntryIsReplaced(t *testing.T) {
	kv := newMemoryKV()
	kv.data[CacheKey("u1", "42")] = []byte("{not json")
	source := &countingFetcher{job: testJob()}
	cached := NewCached(source, kv, time.Minute, logger.NewNop().Logger)

	job, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", job.ID)
	assert.Equal(t, 1, source.calls)
}

// favouriteTable is a job source whose favourite flag comes from rows the
// favourites writer maintains
type favouriteTable struct {
	mu    sync.Mutex
	job   domain.Job
	rows  map[string]bool
	reads int
}

func (f *favouriteTable) GetJobByID(_ context.Context, userID, jobID string) (domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	job := f.job
	job.IsFavourite = f.rows[userID+"/"+jobID]
	return job, nil
}

func (f *favouriteTable) Add(_ context.Context, userID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID+"/"+jobID] = true
	return nil
}

func (f *favouriteTable) Remove(_ context.Context, userID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, userID+"/"+jobID)
	return nil
}

func TestCached_StaleUntilInvalidated(t *testing.T) {
	kv := newMemoryKV()
	table := &favouriteTable{job: testJob(), rows: map[string]bool{}}
	cached := NewCached(table, kv, time.Hour, logger.NewNop().Logger)

	job, err := cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	require.False(t, job.IsFavourite)

	// a write that skips invalidation keeps serving the cached flag
	require.NoError(t, table.Add(context.Background(), "u1", "42"))
	job, err = cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	assert.False(t, job.IsFavourite)

	require.NoError(t, cached.Invalidate(context.Background(), "u1", "42"))
	job, err = cached.GetJobByID(context.Background(), "u1", "42")
	require.NoError(t, err)
	assert.True(t, job.IsFavourite)
}

func TestCached_ToggleThenReload(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	table := &favouriteTable{job: testJob(), rows: map[string]bool{}}
	cached := NewCached(table, kv, time.Hour, logger.NewNop().Logger)
	service := favourites.NewService(table, nil, cached, logger.NewNop().Logger)

	job, err := cached.GetJobByID(ctx, "u1", "42")
	require.NoError(t, err)
	require.False(t, job.IsFavourite)

	require.NoError(t, service.AddFavourite(ctx, "u1", job))
	job, err = cached.GetJobByID(ctx, "u1", "42")
	require.NoError(t, err)
	assert.True(t, job.IsFavourite)

	require.NoError(t, service.RemoveFavourite(ctx, "u1", "42"))
	job, err = cached.GetJobByID(ctx, "u1", "42")
	require.NoError(t, err)
	assert.False(t, job.IsFavourite)

	// other viewers keep their own entry
	other, err := cached.GetJobByID(ctx, "u2", "42")
	require.NoError(t, err)
	assert.False(t, other.IsFavourite)
	assert.Equal(t, 4, table.reads)
}
