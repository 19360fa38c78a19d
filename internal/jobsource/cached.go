package jobsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// Fetcher loads a job for a viewer
type Fetcher interface {
	GetJobByID(ctx context.Context, userID, jobID string) (domain.Job, error)
}

// KV is the cache backend, satisfied by shared/redis.Client
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cached is a read-through cache in front of a Fetcher. Entries are per
// viewer because the favourite flag is.
type Cached struct {
	next   Fetcher
	kv     KV
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a cache
func NewCached(next Fetcher, kv KV, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, kv: kv, ttl: ttl, logger: logger}
}

// CacheKey returns the key a job is cached under for a viewer
func CacheKey(userID, jobID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("jobs:detail:%s:user:%s", jobID, userID)
}

// GetJobByID serves from cache when possible. Cache failures fall through to
// the underlying source; only successful loads are cached.
func (c *Cached) GetJobByID(ctx context.Context, userID, jobID string) (domain.Job, error) {
	key := CacheKey(userID, jobID)

	data, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Job cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		var job domain.Job
		if err := json.Unmarshal(data, &job); err == nil {
			c.logger.Debug("Job cache hit", slog.String("key", key))
			return job, nil
		}
		c.logger.Warn("Discarding corrupt job cache entry", slog.String("key", key))
	}

	job, err := c.next.GetJobByID(ctx, userID, jobID)
	if err != nil {
		return domain.Job{}, err
	}

	if data, err := json.Marshal(job); err == nil {
		if err := c.kv.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("Job cache write failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	return job, nil
}

// Invalidate drops the cached job for a viewer
func (c *Cached) Invalidate(ctx context.Context, userID, jobID string) error {
	return c.kv.Delete(ctx, CacheKey(userID, jobID))
}
