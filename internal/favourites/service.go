// Package favourites persists favourite membership and announces each change
// on the message broker once it is stored.
package favourites

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/shared/rabbitmq"
	"github.com/google/uuid"
)

const (
	ActionAdd    = "add"
	ActionRemove = "remove"

	messageType = "favourite.changed"
	contentType = "application/json"
)

// Event is the wire format of a stored favourite change
type Event struct {
	EventID    string      `json:"event_id"`
	Action     string      `json:"action"`
	UserID     string      `json:"user_id"`
	JobID      string      `json:"job_id"`
	Job        *domain.Job `json:"job,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Writer persists favourite membership
type Writer interface {
	Add(ctx context.Context, userID, jobID string) error
	Remove(ctx context.Context, userID, jobID string) error
}

// Broker publishes a message
type Broker interface {
	PublishWithRetry(ctx context.Context, msg rabbitmq.Message) error
}

// Invalidator drops cached per-viewer job state
type Invalidator interface {
	Invalidate(ctx context.Context, userID, jobID string) error
}

// Service implements the favourites collaborator: write, invalidate, announce
type Service struct {
	writer      Writer
	broker      Broker
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a Service. broker and invalidator may be nil.
func NewService(writer Writer, broker Broker, invalidator Invalidator, logger *slog.Logger) *Service {
	return &Service{
		writer:      writer,
		broker:      broker,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// AddFavourite stores the job as a favourite of userID
func (s *Service) AddFavourite(ctx context.Context, userID string, job domain.Job) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.writer.Add(ctx, userID, job.ID); err != nil {
		return fmt.Errorf("add favourite: %w", err)
	}

	job.IsFavourite = true
	s.afterWrite(ctx, Event{Action: ActionAdd, UserID: userID, JobID: job.ID, Job: &job})
	return nil
}

// RemoveFavourite drops the job from the favourites of userID
func (s *Service) RemoveFavourite(ctx context.Context, userID, jobID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.writer.Remove(ctx, userID, jobID); err != nil {
		return fmt.Errorf("remove favourite: %w", err)
	}

	s.afterWrite(ctx, Event{Action: ActionRemove, UserID: userID, JobID: jobID})
	return nil
}

// afterWrite runs once the row is stored. Its failures are logged only:
// the change is already durable.
func (s *Service) afterWrite(ctx context.Context, evt Event) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, evt.UserID, evt.JobID); err != nil {
			s.logger.Warn("Failed to invalidate cached job",
				slog.String("job_id", evt.JobID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.broker == nil {
		return
	}

	evt.EventID = uuid.New().String()
	evt.OccurredAt = s.now().UTC()

	body, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("Failed to marshal favourite event",
			slog.String("job_id", evt.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	err = s.broker.PublishWithRetry(ctx, rabbitmq.Message{
		Body:        body,
		ContentType: contentType,
		MessageID:   evt.EventID,
		Type:        messageType,
	})
	if err != nil {
		s.logger.Warn("Failed to publish favourite event",
			slog.String("event_id", evt.EventID),
			slog.String("action", evt.Action),
			slog.String("job_id", evt.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("Favourite event published",
		slog.String("event_id", evt.EventID),
		slog.String("action", evt.Action),
		slog.String("user_id", evt.UserID),
		slog.String("job_id", evt.JobID),
	)
}
