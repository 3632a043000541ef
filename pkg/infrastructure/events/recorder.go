package events

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// Recorder stamps events with monotonic ULIDs, stores them and fans them out
// to subscribers synchronously
type Recorder struct {
	repo repositories.ActivityRepository
	now  func() time.Time

	mu          sync.Mutex
	entropy     io.Reader
	subscribers []EventHandler
}

// NewRecorder creates a recorder backed by repo
func NewRecorder(repo repositories.ActivityRepository) *Recorder {
	return &Recorder{
		repo:    repo,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

var _ Publisher = (*Recorder)(nil)

// Subscribe registers a handler for future events
func (r *Recorder) Subscribe(handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, handler)
}

func (r *Recorder) newID(at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(at), r.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate event id: %w", err)
	}
	return id.String(), nil
}

// Publish appends an event. Handler failures are logged, not returned.
func (r *Recorder) Publish(ctx context.Context, orgID uuid.UUID, eventType entities.ActivityType, entityID uuid.UUID, summary string, data map[string]any) error {
	at := r.now().UTC()
	id, err := r.newID(at)
	if err != nil {
		return err
	}

	event := &entities.ActivityEvent{
		ID:       id,
		OrgID:    orgID,
		Type:     eventType,
		EntityID: entityID,
		Summary:  summary,
		Data:     data,
		At:       at,
	}
	if err := r.repo.Append(ctx, event); err != nil {
		return fmt.Errorf("failed to append activity event: %w", err)
	}

	r.mu.Lock()
	handlers := append([]EventHandler(nil), r.subscribers...)
	r.mu.Unlock()

	for _, h := range handlers {
		if !h.CanHandle(eventType) {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("event_type", string(eventType)).Msg("event handler failed")
		}
	}
	return nil
}
