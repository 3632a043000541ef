package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// ActivityRepository is an append-only in-memory activity log per org
type ActivityRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]*entities.ActivityEvent
}

// NewActivityRepository creates an empty activity log
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{events: make(map[uuid.UUID][]*entities.ActivityEvent)}
}

var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

func cloneEvent(e *entities.ActivityEvent) *entities.ActivityEvent {
	c := *e
	if e.Data != nil {
		c.Data = make(map[string]any, len(e.Data))
		for k, v := range e.Data {
			c.Data[k] = v
		}
	}
	return &c
}

func (r *ActivityRepository) Append(ctx context.Context, e *entities.ActivityEvent) error {
	if e.OrgID == uuid.Nil {
		return entities.ErrTenantRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[e.OrgID] = append(r.events[e.OrgID], cloneEvent(e))
	return nil
}

// Recent returns up to limit events, newest first
func (r *ActivityRepository) Recent(ctx context.Context, orgID uuid.UUID, limit int, types []entities.ActivityType) ([]*entities.ActivityEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[entities.ActivityType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	log := r.events[orgID]
	out := make([]*entities.ActivityEvent, 0, limit)
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		if len(want) > 0 && !want[log[i].Type] {
			continue
		}
		out = append(out, cloneEvent(log[i]))
	}
	return out, nil
}
