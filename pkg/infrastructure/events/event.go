package events

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Publisher records state changes for the activity feed
type Publisher interface {
	Publish(ctx context.Context, orgID uuid.UUID, eventType entities.ActivityType, entityID uuid.UUID, summary string, data map[string]any) error
}

// EventHandler reacts to published events
type EventHandler interface {
	Handle(ctx context.Context, event *entities.ActivityEvent) error
	CanHandle(eventType entities.ActivityType) bool
}

// HandlerFunc adapts a function to EventHandler for every event type
type HandlerFunc func(ctx context.Context, event *entities.ActivityEvent) error

func (f HandlerFunc) Handle(ctx context.Context, event *entities.ActivityEvent) error {
	return f(ctx, event)
}

func (f HandlerFunc) CanHandle(entities.ActivityType) bool { return true }

// Discard drops every event
type Discard struct{}

func (Discard) Publish(context.Context, uuid.UUID, entities.ActivityType, uuid.UUID, string, map[string]any) error {
	return nil
}
