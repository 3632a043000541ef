package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Publisher records state changes for the activity feed
type Publisher interface {
	Publish(ctx context.Context, orgID uuid.UUID, eventType entities.ActivityType, entityID uuid.UUID, summary string, data map[string]any) error
}

// Emit publishes and logs failures; the activity feed never fails a
// business operation
func Emit(ctx context.Context, p Publisher, orgID uuid.UUID, eventType entities.ActivityType, entityID uuid.UUID, summary string, data map[string]any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, orgID, eventType, entityID, summary, data); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event_type", string(eventType)).
			Str("entity_id", entityID.String()).
			Msg("failed to publish activity")
	}
}
