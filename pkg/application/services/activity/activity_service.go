package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// Feed sizes
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Service reads the activity feed
type Service struct {
	events repositories.ActivityRepository
}

// NewService creates an activity service
func NewService(events repositories.ActivityRepository) *Service {
	return &Service{events: events}
}

// Recent returns the newest events, optionally of the given types. A zero
// limit means DefaultLimit.
func (s *Service) Recent(ctx context.Context, orgID uuid.UUID, limit int, types []entities.ActivityType) ([]*entities.ActivityEvent, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit {
		return nil, entities.ValidationError("limit must be between 1 and %d, got %d", MaxLimit, limit)
	}
	out, err := s.events.Recent(ctx, orgID, limit, types)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	return out, nil
}
