package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
)

func TestRecorder_PublishStoresSortableEvents(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewActivityRepository()
	rec := NewRecorder(repo)
	org := entities.NewID()

	fixed := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	for i := 0; i < 5; i++ {
		require.NoError(t, rec.Publish(ctx, org, entities.ActivityLPCreated, entities.NewID(), "created", nil))
	}

	events, err := repo.Recent(ctx, org, 10, nil)
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i-1].ID, events[i].ID, "newest first with monotonic ids")
	}

	id, err := ulid.Parse(events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(fixed), id.Time())
}

func TestRecorder_NotifiesMatchingSubscribers(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(memory.NewActivityRepository())
	org := entities.NewID()

	var seen []entities.ActivityType
	rec.Subscribe(HandlerFunc(func(ctx context.Context, e *entities.ActivityEvent) error {
		seen = append(seen, e.Type)
		return nil
	}))

	require.NoError(t, rec.Publish(ctx, org, entities.ActivityLPSplit, entities.NewID(), "split", nil))
	require.NoError(t, rec.Publish(ctx, org, entities.ActivityHoldCreated, entities.NewID(), "hold", nil))
	assert.Equal(t, []entities.ActivityType{entities.ActivityLPSplit, entities.ActivityHoldCreated}, seen)
}

func TestRecorder_RequiresTenant(t *testing.T) {
	rec := NewRecorder(memory.NewActivityRepository())
	err := rec.Publish(context.Background(), uuid.Nil, entities.ActivityLPCreated, entities.NewID(), "x", nil)
	require.ErrorIs(t, err, entities.ErrTenantRequired)
}
