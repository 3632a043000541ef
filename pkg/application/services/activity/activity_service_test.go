package activity

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func TestService_Recent(t *testing.T) {
	ctx := context.Background()
	f := fixtures.New()
	rec := events.NewRecorder(f.Store.Activity)
	for i := 0; i < 15; i++ {
		typ := entities.ActivityLPCreated
		if i%5 == 0 {
			typ = entities.ActivitySOShipped
		}
		require.NoError(t, rec.Publish(ctx, f.OrgID(), typ, entities.NewID(), fmt.Sprintf("event %d", i), nil))
	}
	svc := NewService(f.Store.Activity)

	got, err := svc.Recent(ctx, f.OrgID(), 0, nil)
	require.NoError(t, err)
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "event 14", got[0].Summary)

	shipped, err := svc.Recent(ctx, f.OrgID(), 50, []entities.ActivityType{entities.ActivitySOShipped})
	require.NoError(t, err)
	assert.Len(t, shipped, 3)

	for _, limit := range []int{-5, 51, 100} {
		_, err := svc.Recent(ctx, f.OrgID(), limit, nil)
		require.ErrorIs(t, err, entities.ErrValidation, "limit %d", limit)
	}

	other := fixtures.NewInStore(f.Store, "Other")
	none, err := svc.Recent(ctx, other.OrgID(), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
