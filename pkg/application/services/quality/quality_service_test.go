package quality

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func newService(f *fixtures.Fixture) *Service {
	st := f.Store
	svc := NewService(st.QualityHolds, st.LicensePlates, st, shared.NewNumberer(st.Sequences), events.NewRecorder(st.Activity))
	svc.Now = f.Clock
	return svc
}

func TestService_CreateAndReleaseHold(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	free := b.AddLP(b.Flour, "10")
	reserved := b.AddLP(b.Flour, "10", fixtures.WithStatus(entities.LPReserved))

	hold, err := svc.CreateHold(ctx, b.OrgID(), HoldRequest{
		Reason:   "metal fragments reported",
		Priority: entities.HoldHigh,
		LPIDs:    []uuid.UUID{free.ID, reserved.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "QH-2025-00001", hold.HoldNumber)
	assert.Equal(t, entities.HoldInvestigation, hold.Type)
	assert.Equal(t, entities.AgingNormal, hold.AgingStatus)
	require.Len(t, hold.Items, 2)
	assert.Equal(t, entities.LPReserved, hold.Items[1].PreviousStatus)

	for _, id := range []uuid.UUID{free.ID, reserved.ID} {
		lp, err := b.Store.LicensePlates.Get(ctx, b.OrgID(), id)
		require.NoError(t, err)
		assert.Equal(t, entities.LPBlocked, lp.Status)
	}

	b.Now = b.Now.Add(30 * time.Hour)
	got, err := svc.GetHold(ctx, b.OrgID(), hold.ID)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, got.AgingHours, 0.01)
	assert.Equal(t, entities.AgingWarning, got.AgingStatus)

	released, err := svc.ReleaseHold(ctx, b.OrgID(), hold.ID, "false alarm")
	require.NoError(t, err)
	assert.Equal(t, entities.HoldReleased, released.Status)
	assert.Equal(t, "false alarm", released.ReleaseNotes)

	lp, err := b.Store.LicensePlates.Get(ctx, b.OrgID(), free.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LPAvailable, lp.Status)
	lp, err = b.Store.LicensePlates.Get(ctx, b.OrgID(), reserved.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LPReserved, lp.Status)

	// aging stops at release
	b.Now = b.Now.Add(100 * time.Hour)
	got, err = svc.GetHold(ctx, b.OrgID(), hold.ID)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, got.AgingHours, 0.01)

	_, err = svc.ReleaseHold(ctx, b.OrgID(), hold.ID, "")
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestService_CreateHoldRejects(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	ok := b.AddLP(b.Flour, "10")
	consumed := b.AddLP(b.Flour, "0", fixtures.WithStatus(entities.LPConsumed))
	shipped := b.AddLP(b.Flour, "0", fixtures.WithStatus(entities.LPShipped))

	tests := []struct {
		name string
		req  HoldRequest
		err  error
	}{
		{"no plates", HoldRequest{Reason: "x", Priority: entities.HoldLow}, entities.ErrValidation},
		{"duplicate plate", HoldRequest{Reason: "x", Priority: entities.HoldLow, LPIDs: []uuid.UUID{ok.ID, ok.ID}}, entities.ErrValidation},
		{"consumed plate", HoldRequest{Reason: "x", Priority: entities.HoldLow, LPIDs: []uuid.UUID{ok.ID, consumed.ID}}, entities.ErrConflict},
		{"shipped plate", HoldRequest{Reason: "x", Priority: entities.HoldLow, LPIDs: []uuid.UUID{shipped.ID}}, entities.ErrConflict},
		{"unknown plate", HoldRequest{Reason: "x", Priority: entities.HoldLow, LPIDs: []uuid.UUID{uuid.New()}}, entities.ErrNotFound},
		{"no reason", HoldRequest{Priority: entities.HoldLow, LPIDs: []uuid.UUID{ok.ID}}, entities.ErrValidation},
		{"bad priority", HoldRequest{Reason: "x", Priority: "urgent", LPIDs: []uuid.UUID{ok.ID}}, entities.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateHold(ctx, b.OrgID(), tt.req)
			require.ErrorIs(t, err, tt.err)
		})
	}

	lp, err := b.Store.LicensePlates.Get(ctx, b.OrgID(), ok.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LPAvailable, lp.Status, "failed holds leave plates untouched")
}

func TestService_ListHolds(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	first, err := svc.CreateHold(ctx, b.OrgID(), HoldRequest{Reason: "a", Priority: entities.HoldCritical, LPIDs: []uuid.UUID{b.AddLP(b.Flour, "1").ID}})
	require.NoError(t, err)
	b.Now = b.Now.Add(time.Hour)
	second, err := svc.CreateHold(ctx, b.OrgID(), HoldRequest{Reason: "b", Priority: entities.HoldLow, LPIDs: []uuid.UUID{b.AddLP(b.Flour, "1").ID}})
	require.NoError(t, err)
	_, err = svc.ReleaseHold(ctx, b.OrgID(), first.ID, "")
	require.NoError(t, err)

	all, err := svc.ListHolds(ctx, b.OrgID(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	active, err := svc.ListHolds(ctx, b.OrgID(), entities.HoldActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	_, err = svc.ListHolds(ctx, b.OrgID(), "pending")
	require.ErrorIs(t, err, entities.ErrValidation)
}
