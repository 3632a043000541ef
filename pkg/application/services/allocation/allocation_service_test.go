package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(f *fixtures.Fixture) *Service {
	svc := NewService(f.Store.Allocations, f.Store.SalesOrders, f.Store.LicensePlates, f.Store.Organizations,
		f.Store, events.NewRecorder(f.Store.Activity))
	svc.Now = f.Clock
	return svc
}

// confirmedOrder stores a confirmed order with one line per (product, qty)
func confirmedOrder(t *testing.T, f *fixtures.Fixture, lines ...any) *entities.SalesOrder {
	t.Helper()
	var sol []entities.SalesOrderLine
	for i := 0; i+1 < len(lines); i += 2 {
		sol = append(sol, entities.SalesOrderLine{
			ProductID:       lines[i].(*entities.Product).ID,
			QuantityOrdered: dec(lines[i+1].(string)),
			UnitPrice:       dec("2"),
		})
	}
	so, err := entities.NewSalesOrder(f.OrgID(), "SO-2025-"+uuid.NewString()[:5], f.AddCustomer("Cafe "+uuid.NewString()[:4]).ID, sol, f.Now)
	require.NoError(t, err)
	require.NoError(t, so.ChangeStatus(entities.SOConfirmed, f.Now))
	require.NoError(t, f.Store.SalesOrders.Create(context.Background(), so))
	return so
}

func TestService_AvailableLPs(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	old := b.AddLP(b.Flour, "10", fixtures.ReceivedDaysAgo(20), fixtures.ExpiresInDays(60))
	soon := b.AddLP(b.Flour, "10", fixtures.ReceivedDaysAgo(5), fixtures.ExpiresInDays(3))
	undated := b.AddLP(b.Flour, "10", fixtures.ReceivedDaysAgo(30))
	b.AddLP(b.Flour, "10", fixtures.ExpiresInDays(-1))
	b.AddLP(b.Flour, "10", fixtures.WithQA(entities.QAPending))
	b.AddLP(b.Flour, "10", fixtures.WithStatus(entities.LPBlocked))
	b.AddLP(b.Yeast, "10")

	fifo, err := svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, entities.FIFO)
	require.NoError(t, err)
	require.Len(t, fifo, 3)
	assert.Equal(t, []uuid.UUID{undated.ID, old.ID, soon.ID}, []uuid.UUID{fifo[0].LPID, fifo[1].LPID, fifo[2].LPID})
	assert.Contains(t, fifo[0].Reason, "FIFO rank 1")

	fefo, err := svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, entities.FEFO)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{soon.ID, old.ID, undated.ID}, []uuid.UUID{fefo[0].LPID, fefo[1].LPID, fefo[2].LPID})
	assert.True(t, fefo[0].FEFOWarning)
	assert.Equal(t, 3, *fefo[0].ExpiryDaysRemaining)
	assert.False(t, fefo[1].FEFOWarning)
	assert.Nil(t, fefo[2].ExpiryDaysRemaining)

	// default strategy comes from the settings
	def, err := svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, "")
	require.NoError(t, err)
	assert.Equal(t, undated.ID, def[0].LPID)

	_, err = svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, "LIFO")
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestService_AllocateAutomatic(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	first := b.AddLP(b.Flour, "30", fixtures.ReceivedDaysAgo(10))
	second := b.AddLP(b.Flour, "30", fixtures.ReceivedDaysAgo(5))
	so := confirmedOrder(t, b.Fixture, b.Flour, "45")

	res, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, first.ID, res.Allocations[0].LicensePlateID)
	assert.True(t, dec("30").Equal(res.Allocations[0].Quantity))
	assert.Equal(t, second.ID, res.Allocations[1].LicensePlateID)
	assert.True(t, dec("15").Equal(res.Allocations[1].Quantity))
	assert.Equal(t, 100, res.FulfillmentPct)
	assert.Equal(t, entities.SOAllocated, res.SalesOrder.Status)
	assert.Equal(t, b.Now.Add(5*time.Minute), res.UndoUntil)

	// allocated quantity is no longer offered
	left, err := svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, entities.FIFO)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, dec("15").Equal(left[0].AvailableQuantity))

	_, err = svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestService_AllocateShortfall(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	b.AddLP(b.Flour, "50")

	so := confirmedOrder(t, b.Fixture, b.Flour, "100")
	res, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{CreateBackorder: true})
	require.NoError(t, err)
	assert.Equal(t, 50, res.FulfillmentPct)
	assert.Equal(t, entities.SOConfirmed, res.SalesOrder.Status)
	require.Len(t, res.Backorders, 1)
	assert.True(t, dec("50").Equal(res.Backorders[0].Shortfall))
	assert.True(t, res.SalesOrder.Lines[0].BackorderFlag)

	held := confirmedOrder(t, b.Fixture, b.Yeast, "10")
	res, err = svc.AllocateSalesOrder(ctx, b.OrgID(), held.ID, AllocateRequest{HoldIfInsufficient: true})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FulfillmentPct)
	assert.Equal(t, entities.SOOnHold, res.SalesOrder.Status)
}

func TestService_AllocateExplicit(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	flour := b.AddLP(b.Flour, "20")
	yeast := b.AddLP(b.Yeast, "20")
	so := confirmedOrder(t, b.Fixture, b.Flour, "20")
	line := so.Lines[0].ID

	tests := []struct {
		name  string
		picks []Pick
		kind  error
	}{
		{"wrong product", []Pick{{LPID: yeast.ID, Quantity: dec("5")}}, entities.ErrValidation},
		{"too much", []Pick{{LPID: flour.ID, Quantity: dec("25")}}, entities.ErrValidation},
		{"duplicate", []Pick{{LPID: flour.ID, Quantity: dec("5")}, {LPID: flour.ID, Quantity: dec("5")}}, entities.ErrConflict},
		{"missing", []Pick{{LPID: uuid.New(), Quantity: dec("5")}}, entities.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{Lines: []LinePicks{{LineID: line, Picks: tt.picks}}})
			require.ErrorIs(t, err, tt.kind)
		})
	}

	res, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{Lines: []LinePicks{{LineID: line, Picks: []Pick{{LPID: flour.ID, Quantity: dec("16")}}}}})
	require.NoError(t, err)
	assert.Equal(t, 80, res.FulfillmentPct)
	assert.Equal(t, entities.SOAllocated, res.SalesOrder.Status)
}

func TestService_AllocateSamePlateTwice(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	flour := b.AddLP(b.Flour, "50")
	so := confirmedOrder(t, b.Fixture, b.Flour, "100")
	req := AllocateRequest{Lines: []LinePicks{{LineID: so.Lines[0].ID, Picks: []Pick{{LPID: flour.ID, Quantity: dec("10")}}}}}

	res, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 10, res.FulfillmentPct)
	assert.Equal(t, entities.SOConfirmed, res.SalesOrder.Status)

	_, err = svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, req)
	require.ErrorIs(t, err, entities.ErrConflict)
	assert.Contains(t, err.Error(), "already allocated")

	// automatic top-up skips the plate already bound to the line
	other := b.AddLP(b.Flour, "30")
	res, err = svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, other.ID, res.Allocations[0].LicensePlateID)
	assert.Equal(t, 40, res.FulfillmentPct)

	// the store refuses a second active row for the same line and plate
	dup, err := entities.NewInventoryAllocation(b.OrgID(), so.ID, so.Lines[0].ID, flour.ID, dec("1"), b.Now)
	require.NoError(t, err)
	require.ErrorIs(t, b.Store.Allocations.Create(ctx, dup), entities.ErrConflict)
}

func TestService_AllocateReachesLoweredThreshold(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	b.AddLP(b.Flour, "50")
	so := confirmedOrder(t, b.Fixture, b.Flour, "100")

	res, err := svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.NoError(t, err)
	assert.Equal(t, entities.SOConfirmed, res.SalesOrder.Status)

	// no stock left, but the order now meets the org threshold
	b.UpdateSettings(func(s *entities.WarehouseSettings) { s.AllocationThresholdPct = 50 })
	res, err = svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.Allocations)
	assert.Equal(t, 50, res.FulfillmentPct)
	assert.Equal(t, entities.SOAllocated, res.SalesOrder.Status)
}

func TestService_Release(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	b.AddLP(b.Flour, "40")
	so := confirmedOrder(t, b.Fixture, b.Flour, "40")

	_, err := svc.Release(ctx, b.OrgID(), so.ID, ReleaseRequest{})
	require.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.AllocateSalesOrder(ctx, b.OrgID(), so.ID, AllocateRequest{})
	require.NoError(t, err)

	svc.Now = func() time.Time { return b.Now.Add(6 * time.Minute) }
	_, err = svc.Release(ctx, b.OrgID(), so.ID, ReleaseRequest{})
	require.ErrorIs(t, err, entities.ErrConflict)
	assert.Contains(t, err.Error(), "undo window")

	res, err := svc.Release(ctx, b.OrgID(), so.ID, ReleaseRequest{Force: true})
	require.NoError(t, err)
	require.Len(t, res.Released, 1)
	assert.NotNil(t, res.Released[0].ReleasedAt)
	assert.Equal(t, entities.SOConfirmed, res.SalesOrder.Status)
	assert.True(t, res.SalesOrder.Lines[0].QuantityAllocated.IsZero())

	left, err := svc.AvailableLPs(ctx, b.OrgID(), b.Flour.ID, entities.FIFO)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.True(t, dec("40").Equal(left[0].AvailableQuantity))
}
