package planning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	*fixtures.Bakery
	svc *Service
}

func newHarness() *harness {
	b := fixtures.NewBakery()
	st := b.Store
	publisher := events.NewRecorder(st.Activity)
	gen := genealogy.NewService(st.Genealogy, st.LicensePlates, st.Products, publisher)
	gen.Now = b.Clock
	svc := NewService(Repositories{
		WorkOrders:  st.WorkOrders,
		Products:    st.Products,
		BOMs:        st.BOMs,
		LPs:         st.LicensePlates,
		Allocations: st.Allocations,
		Locations:   st.Locations,
		Orgs:        st.Organizations,
	}, st, shared.NewNumberer(st.Sequences), gen, publisher)
	svc.Now = b.Clock
	return &harness{Bakery: b, svc: svc}
}

func (h *harness) workOrder(t *testing.T, p *entities.Product, qty string) *entities.WorkOrder {
	t.Helper()
	wo, err := h.svc.CreateWorkOrder(context.Background(), h.OrgID(), WorkOrderRequest{ProductID: p.ID, PlannedQty: dec(qty)})
	require.NoError(t, err)
	return wo
}

func (h *harness) advance(t *testing.T, wo *entities.WorkOrder, statuses ...entities.WOStatus) *entities.WorkOrder {
	t.Helper()
	for _, st := range statuses {
		var err error
		wo, err = h.svc.ChangeStatus(context.Background(), h.OrgID(), wo.ID, st)
		require.NoError(t, err)
	}
	return wo
}

func (h *harness) lp(t *testing.T, id uuid.UUID) *entities.LicensePlate {
	t.Helper()
	lp, err := h.Store.LicensePlates.Get(context.Background(), h.OrgID(), id)
	require.NoError(t, err)
	return lp
}

func TestService_CreateWorkOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	wo := h.workOrder(t, h.Bread, "40")
	assert.Equal(t, "WO-2025-00001", wo.WONumber)
	assert.Equal(t, entities.WODraft, wo.Status)
	assert.Equal(t, entities.PriorityNormal, wo.Priority)
	require.NotNil(t, wo.BOMID)
	assert.Equal(t, h.BreadBOM.ID, *wo.BOMID)

	_, err := h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{ProductID: h.Bread.ID, BOMID: &h.DoughBOM.ID, PlannedQty: dec("1")})
	require.ErrorIs(t, err, entities.ErrValidation)

	_, err = h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{ProductID: uuid.New(), PlannedQty: dec("1")})
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{ProductID: h.Bread.ID, PlannedQty: dec("0")})
	require.ErrorIs(t, err, entities.ErrValidation)

	flour := h.workOrder(t, h.Flour, "5")
	assert.Nil(t, flour.BOMID)
	flour = h.advance(t, flour, entities.WOPlanned)
	_, err = h.svc.ChangeStatus(ctx, h.OrgID(), flour.ID, entities.WOReleased)
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestService_UpdateWorkOrderLocksAfterRelease(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	wo := h.workOrder(t, h.Bread, "40")

	updated, err := h.svc.UpdateWorkOrder(ctx, h.OrgID(), wo.ID, WorkOrderRequest{ProductID: h.Bread.ID, PlannedQty: dec("60"), Priority: entities.PriorityHigh})
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(updated.PlannedQty))
	assert.Equal(t, entities.PriorityHigh, updated.Priority)

	h.advance(t, wo, entities.WOPlanned, entities.WOReleased)
	_, err = h.svc.UpdateWorkOrder(ctx, h.OrgID(), wo.ID, WorkOrderRequest{ProductID: h.Bread.ID, PlannedQty: dec("10")})
	require.ErrorIs(t, err, entities.ErrConflict)

	_, err = h.svc.ChangeStatus(ctx, h.OrgID(), wo.ID, entities.WOCompleted)
	require.ErrorIs(t, err, entities.ErrInvalidTransition)
}

func TestService_Availability(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	wo := h.workOrder(t, h.Bread, "40")

	none, err := h.svc.Availability(ctx, h.OrgID(), wo.ID)
	require.NoError(t, err)
	assert.Equal(t, AvailabilityNone, none.Status)

	h.AddLP(h.Dough, "5")
	h.AddLP(h.Flour, "20")
	h.AddLP(h.Flour, "50", fixtures.WithQA(entities.QAPending))
	h.AddLP(h.Yeast, "9", fixtures.ExpiresInDays(-1))

	av, err := h.svc.Availability(ctx, h.OrgID(), wo.ID)
	require.NoError(t, err)
	require.Len(t, av.Requirements, 3)

	dough, flour, yeast := av.Requirements[0], av.Requirements[1], av.Requirements[2]
	assert.Equal(t, h.Dough.ID, dough.ProductID)
	assert.Equal(t, 1, dough.Level)
	assert.True(t, dec("20").Equal(dough.Required))
	assert.True(t, dec("15").Equal(dough.Shortfall))
	assert.True(t, dough.Exploded)
	assert.Equal(t, AvailabilityPartial, dough.Status)

	assert.Equal(t, 2, flour.Level)
	assert.Equal(t, h.Dough.ID, flour.ParentID)
	assert.True(t, dec("12").Equal(flour.Required))
	assert.Equal(t, AvailabilitySufficient, flour.Status)

	assert.True(t, dec("0.75").Equal(yeast.Required))
	assert.Equal(t, AvailabilityNone, yeast.Status, "expired stock does not count")
	assert.Equal(t, AvailabilityPartial, av.Status)

	h.AddLP(h.Yeast, "1")
	av, err = h.svc.Availability(ctx, h.OrgID(), wo.ID)
	require.NoError(t, err)
	assert.Equal(t, AvailabilitySufficient, av.Status)
}

func TestService_Reservations(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	wo := h.workOrder(t, h.Bread, "40")
	other := h.workOrder(t, h.Bread, "10")
	dough := h.AddLP(h.Dough, "10")
	flour := h.AddLP(h.Flour, "10")

	wo, err := h.svc.Reserve(ctx, h.OrgID(), wo.ID, ReserveRequest{LPID: dough.ID})
	require.NoError(t, err)
	require.Len(t, wo.Reservations, 1)
	assert.True(t, dec("10").Equal(wo.Reservations[0].Quantity))
	assert.Equal(t, entities.LPReserved, h.lp(t, dough.ID).Status)

	av, err := h.svc.Availability(ctx, h.OrgID(), wo.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(av.Requirements[0].Available), "own reservation counts")
	av, err = h.svc.Availability(ctx, h.OrgID(), other.ID)
	require.NoError(t, err)
	assert.True(t, av.Requirements[0].Available.IsZero(), "another order's reservation does not")

	_, err = h.svc.Reserve(ctx, h.OrgID(), wo.ID, ReserveRequest{LPID: dough.ID})
	require.ErrorIs(t, err, entities.ErrConflict)
	_, err = h.svc.Reserve(ctx, h.OrgID(), other.ID, ReserveRequest{LPID: dough.ID})
	require.ErrorIs(t, err, entities.ErrConflict)
	_, err = h.svc.Reserve(ctx, h.OrgID(), wo.ID, ReserveRequest{LPID: flour.ID})
	require.ErrorIs(t, err, entities.ErrValidation)

	wo, err = h.svc.ReleaseReservation(ctx, h.OrgID(), wo.ID, dough.ID)
	require.NoError(t, err)
	assert.Empty(t, wo.Reservations)
	assert.Equal(t, entities.LPAvailable, h.lp(t, dough.ID).Status)

	_, err = h.svc.ReleaseReservation(ctx, h.OrgID(), wo.ID, dough.ID)
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = h.svc.Reserve(ctx, h.OrgID(), other.ID, ReserveRequest{LPID: dough.ID, Quantity: dec("4")})
	require.NoError(t, err)
	h.advance(t, other, entities.WOCancelled)
	assert.Equal(t, entities.LPAvailable, h.lp(t, dough.ID).Status)
}

func TestService_ConsumeAndOutput(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	wo := h.workOrder(t, h.Bread, "40")
	first := h.AddLP(h.Dough, "10")
	second := h.AddLP(h.Dough, "12")
	flour := h.AddLP(h.Flour, "10")

	_, err := h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: first.ID, Quantity: dec("6")})
	require.ErrorIs(t, err, entities.ErrConflict, "not started")

	_, err = h.svc.Reserve(ctx, h.OrgID(), wo.ID, ReserveRequest{LPID: second.ID})
	require.NoError(t, err)
	wo = h.advance(t, wo, entities.WOPlanned, entities.WOReleased, entities.WOInProgress)
	require.NotNil(t, wo.StartedAt)

	wo, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: first.ID, Quantity: dec("6")})
	require.NoError(t, err)
	assert.True(t, dec("4").Equal(h.lp(t, first.ID).Quantity))
	assert.Equal(t, entities.LPAvailable, h.lp(t, first.ID).Status)

	wo, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: second.ID, Quantity: dec("12")})
	require.NoError(t, err)
	assert.Equal(t, entities.LPConsumed, h.lp(t, second.ID).Status)
	assert.Empty(t, wo.Reservations)

	wo, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: first.ID, Quantity: dec("1")})
	require.NoError(t, err)
	require.Len(t, wo.Consumptions, 3)

	_, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: first.ID, Quantity: dec("50")})
	require.ErrorIs(t, err, entities.ErrValidation)
	_, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: flour.ID, Quantity: dec("1")})
	require.ErrorIs(t, err, entities.ErrValidation)

	res, err := h.svc.RegisterOutput(ctx, h.OrgID(), wo.ID, OutputRequest{Quantity: dec("38"), LocationID: h.Location.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.SourceProduction, res.LP.Source)
	assert.Equal(t, wo.WONumber, res.LP.BatchNumber)
	require.NotNil(t, res.LP.ExpiryDate)
	assert.Equal(t, fixtures.BaseDate.AddDate(0, 0, 5), *res.LP.ExpiryDate)
	require.NotNil(t, res.LP.WorkOrderID)
	assert.Equal(t, wo.ID, *res.LP.WorkOrderID)
	assert.True(t, dec("38").Equal(res.WorkOrder.ProducedQty))
	assert.Equal(t, 95, res.WorkOrder.ProgressPercent())

	require.Len(t, res.Links, 2)
	assert.Equal(t, first.ID, res.Links[0].ParentLPID)
	assert.True(t, dec("7").Equal(res.Links[0].Quantity))
	assert.Equal(t, second.ID, res.Links[1].ParentLPID)
	assert.True(t, dec("12").Equal(res.Links[1].Quantity))

	gen, err := h.svc.Genealogy(ctx, h.OrgID(), wo.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.TotalLinks)

	_, err = h.svc.RegisterOutput(ctx, h.OrgID(), wo.ID, OutputRequest{Quantity: dec("0"), LocationID: h.Location.ID})
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestService_ConsumeAllocatedPlate(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	wo := h.workOrder(t, h.Bread, "40")
	wo = h.advance(t, wo, entities.WOPlanned, entities.WOReleased, entities.WOInProgress)
	dough := h.AddLP(h.Dough, "10")
	h.Allocate(dough, "8")

	_, err := h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: dough.ID, Quantity: dec("5")})
	require.ErrorIs(t, err, entities.ErrConflict)
	assert.Contains(t, err.Error(), "allocated to sales orders")
	assert.True(t, dec("10").Equal(h.lp(t, dough.ID).Quantity))

	wo, err = h.svc.RecordConsumption(ctx, h.OrgID(), wo.ID, ConsumeRequest{LPID: dough.ID, Quantity: dec("2")})
	require.NoError(t, err)
	require.Len(t, wo.Consumptions, 1)
	assert.True(t, dec("8").Equal(h.lp(t, dough.ID).Quantity))
}

func TestService_Schedule(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	at := func(day, hour int) *time.Time {
		v := time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
		return &v
	}

	a, err := h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{
		ProductID: h.Bread.ID, PlannedQty: dec("40"), LineCode: "L1",
		ScheduledStart: at(11, 6), ScheduledEnd: at(11, 10),
	})
	require.NoError(t, err)
	_, err = h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{
		ProductID: h.Dough.ID, PlannedQty: dec("20"), LineCode: "L1",
		ScheduledStart: at(11, 8), ScheduledEnd: at(11, 12),
	})
	require.ErrorIs(t, err, entities.ErrConflict)

	b, err := h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{
		ProductID: h.Dough.ID, PlannedQty: dec("20"), LineCode: "L1",
		ScheduledStart: at(11, 10), ScheduledEnd: at(11, 12),
	})
	require.NoError(t, err, "touching windows do not clash")
	late, err := h.svc.CreateWorkOrder(ctx, h.OrgID(), WorkOrderRequest{
		ProductID: h.Bread.ID, PlannedQty: dec("10"), LineCode: "L2",
		ScheduledStart: at(9, 6), ScheduledEnd: at(9, 8),
	})
	require.NoError(t, err)

	check, err := h.svc.CheckLineAvailability(ctx, h.OrgID(), "L1", *at(11, 9), *at(11, 11), nil)
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Len(t, check.Conflicts, 2)

	check, err = h.svc.CheckLineAvailability(ctx, h.OrgID(), "L1", *at(11, 9), *at(11, 11), &b.ID)
	require.NoError(t, err)
	require.Len(t, check.Conflicts, 1)
	assert.Equal(t, a.ID, check.Conflicts[0].WorkOrderID)

	g, err := h.svc.Gantt(ctx, h.OrgID(), GanttRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, g.Total)
	require.Len(t, g.Swimlanes, 2)
	assert.Equal(t, "L1", g.Swimlanes[0].LineCode)
	assert.Equal(t, []string{a.WONumber, b.WONumber}, []string{g.Swimlanes[0].Items[0].WONumber, g.Swimlanes[0].Items[1].WONumber})
	assert.Equal(t, "BREAD", g.Swimlanes[0].Items[0].ProductCode)
	assert.True(t, g.Swimlanes[1].Items[0].IsOverdue)
	assert.Equal(t, late.ID, g.Swimlanes[1].Items[0].WorkOrderID)

	g, err = h.svc.Gantt(ctx, h.OrgID(), GanttRequest{LineCode: "L2"})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Total)

	_, err = h.svc.Reschedule(ctx, h.OrgID(), a.ID, RescheduleRequest{Start: *at(11, 11), End: *at(11, 13)})
	require.ErrorIs(t, err, entities.ErrConflict)
	_, err = h.svc.Reschedule(ctx, h.OrgID(), a.ID, RescheduleRequest{Start: *at(1, 6), End: *at(1, 8)})
	require.ErrorIs(t, err, entities.ErrValidation)
	moved, err := h.svc.Reschedule(ctx, h.OrgID(), a.ID, RescheduleRequest{LineCode: "L2", Start: *at(12, 6), End: *at(12, 8)})
	require.NoError(t, err)
	assert.Equal(t, "L2", moved.LineCode)

	h.advance(t, late, entities.WOCancelled)
	_, err = h.svc.Reschedule(ctx, h.OrgID(), late.ID, RescheduleRequest{Start: *at(13, 6), End: *at(13, 8)})
	require.ErrorIs(t, err, entities.ErrConflict)
}
