package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/allocation"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type harness struct {
	*fixtures.Bakery
	svc   *Service
	alloc *allocation.Service
}

func newHarness() *harness {
	b := fixtures.NewBakery()
	st := b.Store
	publisher := events.NewRecorder(st.Activity)
	svc := NewService(Repositories{
		Orders:      st.SalesOrders,
		Customers:   st.Customers,
		Products:    st.Products,
		Allocations: st.Allocations,
		Shipments:   st.Shipments,
		RMAs:        st.RMAs,
		LPs:         st.LicensePlates,
		Locations:   st.Locations,
		Orgs:        st.Organizations,
	}, st, shared.NewNumberer(st.Sequences), publisher)
	svc.Now = b.Clock
	alloc := allocation.NewService(st.Allocations, st.SalesOrders, st.LicensePlates, st.Organizations, st, publisher)
	alloc.Now = b.Clock
	return &harness{Bakery: b, svc: svc, alloc: alloc}
}

func (h *harness) order(t *testing.T, qty string) *entities.SalesOrder {
	t.Helper()
	so, err := h.svc.CreateSalesOrder(context.Background(), h.OrgID(), SalesOrderRequest{
		CustomerID: h.AddCustomer("Cafe " + uuid.NewString()[:4]).ID,
		Lines:      []LineRequest{{ProductID: h.Bread.ID, Quantity: dec(qty)}},
	})
	require.NoError(t, err)
	return so
}

func (h *harness) allocated(t *testing.T, qty string) *entities.SalesOrder {
	t.Helper()
	ctx := context.Background()
	so := h.order(t, qty)
	_, err := h.svc.ChangeStatus(ctx, h.OrgID(), so.ID, entities.SOConfirmed)
	require.NoError(t, err)
	res, err := h.alloc.AllocateSalesOrder(ctx, h.OrgID(), so.ID, allocation.AllocateRequest{})
	require.NoError(t, err)
	require.Equal(t, entities.SOAllocated, res.SalesOrder.Status)
	return res.SalesOrder
}

func TestService_CreateSalesOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness()

	so := h.order(t, "12")
	assert.Equal(t, "SO-2025-00001", so.OrderNumber)
	assert.Equal(t, entities.SODraft, so.Status)
	require.Len(t, so.Lines, 1)
	assert.True(t, dec("5.50").Equal(so.Lines[0].UnitPrice), "list price is the default")
	assert.Equal(t, 1, so.Lines[0].LineNumber)

	next := h.order(t, "1")
	assert.Equal(t, "SO-2025-00002", next.OrderNumber)

	_, err := h.svc.CreateSalesOrder(ctx, h.OrgID(), SalesOrderRequest{
		CustomerID: uuid.New(),
		Lines:      []LineRequest{{ProductID: h.Bread.ID, Quantity: dec("1")}},
	})
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = h.svc.CreateSalesOrder(ctx, h.OrgID(), SalesOrderRequest{
		CustomerID: so.CustomerID,
		Lines:      []LineRequest{{ProductID: uuid.New(), Quantity: dec("1")}},
	})
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = h.svc.CreateSalesOrder(ctx, h.OrgID(), SalesOrderRequest{
		CustomerID: so.CustomerID,
		Lines:      []LineRequest{{ProductID: h.Bread.ID, Quantity: dec("0")}},
	})
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestService_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	first := h.order(t, "1")
	h.order(t, "2")

	res, err := h.svc.ListSalesOrders(ctx, h.OrgID(), ListRequest{Page: shared.Page{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Len(t, res.Items, 1)

	res, err = h.svc.ListSalesOrders(ctx, h.OrgID(), ListRequest{CustomerID: &first.CustomerID})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, first.ID, res.Items[0].ID)

	updated, err := h.svc.UpdateLines(ctx, h.OrgID(), first.ID, []LineRequest{
		{ProductID: h.Bread.ID, Quantity: dec("3"), UnitPrice: dec("4.00")},
		{ProductID: h.Dough.ID, Quantity: dec("1")},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.True(t, dec("4").Equal(updated.Lines[0].UnitPrice))

	_, err = h.svc.ChangeStatus(ctx, h.OrgID(), first.ID, entities.SOConfirmed)
	require.NoError(t, err)
	_, err = h.svc.UpdateLines(ctx, h.OrgID(), first.ID, []LineRequest{{ProductID: h.Bread.ID, Quantity: dec("1")}})
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestService_ChangeStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	so := h.order(t, "1")

	_, err := h.svc.ChangeStatus(ctx, h.OrgID(), so.ID, entities.SOShipped)
	require.ErrorIs(t, err, entities.ErrInvalidTransition)

	_, err = h.svc.ChangeStatus(ctx, h.OrgID(), so.ID, entities.SOAllocated)
	require.ErrorIs(t, err, entities.ErrValidation)

	got, err := h.svc.ChangeStatus(ctx, h.OrgID(), so.ID, entities.SOConfirmed)
	require.NoError(t, err)
	assert.Equal(t, entities.SOConfirmed, got.Status)
}

func TestService_CancelReleasesAllocations(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.AddLP(h.Bread, "10")
	so := h.allocated(t, "4")

	got, err := h.svc.ChangeStatus(ctx, h.OrgID(), so.ID, entities.SOCancelled)
	require.NoError(t, err)
	assert.Equal(t, entities.SOCancelled, got.Status)
	assert.True(t, got.Lines[0].QuantityAllocated.IsZero())

	allocs, err := h.Store.Allocations.ListBySalesOrder(ctx, h.OrgID(), so.ID)
	require.NoError(t, err)
	require.NotEmpty(t, allocs)
	for _, a := range allocs {
		assert.False(t, a.IsActive())
	}
}

func TestService_Clone(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	h.AddLP(h.Bread, "10")
	so := h.allocated(t, "4")

	clone, err := h.svc.Clone(ctx, h.OrgID(), so.ID)
	require.NoError(t, err)
	assert.NotEqual(t, so.ID, clone.ID)
	assert.Equal(t, "SO-2025-00002", clone.OrderNumber)
	assert.Equal(t, entities.SODraft, clone.Status)
	assert.True(t, clone.Lines[0].QuantityAllocated.IsZero())
	assert.True(t, so.Lines[0].QuantityOrdered.Equal(clone.Lines[0].QuantityOrdered))
}

func TestService_Ship(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	older := h.AddLP(h.Bread, "3", fixtures.ReceivedDaysAgo(5))
	newer := h.AddLP(h.Bread, "10", fixtures.ReceivedDaysAgo(1))
	so := h.allocated(t, "5")

	shipment, err := h.svc.Ship(ctx, h.OrgID(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, "SH-2025-00001", shipment.ShipmentNumber)
	require.Len(t, shipment.Lines, 2)

	got, err := h.svc.GetSalesOrder(ctx, h.OrgID(), so.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.SOShipped, got.Status)
	assert.True(t, dec("5").Equal(got.Lines[0].QuantityShipped))
	assert.True(t, got.Lines[0].QuantityAllocated.IsZero())

	o, err := h.Store.LicensePlates.Get(ctx, h.OrgID(), older.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LPShipped, o.Status)
	assert.True(t, o.Quantity.IsZero())
	n, err := h.Store.LicensePlates.Get(ctx, h.OrgID(), newer.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LPAvailable, n.Status)
	assert.True(t, dec("8").Equal(n.Quantity))

	list, err := h.svc.Shipments(ctx, h.OrgID(), so.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = h.svc.Ship(ctx, h.OrgID(), so.ID)
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestService_ShipRequiresAllocation(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	so := h.order(t, "1")
	_, err := h.svc.Ship(ctx, h.OrgID(), so.ID)
	require.ErrorIs(t, err, entities.ErrConflict)

	_, err = h.svc.Ship(ctx, h.OrgID(), uuid.New())
	require.ErrorIs(t, err, entities.ErrNotFound)
}
