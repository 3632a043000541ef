package recall

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(f *fixtures.Fixture) *Service {
	st := f.Store
	publisher := events.NewRecorder(st.Activity)
	gen := genealogy.NewService(st.Genealogy, st.LicensePlates, st.Products, publisher)
	gen.Now = f.Clock
	svc := NewService(gen, st.LicensePlates, st.Products, st.Locations, st.Shipments, st.Customers, publisher)
	svc.Now = f.Clock
	return svc
}

type batch struct {
	flour, dough, kept, shipped *entities.LicensePlate
	customer                    *entities.Customer
}

// bakeAndShip makes dough from flour and two bread plates from the dough,
// then ships the second bread plate
func bakeAndShip(t *testing.T, b *fixtures.Bakery) batch {
	t.Helper()
	ctx := context.Background()
	shelf := b.AddLocation(b.Warehouse, "SHELF-1")

	out := batch{
		flour:    b.AddLP(b.Flour, "100"),
		dough:    b.AddLP(b.Dough, "50"),
		kept:     b.AddLP(b.Bread, "20", fixtures.AtLocation(shelf)),
		shipped:  b.AddLP(b.Bread, "0", fixtures.WithStatus(entities.LPShipped)),
		customer: b.AddCustomer("Corner Cafe"),
	}
	b.Link(out.flour, out.dough, entities.OpConsume, "40")
	b.Link(out.dough, out.kept, entities.OpOutput, "25")
	b.Link(out.dough, out.shipped, entities.OpOutput, "25")

	require.NoError(t, b.Store.Shipments.Create(ctx, &entities.Shipment{
		ID:             entities.NewID(),
		OrgID:          b.OrgID(),
		ShipmentNumber: "SH-2025-00001",
		SalesOrderID:   uuid.New(),
		CustomerID:     out.customer.ID,
		ShippedAt:      b.Now,
		Lines: []entities.ShipmentLine{
			{LicensePlateID: out.shipped.ID, ProductID: b.Bread.ID, Quantity: dec("10"), UnitPrice: dec("5.50")},
		},
	}))
	return out
}

func TestService_SimulateFromRawMaterial(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	lots := bakeAndShip(t, b)

	sim, err := svc.Simulate(ctx, b.OrgID(), SimulateRequest{LPID: lots.flour.ID})
	require.NoError(t, err)

	assert.Equal(t, lots.flour.ID, sim.RootLP.LPID)
	assert.Empty(t, sim.BackwardTrace)
	assert.Len(t, sim.ForwardTrace, 3)

	s := sim.Summary
	assert.Equal(t, 4, s.TotalAffectedLPs)
	assert.True(t, dec("180").Equal(s.TotalQuantity), s.TotalQuantity.String())
	assert.True(t, dec("270").Equal(s.TotalEstimatedValue), s.TotalEstimatedValue.String())
	assert.Equal(t, 1, s.AffectedWarehouses)
	assert.Equal(t, 1, s.AffectedCustomers)
	assert.Equal(t, 3, s.StatusBreakdown.Available)
	assert.Equal(t, 1, s.StatusBreakdown.Shipped)

	require.Len(t, sim.Locations, 2)
	assert.Equal(t, "MAIN-RECV", sim.Locations[0].LocationCode)
	assert.Equal(t, 2, sim.Locations[0].AffectedLPs)
	assert.True(t, dec("150").Equal(sim.Locations[0].TotalQuantity))
	assert.Equal(t, "SHELF-1", sim.Locations[1].LocationCode)

	require.Len(t, sim.Customers, 1)
	c := sim.Customers[0]
	assert.Equal(t, "Corner Cafe", c.CustomerName)
	assert.True(t, dec("10").Equal(c.ShippedQuantity))
	assert.True(t, dec("55").Equal(c.ShippedValue))
	assert.Equal(t, []string{"SH-2025-00001"}, c.ShipmentNumbers)

	f := sim.Financial
	assert.True(t, dec("240").Equal(f.ProductValue), f.ProductValue.String())
	assert.True(t, dec("8.25").Equal(f.RetrievalCost), f.RetrievalCost.String())
	assert.True(t, dec("12").Equal(f.DisposalCost), f.DisposalCost.String())
	assert.True(t, dec("55").Equal(f.LostRevenue), f.LostRevenue.String())
	assert.True(t, dec("315.25").Equal(f.TotalEstimatedCost), f.TotalEstimatedCost.String())

	r := sim.Regulatory
	assert.True(t, r.Reportable)
	require.NotNil(t, r.ReportDueDate)
	assert.Equal(t, fixtures.BaseDate.Add(24*time.Hour), *r.ReportDueDate)
	assert.Equal(t, []string{"finished", "raw", "wip"}, r.AffectedProductTypes)

	feed, err := b.Store.Activity.Recent(ctx, b.OrgID(), 10, []entities.ActivityType{entities.ActivityRecallSimulated})
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestService_SimulateFromFinishedGoods(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	lots := bakeAndShip(t, b)

	sim, err := svc.Simulate(ctx, b.OrgID(), SimulateRequest{LPID: lots.kept.ID, MaxDepth: 5})
	require.NoError(t, err)
	assert.Len(t, sim.BackwardTrace, 2)
	assert.Empty(t, sim.ForwardTrace)
	assert.Equal(t, 1, sim.Summary.TotalAffectedLPs)
	assert.Equal(t, 0, sim.Summary.AffectedCustomers)
	assert.Empty(t, sim.Customers)
	assert.False(t, sim.Regulatory.Reportable)
	assert.True(t, sim.Financial.LostRevenue.IsZero())
}

func TestService_SimulateErrors(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)
	lp := b.AddLP(b.Flour, "1")

	_, err := svc.Simulate(ctx, b.OrgID(), SimulateRequest{LPID: uuid.New()})
	require.ErrorIs(t, err, entities.ErrNotFound)

	_, err = svc.Simulate(ctx, b.OrgID(), SimulateRequest{LPID: lp.ID, MaxDepth: 25})
	require.ErrorIs(t, err, entities.ErrValidation)

	other := fixtures.NewInStore(b.Store, "Other Bakery")
	_, err = svc.Simulate(ctx, other.OrgID(), SimulateRequest{LPID: lp.ID})
	require.ErrorIs(t, err, entities.ErrNotFound)
}
