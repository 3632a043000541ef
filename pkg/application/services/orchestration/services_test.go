package orchestration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/allocation"
	"github.com/vsinha/monopilot/pkg/application/services/catalog"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/application/services/recall"
	"github.com/vsinha/monopilot/pkg/application/services/shipping"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// TestServices_ReceiveProduceShipRecall walks one batch of flour from
// receipt through production and shipment, then recalls it
func TestServices_ReceiveProduceShipRecall(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	recorder := events.NewRecorder(store.Activity)
	var seen []entities.ActivityType
	recorder.Subscribe(events.HandlerFunc(func(_ context.Context, e *entities.ActivityEvent) error {
		seen = append(seen, e.Type)
		return nil
	}))
	svc := New(store.Repositories(), recorder)
	svc.SetClock(func() time.Time { return fixtures.BaseDate })

	onboard, err := svc.Organizations.Onboard(ctx, organization.OnboardRequest{Name: "North Bakery", WarehouseName: "Main"})
	require.NoError(t, err)
	org := onboard.Organization.ID
	recv := onboard.Location.ID

	flour, err := svc.Catalog.CreateProduct(ctx, org, catalog.ProductRequest{
		Code: "FLOUR", Name: "Flour", Type: entities.RawMaterial, UOM: "KG",
		UnitCost: dec("0.80"), UnitPrice: dec("1.20"), ShelfLifeDays: 180,
	})
	require.NoError(t, err)
	bread, err := svc.Catalog.CreateProduct(ctx, org, catalog.ProductRequest{
		Code: "BREAD", Name: "Bread", Type: entities.Finished, UOM: "EA",
		UnitCost: dec("3.00"), UnitPrice: dec("5.50"), ShelfLifeDays: 5,
	})
	require.NoError(t, err)
	bom, err := svc.Catalog.CreateBOM(ctx, org, catalog.BOMRequest{
		ProductID: bread.ID, OutputQty: dec("10"),
		Items: []catalog.BOMItemRequest{{ComponentID: flour.ID, Quantity: dec("5")}},
	})
	require.NoError(t, err)
	_, err = svc.Catalog.ActivateBOM(ctx, org, bom.ID)
	require.NoError(t, err)

	flourLP, err := svc.LicensePlates.Create(ctx, org, licenseplate.CreateRequest{
		ProductID: flour.ID, Quantity: dec("100"), LocationID: recv, BatchNumber: "F-01", QAStatus: entities.QAPassed,
	})
	require.NoError(t, err)
	assert.Equal(t, "LP00000001", flourLP.LPNumber)

	wo, err := svc.Planning.CreateWorkOrder(ctx, org, planning.WorkOrderRequest{ProductID: bread.ID, PlannedQty: dec("20")})
	require.NoError(t, err)
	av, err := svc.Planning.Availability(ctx, org, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, planning.AvailabilitySufficient, av.Status)
	for _, next := range []entities.WOStatus{entities.WOPlanned, entities.WOReleased, entities.WOInProgress} {
		_, err = svc.Planning.ChangeStatus(ctx, org, wo.ID, next)
		require.NoError(t, err)
	}
	_, err = svc.Planning.RecordConsumption(ctx, org, wo.ID, planning.ConsumeRequest{LPID: flourLP.ID, Quantity: dec("10")})
	require.NoError(t, err)
	out, err := svc.Planning.RegisterOutput(ctx, org, wo.ID, planning.OutputRequest{Quantity: dec("20"), LocationID: recv})
	require.NoError(t, err)
	require.Len(t, out.Links, 1)
	_, err = svc.LicensePlates.ChangeQAStatus(ctx, org, out.LP.ID, entities.QAPassed)
	require.NoError(t, err)

	cafe, err := svc.Catalog.CreateCustomer(ctx, org, catalog.CustomerRequest{Name: "Corner Cafe", Email: "orders@cafe.test"})
	require.NoError(t, err)
	so, err := svc.Shipping.CreateSalesOrder(ctx, org, shipping.SalesOrderRequest{
		CustomerID: cafe.ID,
		Lines:      []shipping.LineRequest{{ProductID: bread.ID, Quantity: dec("8")}},
	})
	require.NoError(t, err)
	_, err = svc.Shipping.ChangeStatus(ctx, org, so.ID, entities.SOConfirmed)
	require.NoError(t, err)
	alloc, err := svc.Allocation.AllocateSalesOrder(ctx, org, so.ID, allocation.AllocateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 100, alloc.FulfillmentPct)
	_, err = svc.Shipping.Ship(ctx, org, so.ID)
	require.NoError(t, err)

	sim, err := svc.Recall.Simulate(ctx, org, recall.SimulateRequest{LPID: flourLP.ID})
	require.NoError(t, err)
	require.Len(t, sim.ForwardTrace, 1)
	assert.Equal(t, out.LP.ID, sim.ForwardTrace[0].LPID)
	assert.Equal(t, 2, sim.Summary.TotalAffectedLPs)
	assert.Equal(t, 1, sim.Summary.AffectedCustomers)
	assert.True(t, sim.Regulatory.Reportable)

	feed, err := svc.Activity.Recent(ctx, org, 50, nil)
	require.NoError(t, err)
	assert.Len(t, feed, len(seen))
	assert.Contains(t, seen, entities.ActivitySOShipped)
	assert.Contains(t, seen, entities.ActivityRecallSimulated)
}
