package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func newService(f *fixtures.Fixture) *Service {
	st := f.Store
	svc := NewService(st.Products, st.Locations, st.Customers, st.BOMs, st)
	svc.Now = f.Clock
	return svc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestService_Products(t *testing.T) {
	ctx := context.Background()
	f := fixtures.New()
	svc := newService(f)

	req := ProductRequest{
		Code: "SUGAR", Name: "Cane sugar", Type: entities.RawMaterial, UOM: "KG",
		UnitCost: dec("1.10"), UnitPrice: dec("1.60"), ShelfLifeDays: 365,
	}
	p, err := svc.CreateProduct(ctx, f.OrgID(), req)
	require.NoError(t, err)
	assert.Equal(t, f.OrgID(), p.OrgID)
	assert.True(t, p.CreatedAt.Equal(fixtures.BaseDate))

	_, err = svc.CreateProduct(ctx, f.OrgID(), req)
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.CreateProduct(ctx, f.OrgID(), ProductRequest{Name: "no code", Type: entities.RawMaterial, UOM: "KG"})
	assert.ErrorIs(t, err, entities.ErrValidation)

	got, err := svc.GetProduct(ctx, f.OrgID(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "SUGAR", got.Code)

	other := fixtures.NewInStore(f.Store, "Other Bakery")
	_, err = svc.GetProduct(ctx, other.OrgID(), p.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	// the same code is free in another organization
	_, err = svc.CreateProduct(ctx, other.OrgID(), req)
	require.NoError(t, err)

	list, err := svc.ListProducts(ctx, f.OrgID())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_WarehousesAndLocations(t *testing.T) {
	ctx := context.Background()
	f := fixtures.New()
	svc := newService(f)

	w, err := svc.CreateWarehouse(ctx, f.OrgID(), WarehouseRequest{Code: "COLD", Name: "Cold store"})
	require.NoError(t, err)

	loc, err := svc.CreateLocation(ctx, f.OrgID(), LocationRequest{WarehouseID: w.ID, Code: "COLD-01", Name: "Rack 1"})
	require.NoError(t, err)
	assert.Equal(t, entities.Shelf, loc.Type)

	_, err = svc.CreateLocation(ctx, f.OrgID(), LocationRequest{WarehouseID: w.ID, Code: "COLD-01", Name: "again"})
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.CreateLocation(ctx, f.OrgID(), LocationRequest{WarehouseID: uuid.New(), Code: "NOWHERE", Name: "x"})
	assert.ErrorIs(t, err, entities.ErrNotFound)

	warehouses, err := svc.ListWarehouses(ctx, f.OrgID())
	require.NoError(t, err)
	assert.Len(t, warehouses, 2)

	locations, err := svc.ListLocations(ctx, f.OrgID())
	require.NoError(t, err)
	assert.Len(t, locations, 2)
}

func TestService_Customers(t *testing.T) {
	ctx := context.Background()
	f := fixtures.New()
	svc := newService(f)

	c, err := svc.CreateCustomer(ctx, f.OrgID(), CustomerRequest{Name: "Corner Cafe", Email: "orders@cafe.test"})
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", c.Name)

	_, err = svc.CreateCustomer(ctx, f.OrgID(), CustomerRequest{})
	assert.ErrorIs(t, err, entities.ErrValidation)

	list, err := svc.ListCustomers(ctx, f.OrgID())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_BOMLifecycle(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	draft, err := svc.CreateBOM(ctx, b.OrgID(), BOMRequest{
		ProductID: b.Dough.ID,
		OutputQty: dec("10"),
		Items: []BOMItemRequest{
			{ComponentID: b.Flour.ID, Quantity: dec("7.5")},
			{ComponentID: b.Yeast.ID, Quantity: dec("0.5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, draft.Version)
	assert.Equal(t, entities.BOMDraft, draft.Status)

	updated, err := svc.UpdateBOM(ctx, b.OrgID(), draft.ID, BOMRequest{
		OutputQty: dec("10"),
		Items: []BOMItemRequest{
			{ComponentID: b.Flour.ID, Quantity: dec("8"), ScrapPct: dec("2.5")},
			{ComponentID: b.Yeast.ID, Quantity: dec("0.4")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, b.Dough.ID, updated.ProductID)
	assert.True(t, updated.Items[0].GrossQuantity().Equal(dec("8.2")))

	active, err := svc.ActivateBOM(ctx, b.OrgID(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BOMActive, active.Status)

	previous, err := svc.GetBOM(ctx, b.OrgID(), b.DoughBOM.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BOMObsolete, previous.Status)

	current, err := svc.ActiveBOM(ctx, b.OrgID(), b.Dough.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, current.ID)

	_, err = svc.UpdateBOM(ctx, b.OrgID(), draft.ID, BOMRequest{OutputQty: dec("10")})
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.ActivateBOM(ctx, b.OrgID(), draft.ID)
	assert.ErrorIs(t, err, entities.ErrConflict)

	_, err = svc.ActiveBOM(ctx, b.OrgID(), b.Flour.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestService_ActivateBOMRejectsCycles(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	// flour made from bread closes flour -> dough -> bread -> flour
	draft, err := svc.CreateBOM(ctx, b.OrgID(), BOMRequest{
		ProductID: b.Flour.ID,
		OutputQty: dec("1"),
		Items:     []BOMItemRequest{{ComponentID: b.Bread.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.Version)

	_, err = svc.ActivateBOM(ctx, b.OrgID(), draft.ID)
	assert.ErrorIs(t, err, entities.ErrValidation)

	stored, err := svc.GetBOM(ctx, b.OrgID(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BOMDraft, stored.Status)
}

func TestService_CreateBOMRejects(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	tests := []struct {
		name string
		req  BOMRequest
		want error
	}{
		{
			name: "unknown product",
			req:  BOMRequest{ProductID: uuid.New(), OutputQty: dec("1"), Items: []BOMItemRequest{{ComponentID: b.Flour.ID, Quantity: dec("1")}}},
			want: entities.ErrNotFound,
		},
		{
			name: "unknown component",
			req:  BOMRequest{ProductID: b.Bread.ID, OutputQty: dec("1"), Items: []BOMItemRequest{{ComponentID: uuid.New(), Quantity: dec("1")}}},
			want: entities.ErrNotFound,
		},
		{
			name: "zero quantity",
			req:  BOMRequest{ProductID: b.Bread.ID, OutputQty: dec("1"), Items: []BOMItemRequest{{ComponentID: b.Dough.ID, Quantity: decimal.Zero}}},
			want: entities.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBOM(ctx, b.OrgID(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_Cost(t *testing.T) {
	ctx := context.Background()
	b := fixtures.NewBakery()
	svc := newService(b.Fixture)

	cost, err := svc.Cost(ctx, b.OrgID(), b.DoughBOM.ID)
	require.NoError(t, err)
	require.Len(t, cost.Lines, 2)
	// 8 * 0.80 + 0.5 * 4.00
	assert.True(t, cost.TotalCost.Equal(dec("8.4")), cost.TotalCost.String())
	assert.True(t, cost.CostPerUnit.Equal(dec("0.84")), cost.CostPerUnit.String())
	assert.Equal(t, "FLOUR", cost.Lines[0].ComponentCode)

	_, err = svc.Cost(ctx, b.OrgID(), uuid.New())
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
