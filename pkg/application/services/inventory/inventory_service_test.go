package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func newService(f *fixtures.Fixture) *Service {
	svc := NewService(f.Store.LicensePlates, f.Store.Products, f.Store.Locations, f.Store.Organizations)
	svc.Now = f.Clock
	return svc
}

func stocked() *fixtures.Bakery {
	b := fixtures.NewBakery()
	west := b.AddWarehouse("WEST")
	shelf := b.AddLocation(west, "W-01")
	b.AddLP(b.Flour, "100", fixtures.ReceivedDaysAgo(10), fixtures.ExpiresInDays(5))
	b.AddLP(b.Flour, "50", fixtures.ReceivedDaysAgo(40), fixtures.WithStatus(entities.LPReserved), fixtures.ExpiresInDays(-2))
	b.AddLP(b.Flour, "25", fixtures.AtLocation(shelf), fixtures.WithStatus(entities.LPBlocked))
	b.AddLP(b.Yeast, "4", fixtures.ReceivedDaysAgo(100), fixtures.AtLocation(shelf), fixtures.ExpiresInDays(60))
	b.AddLP(b.Yeast, "9", fixtures.WithStatus(entities.LPConsumed))
	return b
}

func TestService_Aging(t *testing.T) {
	ctx := context.Background()
	b := stocked()
	svc := newService(b.Fixture)

	report, err := svc.Aging(ctx, b.OrgID(), "", Filters{})
	require.NoError(t, err)
	assert.Equal(t, entities.FIFO, report.Strategy)
	assert.Equal(t, 4, report.TotalLPs)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "FLOUR", report.Rows[0].ProductCode)
	assert.Equal(t, 1, report.Rows[1].Buckets[3].LPCount)

	fefo, err := svc.Aging(ctx, b.OrgID(), entities.FEFO, Filters{ProductID: &b.Flour.ID})
	require.NoError(t, err)
	require.Len(t, fefo.Rows, 1)
	assert.Equal(t, 1, fefo.Totals[0].LPCount, "expired")
	assert.Equal(t, 1, fefo.Totals[1].LPCount, "0-7")
	assert.Equal(t, 1, fefo.Totals[5].LPCount, "no expiry")
}

func TestService_OverviewByProduct(t *testing.T) {
	ctx := context.Background()
	b := stocked()
	svc := newService(b.Fixture)

	res, err := svc.Overview(ctx, b.OrgID(), OverviewRequest{})
	require.NoError(t, err)
	assert.Equal(t, GroupByProduct, res.GroupBy)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Products, 2)

	flour := res.Products[0]
	assert.Equal(t, "FLOUR", flour.ProductCode)
	assert.True(t, decimal.NewFromInt(100).Equal(flour.AvailableQty))
	assert.True(t, decimal.NewFromInt(50).Equal(flour.ReservedQty))
	assert.True(t, decimal.NewFromInt(25).Equal(flour.BlockedQty))
	assert.True(t, decimal.NewFromInt(175).Equal(flour.TotalQty))
	assert.Equal(t, 3, flour.LPCount)
	assert.Equal(t, 2, flour.LocationsCount)
	assert.InDelta(t, 16.7, flour.AvgAgeDays, 0.001)
	assert.True(t, decimal.NewFromInt(140).Equal(flour.TotalValue))

	assert.Equal(t, 4, res.Summary.TotalLPs)
	assert.True(t, decimal.NewFromInt(179).Equal(res.Summary.TotalQty))
	assert.True(t, decimal.NewFromInt(156).Equal(res.Summary.TotalValue))

	paged, err := svc.Overview(ctx, b.OrgID(), OverviewRequest{Page: shared.Page{Page: 2, Limit: 1}})
	require.NoError(t, err)
	require.Len(t, paged.Products, 1)
	assert.Equal(t, "YEAST", paged.Products[0].ProductCode)

	_, err = svc.Overview(ctx, b.OrgID(), OverviewRequest{Page: shared.Page{Limit: 101}})
	require.ErrorIs(t, err, entities.ErrValidation)
	_, err = svc.Overview(ctx, b.OrgID(), OverviewRequest{GroupBy: "batch"})
	require.ErrorIs(t, err, entities.ErrValidation)
}

func TestService_OverviewByLocationAndWarehouse(t *testing.T) {
	ctx := context.Background()
	b := stocked()
	svc := newService(b.Fixture)

	res, err := svc.Overview(ctx, b.OrgID(), OverviewRequest{GroupBy: GroupByLocation})
	require.NoError(t, err)
	require.Len(t, res.Locations, 2)
	assert.Equal(t, "MAIN-RECV", res.Locations[0].LocationCode)
	assert.Equal(t, 2, res.Locations[0].TotalLPs)
	assert.Equal(t, 1, res.Locations[0].ProductsCount)
	assert.Equal(t, "W-01", res.Locations[1].LocationCode)
	assert.Equal(t, 2, res.Locations[1].ProductsCount)
	assert.Equal(t, "WEST", res.Locations[1].WarehouseCode)

	res, err = svc.Overview(ctx, b.OrgID(), OverviewRequest{GroupBy: GroupByWarehouse})
	require.NoError(t, err)
	require.Len(t, res.Warehouses, 2)
	main := res.Warehouses[0]
	assert.Equal(t, "MAIN", main.WarehouseCode)
	assert.Equal(t, 1, main.ExpiringSoon)
	assert.Equal(t, 1, main.Expired)
	assert.Equal(t, 1, main.LocationsCount)
	west := res.Warehouses[1]
	assert.Equal(t, 0, west.ExpiringSoon, "60 days is outside the 30 day window")
	assert.Equal(t, 2, west.ProductsCount)
}

func TestService_ExpiringSoon(t *testing.T) {
	ctx := context.Background()
	b := stocked()
	svc := newService(b.Fixture)

	rows, err := svc.ExpiringSoon(ctx, b.OrgID(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, -2, rows[0].DaysRemaining)
	assert.Equal(t, 5, rows[1].DaysRemaining)
	assert.Equal(t, "FLOUR", rows[1].ProductCode)

	wide := 90
	rows, err = svc.ExpiringSoon(ctx, b.OrgID(), &wide)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	bad := -1
	_, err = svc.ExpiringSoon(ctx, b.OrgID(), &bad)
	require.ErrorIs(t, err, entities.ErrValidation)
}
