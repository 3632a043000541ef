//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vsinha/monopilot/pkg/application/services/catalog"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) *Store {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "monopilot",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/monopilot?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, pool))
	// a second run is a no-op
	require.NoError(t, Migrate(ctx, pool))

	store := NewStore(pool)
	t.Cleanup(store.Close)
	return store
}

type services struct {
	orgs    *organization.Service
	catalog *catalog.Service
	lps     *licenseplate.Service
	trace   *genealogy.Service
}

func newServices(st *Store) services {
	rec := events.NewRecorder(st.Activity)
	gen := genealogy.NewService(st.Genealogy, st.LicensePlates, st.Products, rec)
	return services{
		orgs:    organization.NewService(st.Organizations, st.Locations, st),
		catalog: catalog.NewService(st.Products, st.Locations, st.Customers, st.BOMs, st),
		lps: licenseplate.NewService(st.LicensePlates, st.Allocations, st.Products, st.Locations, st.Organizations, st,
			shared.NewNumberer(st.Sequences), gen, rec),
		trace: gen,
	}
}

func TestIntegration_InventoryLifecycle(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)
	svc := newServices(st)

	onboarded, err := svc.orgs.Onboard(ctx, organization.OnboardRequest{
		Name: "North Mill", WarehouseCode: "MAIN", WarehouseName: "Main", LocationCode: "RECV",
	})
	require.NoError(t, err)
	orgID := onboarded.Organization.ID

	flour, err := svc.catalog.CreateProduct(ctx, orgID, catalog.ProductRequest{
		Code: "FLOUR", Name: "Flour", Type: entities.RawMaterial, UOM: "KG",
		UnitCost: decimal.RequireFromString("0.80"), ShelfLifeDays: 180,
	})
	require.NoError(t, err)

	t.Run("unique product code maps to conflict", func(t *testing.T) {
		_, err := svc.catalog.CreateProduct(ctx, orgID, catalog.ProductRequest{
			Code: "FLOUR", Name: "Again", Type: entities.RawMaterial, UOM: "KG",
		})
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	lp, err := svc.lps.Create(ctx, orgID, licenseplate.CreateRequest{
		ProductID:  flour.ID,
		Quantity:   decimal.NewFromInt(100),
		LocationID: onboarded.Location.ID,
		QAStatus:   entities.QAPassed,
	})
	require.NoError(t, err)
	assert.Equal(t, "LP00000001", lp.LPNumber)
	require.NotNil(t, lp.ExpiryDate)

	t.Run("other organizations cannot read the plate", func(t *testing.T) {
		_, err := st.LicensePlates.Get(ctx, uuid.New(), lp.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	split, err := svc.lps.Split(ctx, orgID, lp.ID, licenseplate.SplitRequest{Quantity: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.True(t, split.RemainingQuantity.Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "LP00000002", split.NewLP.LPNumber)

	t.Run("forward trace walks the split", func(t *testing.T) {
		trace, err := svc.trace.ForwardTrace(ctx, orgID, lp.ID, 10, false)
		require.NoError(t, err)
		require.Len(t, trace.Nodes, 1)
		assert.Equal(t, split.NewLP.ID, trace.Nodes[0].LPID)
		assert.Equal(t, 1, trace.Nodes[0].Depth)
		assert.False(t, trace.HasMoreLevels)

		back, err := svc.trace.BackwardTrace(ctx, orgID, split.NewLP.ID, 10, false)
		require.NoError(t, err)
		require.Len(t, back.Nodes, 1)
		assert.Equal(t, lp.ID, back.Nodes[0].LPID)
	})

	t.Run("duplicate active link maps to conflict", func(t *testing.T) {
		_, err := svc.trace.LinkSplit(ctx, orgID, lp.ID, split.NewLP.ID, decimal.NewFromInt(30))
		assert.ErrorIs(t, err, entities.ErrConflict)
	})

	t.Run("list pages with total", func(t *testing.T) {
		page, err := svc.lps.List(ctx, orgID, licenseplate.ListRequest{Page: shared.Page{Page: 1, Limit: 1}})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, lp.ID, page.Items[0].ID)
	})

	t.Run("activity is newest first", func(t *testing.T) {
		recent, err := st.Activity.Recent(ctx, orgID, 10, nil)
		require.NoError(t, err)
		require.NotEmpty(t, recent)
		for i := 1; i < len(recent); i++ {
			assert.Greater(t, recent[i-1].ID, recent[i].ID)
		}
	})
}

func TestIntegration_TraceReachesEachPlateOnce(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)
	svc := newServices(st)

	onboarded, err := svc.orgs.Onboard(ctx, organization.OnboardRequest{
		Name: "Diamond Bakery", WarehouseCode: "MAIN", WarehouseName: "Main", LocationCode: "RECV",
	})
	require.NoError(t, err)
	orgID := onboarded.Organization.ID
	flour, err := svc.catalog.CreateProduct(ctx, orgID, catalog.ProductRequest{
		Code: "FLOUR", Name: "Flour", Type: entities.RawMaterial, UOM: "KG",
	})
	require.NoError(t, err)

	plate := func() *entities.LicensePlate {
		lp, err := svc.lps.Create(ctx, orgID, licenseplate.CreateRequest{
			ProductID: flour.ID, Quantity: decimal.NewFromInt(10), LocationID: onboarded.Location.ID,
		})
		require.NoError(t, err)
		return lp
	}
	root, left, right, join, tail := plate(), plate(), plate(), plate(), plate()
	for _, pair := range [][2]*entities.LicensePlate{{root, left}, {root, right}, {left, join}, {right, join}, {join, tail}} {
		_, err := svc.trace.LinkConsumption(ctx, orgID, genealogy.LinkRequest{
			ParentLPID: pair[0].ID, ChildLPID: pair[1].ID, Quantity: decimal.NewFromInt(1),
		})
		require.NoError(t, err)
	}

	trace, err := svc.trace.ForwardTrace(ctx, orgID, root.ID, 10, false)
	require.NoError(t, err)
	depths := make(map[uuid.UUID]int)
	for _, n := range trace.Nodes {
		_, dup := depths[n.LPID]
		require.False(t, dup, "plate %s reached twice", n.LPID)
		depths[n.LPID] = n.Depth
	}
	assert.Equal(t, map[uuid.UUID]int{left.ID: 1, right.ID: 1, join.ID: 2, tail.ID: 3}, depths)

	back, err := svc.trace.BackwardTrace(ctx, orgID, tail.ID, 10, false)
	require.NoError(t, err)
	assert.Len(t, back.Nodes, 4)
}

func TestIntegration_Sequences(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)
	svc := newServices(st)

	onboarded, err := svc.orgs.Onboard(ctx, organization.OnboardRequest{
		Name: "Seq Org", WarehouseCode: "W1", WarehouseName: "W1", LocationCode: "L1",
	})
	require.NoError(t, err)
	orgID := onboarded.Organization.ID

	peek, err := st.Sequences.Peek(ctx, orgID, "SO-2025")
	require.NoError(t, err)
	assert.EqualValues(t, 1, peek)

	first, err := st.Sequences.Next(ctx, orgID, "SO-2025")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first)

	require.NoError(t, st.Sequences.Bump(ctx, orgID, "SO-2025", 41))
	require.NoError(t, st.Sequences.Bump(ctx, orgID, "SO-2025", 5))

	next, err := st.Sequences.Next(ctx, orgID, "SO-2025")
	require.NoError(t, err)
	assert.EqualValues(t, 42, next)
}

func TestIntegration_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	st := setupPostgresContainer(t, ctx)
	svc := newServices(st)

	onboarded, err := svc.orgs.Onboard(ctx, organization.OnboardRequest{
		Name: "Tx Org", WarehouseCode: "W1", WarehouseName: "W1", LocationCode: "L1",
	})
	require.NoError(t, err)
	orgID := onboarded.Organization.ID

	boom := fmt.Errorf("boom")
	err = st.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := st.Sequences.Next(ctx, orgID, "LP"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	peek, err := st.Sequences.Peek(ctx, orgID, "LP")
	require.NoError(t, err)
	assert.EqualValues(t, 1, peek)
}
