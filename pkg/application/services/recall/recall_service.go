package recall

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// SimulateRequest names the plate to recall. Zero depth uses the trace
// default.
type SimulateRequest struct {
	LPID     uuid.UUID `json:"lp_id"`
	MaxDepth int       `json:"max_depth"`
}

// Service simulates the reach and cost of a recall
type Service struct {
	genealogy *genealogy.Service
	lps       repositories.LicensePlateRepository
	products  repositories.ProductRepository
	locations repositories.LocationRepository
	shipments repositories.ShipmentRepository
	customers repositories.CustomerRepository
	estimator *services.RecallEstimator
	publisher shared.Publisher
	Now       func() time.Time
}

// NewService creates a recall service
func NewService(
	genealogySvc *genealogy.Service,
	lps repositories.LicensePlateRepository,
	products repositories.ProductRepository,
	locations repositories.LocationRepository,
	shipments repositories.ShipmentRepository,
	customers repositories.CustomerRepository,
	publisher shared.Publisher,
) *Service {
	return &Service{
		genealogy: genealogySvc,
		lps:       lps,
		products:  products,
		locations: locations,
		shipments: shipments,
		customers: customers,
		estimator: services.NewRecallEstimator(),
		publisher: publisher,
		Now:       time.Now,
	}
}

// Simulate traces where the plate came from and everywhere it went, then
// sizes the recall of the plate and its descendants
func (s *Service) Simulate(ctx context.Context, orgID uuid.UUID, req SimulateRequest) (*dto.RecallSimulation, error) {
	started := time.Now()

	root, err := s.lps.Get(ctx, orgID, req.LPID)
	if err != nil {
		return nil, err
	}
	backward, err := s.genealogy.BackwardTrace(ctx, orgID, root.ID, req.MaxDepth, false)
	if err != nil {
		return nil, err
	}
	forward, err := s.genealogy.ForwardTrace(ctx, orgID, root.ID, req.MaxDepth, false)
	if err != nil {
		return nil, err
	}

	ids := []uuid.UUID{root.ID}
	for _, n := range forward.Nodes {
		ids = append(ids, n.LPID)
	}
	affected, err := s.lps.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load affected plates: %w", err)
	}
	productIDs := make([]uuid.UUID, 0, len(affected))
	for _, lp := range affected {
		productIDs = append(productIDs, lp.ProductID)
	}
	products, err := s.products.GetMany(ctx, orgID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	shipments, err := s.shipments.ListByLicensePlates(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipments: %w", err)
	}

	now := s.Now().UTC()
	sim := &dto.RecallSimulation{
		SimulationID:  entities.NewID(),
		RootLP:        genealogy.NodeOf(root, products[root.ProductID]),
		BackwardTrace: backward.Nodes,
		ForwardTrace:  forward.Nodes,
		CreatedAt:     now,
	}

	onHandValue := decimal.Zero
	warehouses := make(map[uuid.UUID]bool)
	typeSet := make(map[string]bool)
	sim.Summary.TotalQuantity = decimal.Zero
	for _, id := range ids {
		lp, ok := affected[id]
		if !ok {
			continue
		}
		sim.Summary.TotalAffectedLPs++
		sim.Summary.TotalQuantity = sim.Summary.TotalQuantity.Add(lp.Quantity)
		warehouses[lp.WarehouseID] = true
		countStatus(&sim.Summary.StatusBreakdown, lp)
		if p, ok := products[lp.ProductID]; ok {
			onHandValue = onHandValue.Add(lp.Quantity.Mul(p.UnitCost))
			typeSet[string(p.Type)] = true
		}
	}
	sim.Summary.AffectedWarehouses = len(warehouses)

	if sim.Locations, err = s.locationsOf(ctx, orgID, ids, affected); err != nil {
		return nil, err
	}

	shippedValue, shippedQty, shippedCost := decimal.Zero, decimal.Zero, decimal.Zero
	for _, sh := range shipments {
		for _, l := range sh.Lines {
			if _, ok := affected[l.LicensePlateID]; !ok {
				continue
			}
			shippedQty = shippedQty.Add(l.Quantity)
			shippedValue = shippedValue.Add(l.Quantity.Mul(l.UnitPrice))
			if p, ok := products[l.ProductID]; ok {
				shippedCost = shippedCost.Add(l.Quantity.Mul(p.UnitCost))
			}
		}
	}
	if sim.Customers, err = s.customersOf(ctx, orgID, shipments, affected); err != nil {
		return nil, err
	}
	sim.Summary.AffectedCustomers = len(sim.Customers)
	sim.Summary.TotalQuantity = sim.Summary.TotalQuantity.Add(shippedQty)
	sim.Summary.TotalEstimatedValue = onHandValue.Add(shippedCost).Round(2)

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	sim.Financial = s.estimator.Financial(onHandValue, shippedValue)
	sim.Regulatory = s.estimator.Regulatory(shippedQty.IsPositive(), types, now)
	sim.ExecutionTimeMS = time.Since(started).Milliseconds()

	zerolog.Ctx(ctx).Info().
		Str("lp_number", root.LPNumber).
		Int("affected_lps", sim.Summary.TotalAffectedLPs).
		Int("affected_customers", sim.Summary.AffectedCustomers).
		Bool("reportable", sim.Regulatory.Reportable).
		Msg("recall simulated")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityRecallSimulated, root.ID,
		fmt.Sprintf("recall of %s reaches %d LPs and %d customers", root.LPNumber, sim.Summary.TotalAffectedLPs, sim.Summary.AffectedCustomers),
		map[string]any{"simulation_id": sim.SimulationID, "total_estimated_cost": sim.Financial.TotalEstimatedCost})
	return sim, nil
}

func countStatus(b *dto.StatusBreakdown, lp *entities.LicensePlate) {
	switch {
	case lp.Status == entities.LPBlocked || lp.QAStatus == entities.QAQuarantine:
		b.Quarantine++
	case lp.Status == entities.LPReserved:
		b.InProduction++
	case lp.Status == entities.LPShipped:
		b.Shipped++
	case lp.Status == entities.LPConsumed:
		b.Consumed++
	default:
		b.Available++
	}
}

// locationsOf groups plates still holding stock by location, largest first
func (s *Service) locationsOf(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, affected map[uuid.UUID]*entities.LicensePlate) ([]dto.RecallLocation, error) {
	warehouses, err := s.locations.ListWarehouses(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load warehouses: %w", err)
	}
	locs, err := s.locations.ListLocations(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	whName := make(map[uuid.UUID]string, len(warehouses))
	for _, w := range warehouses {
		whName[w.ID] = w.Name
	}
	locCode := make(map[uuid.UUID]string, len(locs))
	for _, l := range locs {
		locCode[l.ID] = l.Code
	}

	byLoc := make(map[uuid.UUID]*dto.RecallLocation)
	var order []uuid.UUID
	for _, id := range ids {
		lp, ok := affected[id]
		if !ok || !lp.IsActive() {
			continue
		}
		row, ok := byLoc[lp.LocationID]
		if !ok {
			row = &dto.RecallLocation{
				WarehouseID:   lp.WarehouseID,
				WarehouseName: whName[lp.WarehouseID],
				LocationID:    lp.LocationID,
				LocationCode:  locCode[lp.LocationID],
				TotalQuantity: decimal.Zero,
			}
			byLoc[lp.LocationID] = row
			order = append(order, lp.LocationID)
		}
		row.AffectedLPs++
		row.TotalQuantity = row.TotalQuantity.Add(lp.Quantity)
	}
	out := make([]dto.RecallLocation, 0, len(order))
	for _, id := range order {
		out = append(out, *byLoc[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalQuantity.GreaterThan(out[j].TotalQuantity) })
	return out, nil
}

// customersOf folds shipment lines of affected plates per customer
func (s *Service) customersOf(ctx context.Context, orgID uuid.UUID, shipments []*entities.Shipment, affected map[uuid.UUID]*entities.LicensePlate) ([]dto.RecallCustomer, error) {
	byCustomer := make(map[uuid.UUID]*dto.RecallCustomer)
	var order []uuid.UUID
	for _, sh := range shipments {
		hit := false
		for _, l := range sh.Lines {
			if _, ok := affected[l.LicensePlateID]; !ok {
				continue
			}
			row, ok := byCustomer[sh.CustomerID]
			if !ok {
				row = &dto.RecallCustomer{
					CustomerID:         sh.CustomerID,
					ShippedQuantity:    decimal.Zero,
					ShippedValue:       decimal.Zero,
					ShipmentNumbers:    []string{},
					NotificationStatus: "pending",
				}
				byCustomer[sh.CustomerID] = row
				order = append(order, sh.CustomerID)
			}
			row.ShippedQuantity = row.ShippedQuantity.Add(l.Quantity)
			row.ShippedValue = row.ShippedValue.Add(l.Quantity.Mul(l.UnitPrice))
			if sh.ShippedAt.After(row.ShipDate) {
				row.ShipDate = sh.ShippedAt
			}
			if !hit {
				row.ShipmentNumbers = append(row.ShipmentNumbers, sh.ShipmentNumber)
				hit = true
			}
		}
	}
	if len(order) == 0 {
		return []dto.RecallCustomer{}, nil
	}

	customers, err := s.customers.GetMany(ctx, orgID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	out := make([]dto.RecallCustomer, 0, len(order))
	for _, id := range order {
		row := byCustomer[id]
		if c, ok := customers[id]; ok {
			row.CustomerName = c.Name
			row.ContactEmail = c.Email
		}
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CustomerName < out[j].CustomerName })
	return out, nil
}
