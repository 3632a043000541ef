package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// AllocationRepository provides in-memory allocation storage
type AllocationRepository struct {
	rows *table[*entities.InventoryAllocation]
}

// NewAllocationRepository creates a new in-memory allocation repository
func NewAllocationRepository() *AllocationRepository {
	return &AllocationRepository{rows: newTable("allocation",
		func(a *entities.InventoryAllocation) (uuid.UUID, uuid.UUID) { return a.OrgID, a.ID },
		(*entities.InventoryAllocation).Clone)}
}

var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

func sameActiveAllocation(a *entities.InventoryAllocation) func(*entities.InventoryAllocation) bool {
	return func(existing *entities.InventoryAllocation) bool {
		return a.IsActive() && existing.IsActive() &&
			existing.SalesOrderLineID == a.SalesOrderLineID &&
			existing.LicensePlateID == a.LicensePlateID
	}
}

func (r *AllocationRepository) Create(ctx context.Context, a *entities.InventoryAllocation) error {
	return r.rows.insert(a, sameActiveAllocation(a))
}

func (r *AllocationRepository) Update(ctx context.Context, a *entities.InventoryAllocation) error {
	return r.rows.update(a, sameActiveAllocation(a))
}

func (r *AllocationRepository) ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.InventoryAllocation, error) {
	return r.rows.filter(orgID, func(a *entities.InventoryAllocation) bool { return a.SalesOrderID == soID }), nil
}

func (r *AllocationRepository) ActiveQuantities(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	want := make(map[uuid.UUID]bool, len(lpIDs))
	for _, id := range lpIDs {
		want[id] = true
	}
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, a := range r.rows.filter(orgID, func(a *entities.InventoryAllocation) bool {
		return a.IsActive() && want[a.LicensePlateID]
	}) {
		out[a.LicensePlateID] = out[a.LicensePlateID].Add(a.Quantity)
	}
	return out, nil
}

// SalesOrderRepository provides in-memory sales order storage
type SalesOrderRepository struct {
	rows *table[*entities.SalesOrder]
}

// NewSalesOrderRepository creates a new in-memory sales order repository
func NewSalesOrderRepository() *SalesOrderRepository {
	return &SalesOrderRepository{rows: newTable("sales order",
		func(so *entities.SalesOrder) (uuid.UUID, uuid.UUID) { return so.OrgID, so.ID },
		(*entities.SalesOrder).Clone)}
}

var _ repositories.SalesOrderRepository = (*SalesOrderRepository)(nil)

func sameOrderNumber(so *entities.SalesOrder) func(*entities.SalesOrder) bool {
	return func(existing *entities.SalesOrder) bool { return existing.OrderNumber == so.OrderNumber }
}

func (r *SalesOrderRepository) Create(ctx context.Context, so *entities.SalesOrder) error {
	return r.rows.insert(so, sameOrderNumber(so))
}

func (r *SalesOrderRepository) Update(ctx context.Context, so *entities.SalesOrder) error {
	return r.rows.update(so, sameOrderNumber(so))
}

func (r *SalesOrderRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.SalesOrder, error) {
	return r.rows.get(orgID, id)
}

// List returns newest orders first
func (r *SalesOrderRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.SOFilter) ([]*entities.SalesOrder, int, error) {
	out := r.rows.filter(orgID, func(so *entities.SalesOrder) bool {
		if f.CustomerID != nil && so.CustomerID != *f.CustomerID {
			return false
		}
		if len(f.Statuses) == 0 {
			return true
		}
		for _, s := range f.Statuses {
			if so.Status == s {
				return true
			}
		}
		return false
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if f.Offset >= len(out) {
		return []*entities.SalesOrder{}, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

// ShipmentRepository provides in-memory shipment storage
type ShipmentRepository struct {
	rows *table[*entities.Shipment]
}

// NewShipmentRepository creates a new in-memory shipment repository
func NewShipmentRepository() *ShipmentRepository {
	return &ShipmentRepository{rows: newTable("shipment",
		func(s *entities.Shipment) (uuid.UUID, uuid.UUID) { return s.OrgID, s.ID },
		(*entities.Shipment).Clone)}
}

var _ repositories.ShipmentRepository = (*ShipmentRepository)(nil)

func (r *ShipmentRepository) Create(ctx context.Context, s *entities.Shipment) error {
	return r.rows.insert(s, nil)
}

func (r *ShipmentRepository) ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.Shipment, error) {
	return r.rows.filter(orgID, func(s *entities.Shipment) bool { return s.SalesOrderID == soID }), nil
}

// ListByLicensePlates returns shipments with at least one line from lpIDs
func (r *ShipmentRepository) ListByLicensePlates(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) ([]*entities.Shipment, error) {
	want := make(map[uuid.UUID]bool, len(lpIDs))
	for _, id := range lpIDs {
		want[id] = true
	}
	return r.rows.filter(orgID, func(s *entities.Shipment) bool {
		for _, l := range s.Lines {
			if want[l.LicensePlateID] {
				return true
			}
		}
		return false
	}), nil
}

// RMARepository provides in-memory RMA storage
type RMARepository struct {
	rows *table[*entities.RMA]
}

// NewRMARepository creates a new in-memory RMA repository
func NewRMARepository() *RMARepository {
	return &RMARepository{rows: newTable("rma",
		func(r *entities.RMA) (uuid.UUID, uuid.UUID) { return r.OrgID, r.ID },
		(*entities.RMA).Clone)}
}

var _ repositories.RMARepository = (*RMARepository)(nil)

func (r *RMARepository) Create(ctx context.Context, rma *entities.RMA) error {
	return r.rows.insert(rma, nil)
}

func (r *RMARepository) Update(ctx context.Context, rma *entities.RMA) error {
	return r.rows.update(rma, nil)
}

func (r *RMARepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	return r.rows.get(orgID, id)
}
