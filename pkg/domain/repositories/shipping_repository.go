package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// AllocationRepository provides access to sales order allocations
type AllocationRepository interface {
	Create(ctx context.Context, a *entities.InventoryAllocation) error
	Update(ctx context.Context, a *entities.InventoryAllocation) error
	ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.InventoryAllocation, error)
	// ActiveQuantities sums unreleased, unshipped allocations per plate
	ActiveQuantities(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// SOFilter narrows sales order listings
type SOFilter struct {
	CustomerID *uuid.UUID
	Statuses   []entities.SOStatus
	Offset     int
	Limit      int
}

// SalesOrderRepository provides access to sales orders
type SalesOrderRepository interface {
	Create(ctx context.Context, so *entities.SalesOrder) error
	Update(ctx context.Context, so *entities.SalesOrder) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.SalesOrder, error)
	List(ctx context.Context, orgID uuid.UUID, filter SOFilter) ([]*entities.SalesOrder, int, error)
}

// ShipmentRepository provides access to shipments
type ShipmentRepository interface {
	Create(ctx context.Context, s *entities.Shipment) error
	ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.Shipment, error)
	ListByLicensePlates(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) ([]*entities.Shipment, error)
}

// RMARepository provides access to return authorisations
type RMARepository interface {
	Create(ctx context.Context, r *entities.RMA) error
	Update(ctx context.Context, r *entities.RMA) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error)
}
