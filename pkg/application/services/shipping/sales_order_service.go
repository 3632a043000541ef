package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// LineRequest is one ordered product. A zero unit price takes the product's
// list price.
type LineRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SalesOrderRequest creates a draft sales order
type SalesOrderRequest struct {
	CustomerID       uuid.UUID     `json:"customer_id"`
	PromisedShipDate *time.Time    `json:"promised_ship_date,omitempty"`
	CustomerPO       string        `json:"customer_po,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	Lines            []LineRequest `json:"lines"`
}

// ListRequest filters sales orders
type ListRequest struct {
	CustomerID *uuid.UUID          `form:"customer_id"`
	Statuses   []entities.SOStatus `form:"status"`
	shared.Page
}

// ListResult is one page of sales orders, newest first
type ListResult struct {
	Items []*entities.SalesOrder `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

// Service manages sales orders, shipments and returns
type Service struct {
	orders      repositories.SalesOrderRepository
	customers   repositories.CustomerRepository
	products    repositories.ProductRepository
	allocations repositories.AllocationRepository
	shipments   repositories.ShipmentRepository
	rmas        repositories.RMARepository
	lps         repositories.LicensePlateRepository
	locations   repositories.LocationRepository
	orgs        repositories.OrganizationRepository
	transactor  repositories.Transactor
	numbers     *shared.Numberer
	publisher   shared.Publisher
	Now         func() time.Time
}

// Repositories groups the stores the shipping service needs
type Repositories struct {
	Orders      repositories.SalesOrderRepository
	Customers   repositories.CustomerRepository
	Products    repositories.ProductRepository
	Allocations repositories.AllocationRepository
	Shipments   repositories.ShipmentRepository
	RMAs        repositories.RMARepository
	LPs         repositories.LicensePlateRepository
	Locations   repositories.LocationRepository
	Orgs        repositories.OrganizationRepository
}

// NewService creates a shipping service
func NewService(repos Repositories, transactor repositories.Transactor, numbers *shared.Numberer, publisher shared.Publisher) *Service {
	return &Service{
		orders:      repos.Orders,
		customers:   repos.Customers,
		products:    repos.Products,
		allocations: repos.Allocations,
		shipments:   repos.Shipments,
		rmas:        repos.RMAs,
		lps:         repos.LPs,
		locations:   repos.Locations,
		orgs:        repos.Orgs,
		transactor:  transactor,
		numbers:     numbers,
		publisher:   publisher,
		Now:         time.Now,
	}
}

func (s *Service) buildLines(ctx context.Context, orgID uuid.UUID, reqs []LineRequest) ([]entities.SalesOrderLine, error) {
	ids := make([]uuid.UUID, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ProductID
	}
	products, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	lines := make([]entities.SalesOrderLine, len(reqs))
	for i, r := range reqs {
		p, ok := products[r.ProductID]
		if !ok {
			return nil, entities.NotFoundError("line %d: product %s not found", i+1, r.ProductID)
		}
		price := r.UnitPrice
		if price.IsZero() {
			price = p.UnitPrice
		}
		lines[i] = entities.SalesOrderLine{
			ProductID:         p.ID,
			QuantityOrdered:   r.Quantity,
			QuantityAllocated: decimal.Zero,
			QuantityShipped:   decimal.Zero,
			UnitPrice:         price,
		}
	}
	return lines, nil
}

// CreateSalesOrder stores a draft order numbered SO-YYYY-NNNNN
func (s *Service) CreateSalesOrder(ctx context.Context, orgID uuid.UUID, req SalesOrderRequest) (*entities.SalesOrder, error) {
	if _, err := s.customers.Get(ctx, orgID, req.CustomerID); err != nil {
		return nil, err
	}
	lines, err := s.buildLines(ctx, orgID, req.Lines)
	if err != nil {
		return nil, err
	}

	var so *entities.SalesOrder
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		now := s.Now().UTC()
		number, err := s.numbers.Yearly(ctx, orgID, shared.KindSalesOrder, now)
		if err != nil {
			return err
		}
		if so, err = entities.NewSalesOrder(orgID, number, req.CustomerID, lines, now); err != nil {
			return err
		}
		so.PromisedShipDate = req.PromisedShipDate
		so.CustomerPO = req.CustomerPO
		so.Notes = req.Notes
		return s.orders.Create(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("so_id", so.ID.String()).Str("order_number", so.OrderNumber).Msg("sales order created")
	return so, nil
}

// GetSalesOrder returns one order
func (s *Service) GetSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*entities.SalesOrder, error) {
	return s.orders.Get(ctx, orgID, id)
}

// ListSalesOrders returns a page of orders
func (s *Service) ListSalesOrders(ctx context.Context, orgID uuid.UUID, req ListRequest) (*ListResult, error) {
	page := req.Page.Normalize()
	items, total, err := s.orders.List(ctx, orgID, repositories.SOFilter{
		CustomerID: req.CustomerID,
		Statuses:   req.Statuses,
		Offset:     page.Offset(),
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sales orders: %w", err)
	}
	return &ListResult{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// UpdateLines replaces a draft order's lines
func (s *Service) UpdateLines(ctx context.Context, orgID, id uuid.UUID, reqs []LineRequest) (*entities.SalesOrder, error) {
	lines, err := s.buildLines(ctx, orgID, reqs)
	if err != nil {
		return nil, err
	}
	var so *entities.SalesOrder
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		if so, err = s.orders.Get(ctx, orgID, id); err != nil {
			return err
		}
		if err := so.SetLines(lines); err != nil {
			return err
		}
		so.UpdatedAt = s.Now().UTC()
		return s.orders.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	return so, nil
}

// ChangeStatus applies a manual status change. Allocation and shipping have
// their own operations; cancelling releases any active allocations.
func (s *Service) ChangeStatus(ctx context.Context, orgID, id uuid.UUID, next entities.SOStatus) (*entities.SalesOrder, error) {
	if next == entities.SOAllocated {
		return nil, entities.ValidationError("orders become allocated through allocation")
	}
	var so *entities.SalesOrder
	var prev entities.SOStatus
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if so, err = s.orders.Get(ctx, orgID, id); err != nil {
			return err
		}
		prev = so.Status
		now := s.Now().UTC()
		if err := so.ChangeStatus(next, now); err != nil {
			return err
		}
		if next == entities.SOCancelled {
			if err := s.releaseAll(ctx, orgID, so, now); err != nil {
				return err
			}
		}
		return s.orders.Update(ctx, so)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivitySOStatusChanged, so.ID,
		fmt.Sprintf("%s %s -> %s", so.OrderNumber, prev, next), nil)
	return so, nil
}

func (s *Service) releaseAll(ctx context.Context, orgID uuid.UUID, so *entities.SalesOrder, now time.Time) error {
	all, err := s.allocations.ListBySalesOrder(ctx, orgID, so.ID)
	if err != nil {
		return fmt.Errorf("failed to load allocations: %w", err)
	}
	for _, a := range all {
		if !a.IsActive() {
			continue
		}
		if err := a.Release(now); err != nil {
			return err
		}
		if line, ok := so.Line(a.SalesOrderLineID); ok {
			line.QuantityAllocated = decimal.Max(decimal.Zero, line.QuantityAllocated.Sub(a.Quantity))
		}
		if err := s.allocations.Update(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies an order into a new draft with today's date and zeroed
// fulfilment. Promised date and customer PO are not carried over.
func (s *Service) Clone(ctx context.Context, orgID, id uuid.UUID) (*entities.SalesOrder, error) {
	var clone *entities.SalesOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		so, err := s.orders.Get(ctx, orgID, id)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		number, err := s.numbers.Yearly(ctx, orgID, shared.KindSalesOrder, now)
		if err != nil {
			return err
		}
		clone = so.CloneAs(number, now)
		return s.orders.Create(ctx, clone)
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}
