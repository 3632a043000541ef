package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// WorkOrderRequest creates or edits a work order. A nil BOMID takes the
// product's active BOM.
type WorkOrderRequest struct {
	ProductID      uuid.UUID           `json:"product_id"`
	BOMID          *uuid.UUID          `json:"bom_id,omitempty"`
	PlannedQty     decimal.Decimal     `json:"planned_qty"`
	Priority       entities.WOPriority `json:"priority,omitempty"`
	LineCode       string              `json:"line_code,omitempty"`
	ScheduledStart *time.Time          `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time          `json:"scheduled_end,omitempty"`
}

// Availability is the material position of a work order
type Availability struct {
	WorkOrderID  uuid.UUID             `json:"work_order_id"`
	BOMID        uuid.UUID             `json:"bom_id"`
	PlannedQty   decimal.Decimal       `json:"planned_qty"`
	Status       string                `json:"status"`
	Requirements []MaterialRequirement `json:"requirements"`
}

// Service runs work orders from planning to output
type Service struct {
	orders      repositories.WorkOrderRepository
	products    repositories.ProductRepository
	boms        repositories.BOMRepository
	lps         repositories.LicensePlateRepository
	allocations repositories.AllocationRepository
	locations   repositories.LocationRepository
	orgs        repositories.OrganizationRepository
	transactor  repositories.Transactor
	numbers     *shared.Numberer
	genealogy   *genealogy.Service
	traverser   *BOMTraverser
	publisher   shared.Publisher
	Now         func() time.Time
}

// Repositories groups the stores the planning service needs
type Repositories struct {
	WorkOrders  repositories.WorkOrderRepository
	Products    repositories.ProductRepository
	BOMs        repositories.BOMRepository
	LPs         repositories.LicensePlateRepository
	Allocations repositories.AllocationRepository
	Locations   repositories.LocationRepository
	Orgs        repositories.OrganizationRepository
}

// NewService creates a planning service
func NewService(repos Repositories, transactor repositories.Transactor, numbers *shared.Numberer, genealogySvc *genealogy.Service, publisher shared.Publisher) *Service {
	return &Service{
		orders:      repos.WorkOrders,
		products:    repos.Products,
		boms:        repos.BOMs,
		lps:         repos.LPs,
		allocations: repos.Allocations,
		locations:   repos.Locations,
		orgs:        repos.Orgs,
		transactor:  transactor,
		numbers:     numbers,
		genealogy:   genealogySvc,
		traverser:   NewBOMTraverser(repos.BOMs, repos.Products),
		publisher:   publisher,
		Now:         time.Now,
	}
}

// resolveBOM checks an explicit BOM belongs to the product, or finds the
// active one. A product without any active BOM yields nil.
func (s *Service) resolveBOM(ctx context.Context, orgID, productID uuid.UUID, bomID *uuid.UUID) (*uuid.UUID, error) {
	if bomID != nil {
		bom, err := s.boms.Get(ctx, orgID, *bomID)
		if err != nil {
			return nil, err
		}
		if bom.ProductID != productID {
			return nil, entities.ValidationError("bom %s does not produce product %s", bom.ID, productID)
		}
		if bom.Status == entities.BOMObsolete {
			return nil, entities.ValidationError("bom %s is obsolete", bom.ID)
		}
		return &bom.ID, nil
	}
	versions, err := s.boms.ListByProduct(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	for _, b := range versions {
		if b.Status == entities.BOMActive {
			return &b.ID, nil
		}
	}
	return nil, nil
}

func (s *Service) schedule(ctx context.Context, orgID uuid.UUID, wo *entities.WorkOrder, line string, start, end *time.Time) error {
	if start == nil && end == nil {
		return nil
	}
	if start == nil || end == nil {
		return entities.ValidationError("scheduled start and end must be given together")
	}
	if line == "" {
		line = wo.LineCode
	}
	if err := wo.Schedule(line, start.UTC(), end.UTC()); err != nil {
		return err
	}
	if line == "" {
		return nil
	}
	check, err := s.CheckLineAvailability(ctx, orgID, line, *wo.ScheduledStart, *wo.ScheduledEnd, &wo.ID)
	if err != nil {
		return err
	}
	if !check.Available {
		return entities.ConflictError("line %s is busy with %s in that window", line, check.Conflicts[0].WONumber)
	}
	return nil
}

// CreateWorkOrder stores a draft work order numbered WO-YYYY-NNNNN
func (s *Service) CreateWorkOrder(ctx context.Context, orgID uuid.UUID, req WorkOrderRequest) (*entities.WorkOrder, error) {
	if _, err := s.products.Get(ctx, orgID, req.ProductID); err != nil {
		return nil, err
	}
	bomID, err := s.resolveBOM(ctx, orgID, req.ProductID, req.BOMID)
	if err != nil {
		return nil, err
	}

	var wo *entities.WorkOrder
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		now := s.Now().UTC()
		number, err := s.numbers.Yearly(ctx, orgID, shared.KindWorkOrder, now)
		if err != nil {
			return err
		}
		if wo, err = entities.NewWorkOrder(orgID, number, req.ProductID, bomID, req.PlannedQty, req.Priority, now); err != nil {
			return err
		}
		wo.LineCode = req.LineCode
		if err := s.schedule(ctx, orgID, wo, req.LineCode, req.ScheduledStart, req.ScheduledEnd); err != nil {
			return err
		}
		return s.orders.Create(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("wo_id", wo.ID.String()).Str("wo_number", wo.WONumber).Msg("work order created")
	return wo, nil
}

// GetWorkOrder returns one work order
func (s *Service) GetWorkOrder(ctx context.Context, orgID, id uuid.UUID) (*entities.WorkOrder, error) {
	return s.orders.Get(ctx, orgID, id)
}

// ListWorkOrders returns work orders by scheduled start
func (s *Service) ListWorkOrders(ctx context.Context, orgID uuid.UUID, filter repositories.WOFilter) ([]*entities.WorkOrder, error) {
	return s.orders.List(ctx, orgID, filter)
}

// UpdateWorkOrder edits product, BOM and quantity until release
func (s *Service) UpdateWorkOrder(ctx context.Context, orgID, id uuid.UUID, req WorkOrderRequest) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, id); err != nil {
			return err
		}
		if wo.Status.IsLocked() {
			return entities.ConflictError("work order %s is %s, product, bom and quantity are locked", wo.WONumber, wo.Status)
		}
		if _, err := s.products.Get(ctx, orgID, req.ProductID); err != nil {
			return err
		}
		bomID, err := s.resolveBOM(ctx, orgID, req.ProductID, req.BOMID)
		if err != nil {
			return err
		}
		if !req.PlannedQty.IsPositive() {
			return entities.ValidationError("planned quantity must be positive, got %s", req.PlannedQty)
		}
		if req.Priority != "" {
			if !req.Priority.Valid() {
				return entities.ValidationError("unknown priority %q", req.Priority)
			}
			wo.Priority = req.Priority
		}
		wo.ProductID = req.ProductID
		wo.BOMID = bomID
		wo.PlannedQty = req.PlannedQty
		if req.LineCode != "" {
			wo.LineCode = req.LineCode
		}
		if err := s.schedule(ctx, orgID, wo, req.LineCode, req.ScheduledStart, req.ScheduledEnd); err != nil {
			return err
		}
		wo.UpdatedAt = s.Now().UTC()
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

// ChangeStatus applies a status transition. Cancelling or completing hands
// reserved plates back.
func (s *Service) ChangeStatus(ctx context.Context, orgID, id uuid.UUID, next entities.WOStatus) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	var prev entities.WOStatus
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, id); err != nil {
			return err
		}
		prev = wo.Status
		now := s.Now().UTC()
		if next == entities.WOReleased && wo.BOMID == nil {
			return entities.ValidationError("work order %s needs a bom before release", wo.WONumber)
		}
		if err := wo.ChangeStatus(next, now); err != nil {
			return err
		}
		if next == entities.WOCancelled || next == entities.WOCompleted {
			if err := s.releaseReservations(ctx, orgID, wo, now); err != nil {
				return err
			}
		}
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityWOStatusChanged, wo.ID,
		fmt.Sprintf("%s %s -> %s", wo.WONumber, prev, next), nil)
	return wo, nil
}

// Availability explodes the work order's BOM for its planned quantity and
// nets every component against consumable stock. Plates reserved to this
// work order count as its stock.
func (s *Service) Availability(ctx context.Context, orgID, id uuid.UUID) (*Availability, error) {
	wo, err := s.orders.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if wo.BOMID == nil {
		return nil, entities.ValidationError("work order %s has no bom", wo.WONumber)
	}
	bom, err := s.boms.Get(ctx, orgID, *wo.BOMID)
	if err != nil {
		return nil, err
	}
	stock, err := s.consumableStock(ctx, orgID, wo)
	if err != nil {
		return nil, err
	}

	visitor := newAvailabilityVisitor(stock)
	if err := s.traverser.Traverse(ctx, orgID, bom, wo.PlannedQty, visitor); err != nil {
		return nil, err
	}
	requirements := visitor.requirements
	if requirements == nil {
		requirements = []MaterialRequirement{}
	}
	return &Availability{
		WorkOrderID:  wo.ID,
		BOMID:        bom.ID,
		PlannedQty:   wo.PlannedQty,
		Status:       visitor.overall(),
		Requirements: requirements,
	}, nil
}

// consumableStock sums usable plate quantity per product. Reserved plates
// only count for the work order holding them.
func (s *Service) consumableStock(ctx context.Context, orgID uuid.UUID, wo *entities.WorkOrder) (map[uuid.UUID]decimal.Decimal, error) {
	lps, _, err := s.lps.List(ctx, orgID, repositories.LPFilter{
		Statuses:   []entities.LPStatus{entities.LPAvailable, entities.LPReserved},
		QAStatuses: []entities.QAStatus{entities.QAPassed},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	now := s.Now().UTC()
	stock := make(map[uuid.UUID]decimal.Decimal)
	for _, lp := range lps {
		if lp.IsExpired(now) {
			continue
		}
		if lp.Status == entities.LPReserved {
			if _, mine := wo.Reservation(lp.ID); !mine {
				continue
			}
		}
		stock[lp.ProductID] = stock[lp.ProductID].Add(lp.Quantity)
	}
	return stock, nil
}

// Genealogy returns the links recorded by the work order
func (s *Service) Genealogy(ctx context.Context, orgID, id uuid.UUID) (*dto.WorkOrderGenealogy, error) {
	if _, err := s.orders.Get(ctx, orgID, id); err != nil {
		return nil, err
	}
	return s.genealogy.ByWorkOrder(ctx, orgID, id)
}
