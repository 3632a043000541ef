package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// ReserveRequest holds a plate for a work order. A zero quantity reserves
// the whole plate.
type ReserveRequest struct {
	LPID     uuid.UUID       `json:"lp_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ConsumeRequest records material used by a running work order
type ConsumeRequest struct {
	LPID     uuid.UUID       `json:"lp_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OutputRequest books produced goods. Batch defaults to the work order
// number and expiry to the product's shelf life.
type OutputRequest struct {
	Quantity   decimal.Decimal `json:"quantity"`
	LocationID uuid.UUID       `json:"location_id"`
	Batch      string          `json:"batch_number,omitempty"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
}

// OutputResult is the produced plate and its genealogy
type OutputResult struct {
	WorkOrder *entities.WorkOrder       `json:"work_order"`
	LP        *entities.LicensePlate    `json:"lp"`
	Links     []*entities.GenealogyLink `json:"links"`
}

func (s *Service) bomOf(ctx context.Context, orgID uuid.UUID, wo *entities.WorkOrder) (*entities.BOM, error) {
	if wo.BOMID == nil {
		return nil, entities.ValidationError("work order %s has no bom", wo.WONumber)
	}
	return s.boms.Get(ctx, orgID, *wo.BOMID)
}

// Reserve marks a consumable plate reserved for the work order
func (s *Service) Reserve(ctx context.Context, orgID, woID uuid.UUID, req ReserveRequest) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, woID); err != nil {
			return err
		}
		if wo.Status.IsFinal() || wo.Status == entities.WOOnHold {
			return entities.ConflictError("work order %s is %s and cannot reserve material", wo.WONumber, wo.Status)
		}
		if _, ok := wo.Reservation(req.LPID); ok {
			return entities.ConflictError("LP %s is already reserved to %s", req.LPID, wo.WONumber)
		}
		bom, err := s.bomOf(ctx, orgID, wo)
		if err != nil {
			return err
		}
		lp, err := s.lps.Get(ctx, orgID, req.LPID)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		if lp.Status != entities.LPAvailable || !lp.IsConsumable() {
			return entities.ConflictError("LP %s is %s with qa %s and cannot be reserved", lp.LPNumber, lp.Status, lp.QAStatus)
		}
		if lp.IsExpired(now) {
			return entities.ValidationError("LP %s is expired", lp.LPNumber)
		}
		if !bom.HasComponent(lp.ProductID) {
			return entities.ValidationError("LP %s holds a product that is not a component of %s", lp.LPNumber, wo.WONumber)
		}
		qty := req.Quantity
		if qty.IsZero() {
			qty = lp.Quantity
		}
		if !qty.IsPositive() || qty.GreaterThan(lp.Quantity) {
			return entities.ValidationError("reservation quantity must be in (0, %s], got %s", lp.Quantity, qty)
		}

		prev := lp.Status
		if err := lp.ChangeStatus(entities.LPReserved, now); err != nil {
			return err
		}
		wo.Reservations = append(wo.Reservations, entities.WOReservation{
			LicensePlateID: lp.ID,
			ProductID:      lp.ProductID,
			Quantity:       qty,
			PreviousStatus: prev,
			ReservedAt:     now,
		})
		wo.UpdatedAt = now
		if err := s.lps.Update(ctx, lp); err != nil {
			return err
		}
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

// ReleaseReservation hands a reserved plate back
func (s *Service) ReleaseReservation(ctx context.Context, orgID, woID, lpID uuid.UUID) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, woID); err != nil {
			return err
		}
		i, ok := wo.Reservation(lpID)
		if !ok {
			return entities.NotFoundError("LP %s is not reserved to %s", lpID, wo.WONumber)
		}
		now := s.Now().UTC()
		if err := s.unreserve(ctx, orgID, wo.Reservations[i], now); err != nil {
			return err
		}
		wo.Reservations = append(wo.Reservations[:i], wo.Reservations[i+1:]...)
		wo.UpdatedAt = now
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *Service) releaseReservations(ctx context.Context, orgID uuid.UUID, wo *entities.WorkOrder, now time.Time) error {
	for _, r := range wo.Reservations {
		if err := s.unreserve(ctx, orgID, r, now); err != nil {
			return err
		}
	}
	wo.Reservations = nil
	return nil
}

// unreserve restores a still-reserved plate. Consumed or blocked plates
// keep their status.
func (s *Service) unreserve(ctx context.Context, orgID uuid.UUID, r entities.WOReservation, now time.Time) error {
	lp, err := s.lps.Get(ctx, orgID, r.LicensePlateID)
	if err != nil {
		return err
	}
	if lp.Status != entities.LPReserved {
		return nil
	}
	if err := lp.ChangeStatus(entities.LPAvailable, now); err != nil {
		return err
	}
	return s.lps.Update(ctx, lp)
}

// RecordConsumption takes material off a plate into a running work order.
// Plates reserved to another work order are refused.
func (s *Service) RecordConsumption(ctx context.Context, orgID, woID uuid.UUID, req ConsumeRequest) (*entities.WorkOrder, error) {
	var wo *entities.WorkOrder
	var lp *entities.LicensePlate
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if wo, err = s.orders.Get(ctx, orgID, woID); err != nil {
			return err
		}
		if wo.Status != entities.WOInProgress {
			return entities.ConflictError("work order %s is %s, consumption needs in_progress", wo.WONumber, wo.Status)
		}
		bom, err := s.bomOf(ctx, orgID, wo)
		if err != nil {
			return err
		}
		if lp, err = s.lps.Get(ctx, orgID, req.LPID); err != nil {
			return err
		}
		now := s.Now().UTC()
		resIdx, mine := wo.Reservation(lp.ID)
		if !lp.IsConsumable() {
			return entities.ConflictError("LP %s is %s with qa %s and cannot be consumed", lp.LPNumber, lp.Status, lp.QAStatus)
		}
		if lp.Status == entities.LPReserved && !mine {
			return entities.ConflictError("LP %s is reserved to another work order", lp.LPNumber)
		}
		if lp.IsExpired(now) {
			return entities.ValidationError("LP %s is expired", lp.LPNumber)
		}
		if !bom.HasComponent(lp.ProductID) {
			return entities.ValidationError("LP %s holds a product that is not a component of %s", lp.LPNumber, wo.WONumber)
		}
		if err := shared.GuardAllocated(ctx, s.allocations, lp, lp.Quantity.Sub(req.Quantity)); err != nil {
			return err
		}
		if err := lp.Consume(req.Quantity, entities.LPConsumed, now); err != nil {
			return err
		}

		wo.Consumptions = append(wo.Consumptions, entities.WOConsumption{
			LicensePlateID: lp.ID,
			ProductID:      lp.ProductID,
			Quantity:       req.Quantity,
			ConsumedAt:     now,
		})
		if mine {
			r := &wo.Reservations[resIdx]
			r.Quantity = decimal.Max(decimal.Zero, r.Quantity.Sub(req.Quantity))
			if !lp.Quantity.IsPositive() || !r.Quantity.IsPositive() {
				wo.Reservations = append(wo.Reservations[:resIdx], wo.Reservations[resIdx+1:]...)
				if lp.Status == entities.LPReserved {
					if err := lp.ChangeStatus(entities.LPAvailable, now); err != nil {
						return err
					}
				}
			}
		}
		wo.UpdatedAt = now
		if err := s.lps.Update(ctx, lp); err != nil {
			return err
		}
		return s.orders.Update(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityWOConsumed, wo.ID,
		fmt.Sprintf("%s consumed %s from %s", wo.WONumber, req.Quantity, lp.LPNumber),
		map[string]any{"lp_id": lp.ID, "quantity": req.Quantity})
	return wo, nil
}

// RegisterOutput books produced goods as a new plate linked to every plate
// the work order consumed
func (s *Service) RegisterOutput(ctx context.Context, orgID, woID uuid.UUID, req OutputRequest) (*OutputResult, error) {
	result := &OutputResult{Links: []*entities.GenealogyLink{}}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		wo, err := s.orders.Get(ctx, orgID, woID)
		if err != nil {
			return err
		}
		if wo.Status != entities.WOInProgress {
			return entities.ConflictError("work order %s is %s, output needs in_progress", wo.WONumber, wo.Status)
		}
		if !req.Quantity.IsPositive() {
			return entities.ValidationError("output quantity must be positive, got %s", req.Quantity)
		}
		product, err := s.products.Get(ctx, orgID, wo.ProductID)
		if err != nil {
			return err
		}
		loc, err := s.locations.GetLocation(ctx, orgID, req.LocationID)
		if err != nil {
			return err
		}
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return err
		}

		now := s.Now().UTC()
		number, err := s.numbers.LPNumber(ctx, orgID, settings.LPNumberPrefix)
		if err != nil {
			return err
		}
		lp, err := entities.NewLicensePlate(orgID, number, product.ID, req.Quantity, product.UOM, loc.WarehouseID, loc.ID, entities.SourceProduction, now)
		if err != nil {
			return err
		}
		lp.BatchNumber = req.Batch
		if lp.BatchNumber == "" {
			lp.BatchNumber = wo.WONumber
		}
		made := now
		lp.ManufacturingDate = &made
		lp.ExpiryDate = req.ExpiryDate
		if lp.ExpiryDate == nil && product.ShelfLifeDays > 0 {
			expiry := now.AddDate(0, 0, product.ShelfLifeDays)
			lp.ExpiryDate = &expiry
		}
		woRef := wo.ID
		lp.WorkOrderID = &woRef
		if err := s.lps.Create(ctx, lp); err != nil {
			return err
		}

		consumed := make(map[uuid.UUID]decimal.Decimal)
		var order []uuid.UUID
		for _, c := range wo.Consumptions {
			if _, seen := consumed[c.LicensePlateID]; !seen {
				order = append(order, c.LicensePlateID)
			}
			consumed[c.LicensePlateID] = consumed[c.LicensePlateID].Add(c.Quantity)
		}
		if len(order) > 0 {
			if result.Links, err = s.genealogy.LinkOutputQuantities(ctx, orgID, consumed, order, lp.ID, &woRef); err != nil {
				return err
			}
		}

		wo.ProducedQty = wo.ProducedQty.Add(req.Quantity)
		wo.UpdatedAt = now
		if err := s.orders.Update(ctx, wo); err != nil {
			return err
		}
		result.WorkOrder = wo
		result.LP = lp
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("wo_id", woID.String()).
		Str("lp_number", result.LP.LPNumber).
		Int("links", len(result.Links)).
		Msg("work order output registered")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityWOOutput, woID,
		fmt.Sprintf("%s produced %s %s as %s", result.WorkOrder.WONumber, req.Quantity, result.LP.UOM, result.LP.LPNumber),
		map[string]any{"lp_id": result.LP.ID})
	return result, nil
}
