package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Ship turns every active allocation of an order into a shipment. Plates
// lose the shipped quantity and become shipped once empty.
func (s *Service) Ship(ctx context.Context, orgID, soID uuid.UUID) (*entities.Shipment, error) {
	var shipment *entities.Shipment
	var so *entities.SalesOrder
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if so, err = s.orders.Get(ctx, orgID, soID); err != nil {
			return err
		}
		if !so.Status.CanShip() {
			return entities.ConflictError("sales order %s is %s and cannot ship", so.OrderNumber, so.Status)
		}
		all, err := s.allocations.ListBySalesOrder(ctx, orgID, soID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}
		var active []*entities.InventoryAllocation
		lpIDs := make([]uuid.UUID, 0, len(all))
		for _, a := range all {
			if a.IsActive() {
				active = append(active, a)
				lpIDs = append(lpIDs, a.LicensePlateID)
			}
		}
		if len(active) == 0 {
			return entities.ConflictError("sales order %s has nothing allocated to ship", so.OrderNumber)
		}
		lps, err := s.lps.GetMany(ctx, orgID, lpIDs)
		if err != nil {
			return fmt.Errorf("failed to load plates: %w", err)
		}

		now := s.Now().UTC()
		// check every plate before touching any
		need := make(map[uuid.UUID]decimal.Decimal)
		for _, a := range active {
			lp, ok := lps[a.LicensePlateID]
			if !ok {
				return entities.NotFoundError("LP not found: %s", a.LicensePlateID)
			}
			need[lp.ID] = need[lp.ID].Add(a.Quantity)
			if lp.Status != entities.LPAvailable && lp.Status != entities.LPReserved {
				return entities.ConflictError("LP %s is %s and cannot ship", lp.LPNumber, lp.Status)
			}
			if need[lp.ID].GreaterThan(lp.Quantity) {
				return entities.ConflictError("LP %s holds %s, %s allocated", lp.LPNumber, lp.Quantity, need[lp.ID])
			}
		}

		number, err := s.numbers.Yearly(ctx, orgID, shared.KindShipment, now)
		if err != nil {
			return err
		}
		shipment = &entities.Shipment{
			ID:             entities.NewID(),
			OrgID:          orgID,
			ShipmentNumber: number,
			SalesOrderID:   so.ID,
			CustomerID:     so.CustomerID,
			ShippedAt:      now,
		}
		for _, a := range active {
			lp := lps[a.LicensePlateID]
			if err := lp.Consume(a.Quantity, entities.LPShipped, now); err != nil {
				return err
			}
			at := now
			a.ShippedAt = &at
			line, ok := so.Line(a.SalesOrderLineID)
			if !ok {
				return entities.NotFoundError("sales order line %s not found", a.SalesOrderLineID)
			}
			line.QuantityAllocated = line.QuantityAllocated.Sub(a.Quantity)
			line.QuantityShipped = line.QuantityShipped.Add(a.Quantity)
			shipment.Lines = append(shipment.Lines, entities.ShipmentLine{
				LicensePlateID: lp.ID,
				ProductID:      lp.ProductID,
				Quantity:       a.Quantity,
				UnitPrice:      line.UnitPrice,
			})
			if err := s.allocations.Update(ctx, a); err != nil {
				return err
			}
		}
		for _, lp := range lps {
			if err := s.lps.Update(ctx, lp); err != nil {
				return err
			}
		}
		if err := so.MarkShipped(now); err != nil {
			return err
		}
		if err := s.orders.Update(ctx, so); err != nil {
			return err
		}
		return s.shipments.Create(ctx, shipment)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("so_id", soID.String()).
		Str("shipment_number", shipment.ShipmentNumber).
		Int("lines", len(shipment.Lines)).
		Msg("sales order shipped")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivitySOShipped, so.ID,
		fmt.Sprintf("%s shipped as %s", so.OrderNumber, shipment.ShipmentNumber),
		map[string]any{"shipment_id": shipment.ID})
	return shipment, nil
}

// Shipments lists an order's shipments
func (s *Service) Shipments(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.Shipment, error) {
	return s.shipments.ListBySalesOrder(ctx, orgID, soID)
}
