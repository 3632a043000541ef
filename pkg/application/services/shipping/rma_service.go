package shipping

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// RMALineRequest is one product coming back
type RMALineRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// RMARequest authorises a return against a shipped order. An empty
// disposition takes the reason's suggestion.
type RMARequest struct {
	SalesOrderID uuid.UUID            `json:"sales_order_id"`
	Reason       entities.RMAReason   `json:"reason"`
	Disposition  entities.Disposition `json:"disposition,omitempty"`
	Lines        []RMALineRequest     `json:"lines"`
}

// ReceiveRequest books returned goods into a location
type ReceiveRequest struct {
	LocationID uuid.UUID `json:"location_id"`
}

// CreateRMA opens a pending return. Returned quantity per product cannot
// exceed what was shipped.
func (s *Service) CreateRMA(ctx context.Context, orgID uuid.UUID, req RMARequest) (*entities.RMA, error) {
	var rma *entities.RMA
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		so, err := s.orders.Get(ctx, orgID, req.SalesOrderID)
		if err != nil {
			return err
		}
		if so.Status != entities.SOShipped && so.Status != entities.SODelivered {
			return entities.ConflictError("sales order %s is %s, returns need a shipped order", so.OrderNumber, so.Status)
		}
		shipped := make(map[uuid.UUID]decimal.Decimal)
		for _, l := range so.Lines {
			shipped[l.ProductID] = shipped[l.ProductID].Add(l.QuantityShipped)
		}
		returned := make(map[uuid.UUID]decimal.Decimal)
		lines := make([]entities.RMALine, len(req.Lines))
		for i, l := range req.Lines {
			returned[l.ProductID] = returned[l.ProductID].Add(l.Quantity)
			if returned[l.ProductID].GreaterThan(shipped[l.ProductID]) {
				return entities.ValidationError("line %d: returning %s but only %s shipped", i+1, returned[l.ProductID], shipped[l.ProductID])
			}
			lines[i] = entities.RMALine{ProductID: l.ProductID, Quantity: l.Quantity}
		}

		now := s.Now().UTC()
		number, err := s.numbers.Yearly(ctx, orgID, shared.KindRMA, now)
		if err != nil {
			return err
		}
		if rma, err = entities.NewRMA(orgID, number, so, req.Reason, req.Disposition, lines, now); err != nil {
			return err
		}
		return s.rmas.Create(ctx, rma)
	})
	if err != nil {
		return nil, err
	}
	s.emitRMA(ctx, orgID, rma)
	return rma, nil
}

// GetRMA returns one return authorisation
func (s *Service) GetRMA(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	return s.rmas.Get(ctx, orgID, id)
}

// ApproveRMA approves a pending return
func (s *Service) ApproveRMA(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	return s.transitionRMA(ctx, orgID, id, entities.RMAApproved)
}

// RejectRMA rejects a pending return
func (s *Service) RejectRMA(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	return s.transitionRMA(ctx, orgID, id, entities.RMARejected)
}

// CloseRMA closes a return
func (s *Service) CloseRMA(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	return s.transitionRMA(ctx, orgID, id, entities.RMAClosed)
}

func (s *Service) transitionRMA(ctx context.Context, orgID, id uuid.UUID, next entities.RMAStatus) (*entities.RMA, error) {
	var rma *entities.RMA
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if rma, err = s.rmas.Get(ctx, orgID, id); err != nil {
			return err
		}
		if err := rma.ChangeStatus(next, s.Now().UTC()); err != nil {
			return err
		}
		return s.rmas.Update(ctx, rma)
	})
	if err != nil {
		return nil, err
	}
	s.emitRMA(ctx, orgID, rma)
	return rma, nil
}

// ReceiveRMA books each returned line as a new plate, blocked and in QA
// quarantine until someone decides its fate
func (s *Service) ReceiveRMA(ctx context.Context, orgID, id uuid.UUID, req ReceiveRequest) (*entities.RMA, []*entities.LicensePlate, error) {
	var rma *entities.RMA
	var created []*entities.LicensePlate
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if rma, err = s.rmas.Get(ctx, orgID, id); err != nil {
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
		if err := rma.ChangeStatus(entities.RMAReceived, now); err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(rma.Lines))
		for i, l := range rma.Lines {
			ids[i] = l.ProductID
		}
		products, err := s.products.GetMany(ctx, orgID, ids)
		if err != nil {
			return fmt.Errorf("failed to load products: %w", err)
		}
		for i := range rma.Lines {
			line := &rma.Lines[i]
			p, ok := products[line.ProductID]
			if !ok {
				return entities.NotFoundError("product %s not found", line.ProductID)
			}
			number, err := s.numbers.LPNumber(ctx, orgID, settings.LPNumberPrefix)
			if err != nil {
				return err
			}
			lp, err := entities.NewLicensePlate(orgID, number, p.ID, line.Quantity, p.UOM, loc.WarehouseID, loc.ID, entities.SourceReturn, now)
			if err != nil {
				return err
			}
			lp.Status = entities.LPBlocked
			lp.QAStatus = entities.QAQuarantine
			if err := s.lps.Create(ctx, lp); err != nil {
				return err
			}
			lpID := lp.ID
			line.ReturnLPID = &lpID
			created = append(created, lp)
		}
		return s.rmas.Update(ctx, rma)
	})
	if err != nil {
		return nil, nil, err
	}
	s.emitRMA(ctx, orgID, rma)
	for _, lp := range created {
		shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPCreated, lp.ID,
			fmt.Sprintf("%s received from return %s", lp.LPNumber, rma.RMANumber), map[string]any{"source": lp.Source})
	}
	return rma, created, nil
}

func (s *Service) emitRMA(ctx context.Context, orgID uuid.UUID, rma *entities.RMA) {
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityRMAChanged, rma.ID,
		fmt.Sprintf("%s is %s", rma.RMANumber, rma.Status), map[string]any{"disposition": rma.Disposition})
}
