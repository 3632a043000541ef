package licenseplate

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// SplitRequest splits quantity off a plate
type SplitRequest struct {
	Quantity              decimal.Decimal `json:"quantity"`
	DestinationLocationID *uuid.UUID      `json:"destination_location_id,omitempty"`
}

// SplitPreview describes a split without performing it
type SplitPreview struct {
	SourceLPID        uuid.UUID       `json:"source_lp_id"`
	SourceLPNumber    string          `json:"source_lp_number"`
	SourceQuantity    decimal.Decimal `json:"source_quantity"`
	SplitQuantity     decimal.Decimal `json:"split_quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	NewLPNumber       string          `json:"new_lp_number"`
	UOM               string          `json:"uom"`
	Warnings          []string        `json:"warnings"`
}

// SplitResult is the outcome of a split
type SplitResult struct {
	Source            *entities.LicensePlate  `json:"source"`
	NewLP             *entities.LicensePlate  `json:"new_lp"`
	Link              *entities.GenealogyLink `json:"genealogy_link"`
	RemainingQuantity decimal.Decimal         `json:"remaining_quantity"`
	Warnings          []string                `json:"warnings"`
}

// checkSplit validates a split of lp and returns its warnings
func checkSplit(settings *entities.WarehouseSettings, lp *entities.LicensePlate, qty decimal.Decimal) ([]string, error) {
	if !settings.EnableSplitMerge {
		return nil, entities.ValidationError("split and merge are disabled for this organization")
	}
	if !qty.IsPositive() {
		return nil, entities.ValidationError("split quantity must be greater than 0, got %s", qty)
	}
	if !qty.LessThan(lp.Quantity) {
		return nil, entities.ValidationError("split quantity %s must be less than LP quantity %s", qty, lp.Quantity)
	}
	if lp.Status != entities.LPAvailable {
		return nil, entities.ValidationError("LP %s must have status='available' to split, got %s", lp.LPNumber, lp.Status)
	}
	warnings := []string{}
	if lp.QAStatus != entities.QAPassed {
		warnings = append(warnings, fmt.Sprintf("QA status is %s; the new LP inherits it", lp.QAStatus))
	}
	return warnings, nil
}

// PreviewSplit validates a split and reports what it would produce
func (s *Service) PreviewSplit(ctx context.Context, orgID, id uuid.UUID, qty decimal.Decimal) (*SplitPreview, error) {
	lp, err := s.lps.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.orgs.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	warnings, err := checkSplit(settings, lp, qty)
	if err != nil {
		return nil, err
	}
	if err := shared.GuardAllocated(ctx, s.allocations, lp, lp.Quantity.Sub(qty)); err != nil {
		return nil, err
	}
	next, err := s.numbers.PeekLPNumber(ctx, orgID, settings.LPNumberPrefix)
	if err != nil {
		return nil, err
	}
	return &SplitPreview{
		SourceLPID:        lp.ID,
		SourceLPNumber:    lp.LPNumber,
		SourceQuantity:    lp.Quantity,
		SplitQuantity:     qty,
		RemainingQuantity: lp.Quantity.Sub(qty),
		NewLPNumber:       next,
		UOM:               lp.UOM,
		Warnings:          warnings,
	}, nil
}

// Split moves qty off a plate into a new plate with the same product, batch,
// expiry and QA status, and records a split genealogy link
func (s *Service) Split(ctx context.Context, orgID, id uuid.UUID, req SplitRequest) (*SplitResult, error) {
	result := &SplitResult{}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		source, err := s.lps.Get(ctx, orgID, id)
		if err != nil {
			return err
		}
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return err
		}
		warnings, err := checkSplit(settings, source, req.Quantity)
		if err != nil {
			return err
		}
		if err := shared.GuardAllocated(ctx, s.allocations, source, source.Quantity.Sub(req.Quantity)); err != nil {
			return err
		}

		warehouseID, locationID := source.WarehouseID, source.LocationID
		if req.DestinationLocationID != nil {
			dest, err := s.locations.GetLocation(ctx, orgID, *req.DestinationLocationID)
			if err != nil {
				return err
			}
			warehouseID, locationID = dest.WarehouseID, dest.ID
		}

		number, err := s.numbers.LPNumber(ctx, orgID, settings.LPNumberPrefix)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		child, err := entities.NewLicensePlate(orgID, number, source.ProductID, req.Quantity, source.UOM, warehouseID, locationID, entities.SourceSplit, now)
		if err != nil {
			return err
		}
		child.QAStatus = source.QAStatus
		child.BatchNumber = source.BatchNumber
		child.ExpiryDate = source.ExpiryDate
		child.ManufacturingDate = source.ManufacturingDate
		child.WorkOrderID = source.WorkOrderID
		parentID := source.ID
		child.ParentLPID = &parentID

		source.Quantity = source.Quantity.Sub(req.Quantity)
		source.UpdatedAt = now

		if err := s.lps.Create(ctx, child); err != nil {
			return err
		}
		if err := s.lps.Update(ctx, source); err != nil {
			return err
		}
		link, err := s.genealogy.LinkSplit(ctx, orgID, source.ID, child.ID, req.Quantity)
		if err != nil {
			return err
		}

		result.Source, result.NewLP, result.Link = source, child, link
		result.RemainingQuantity = source.Quantity
		result.Warnings = warnings
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("lp_id", result.Source.ID.String()).
		Str("new_lp_id", result.NewLP.ID.String()).
		Str("quantity", req.Quantity.String()).
		Msg("license plate split")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPSplit, result.NewLP.ID,
		fmt.Sprintf("%s split %s %s into %s", result.Source.LPNumber, req.Quantity, result.NewLP.UOM, result.NewLP.LPNumber),
		map[string]any{"source_lp_id": result.Source.ID, "quantity": req.Quantity.String()})
	return result, nil
}
