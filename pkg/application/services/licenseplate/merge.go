package licenseplate

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

// MergeRequest merges plates into a new one
type MergeRequest struct {
	LPIDs            []uuid.UUID `json:"lp_ids"`
	TargetLocationID *uuid.UUID  `json:"target_location_id,omitempty"`
}

// MergeSummary describes the plate a merge would create
type MergeSummary struct {
	ProductID     uuid.UUID         `json:"product_id"`
	ProductName   string            `json:"product_name"`
	TotalQuantity decimal.Decimal   `json:"total_quantity"`
	UOM           string            `json:"uom"`
	BatchNumber   string            `json:"batch_number,omitempty"`
	ExpiryDate    *time.Time        `json:"expiry_date,omitempty"`
	QAStatus      entities.QAStatus `json:"qa_status"`
	LPCount       int               `json:"lp_count"`
}

// MergeValidation reports whether a merge may proceed
type MergeValidation struct {
	Valid   bool          `json:"valid"`
	Errors  []string      `json:"errors"`
	Summary *MergeSummary `json:"summary,omitempty"`
}

// MergeResult is the outcome of a merge
type MergeResult struct {
	NewLP   *entities.LicensePlate    `json:"new_lp"`
	Sources []*entities.LicensePlate  `json:"sources"`
	Links   []*entities.GenealogyLink `json:"genealogy_links"`
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return entities.DaysBetween(*a, *b) == 0
}

// mergeErrors lists every rule the plates break, in request order
func mergeErrors(ids []uuid.UUID, found map[uuid.UUID]*entities.LicensePlate) ([]string, []*entities.LicensePlate) {
	var errs []string
	if len(ids) < 2 {
		return []string{"At least 2 LPs required for merge operation"}, nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	lps := make([]*entities.LicensePlate, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			errs = append(errs, fmt.Sprintf("LP %s listed more than once", id))
			continue
		}
		seen[id] = true
		lp, ok := found[id]
		if !ok {
			errs = append(errs, fmt.Sprintf("LP not found: %s", id))
			continue
		}
		lps = append(lps, lp)
	}
	if len(lps) < 2 {
		return errs, lps
	}

	first := lps[0]
	rules := []struct {
		msg  string
		same func(lp *entities.LicensePlate) bool
	}{
		{"All LPs must be the same product for merge", func(lp *entities.LicensePlate) bool { return lp.ProductID == first.ProductID }},
		{"All LPs must have the same batch number for merge", func(lp *entities.LicensePlate) bool { return lp.BatchNumber == first.BatchNumber }},
		{"All LPs must have the same expiry date for merge", func(lp *entities.LicensePlate) bool { return sameDate(lp.ExpiryDate, first.ExpiryDate) }},
		{"All LPs must have the same QA status for merge", func(lp *entities.LicensePlate) bool { return lp.QAStatus == first.QAStatus }},
		{"All LPs must be in the same warehouse for merge", func(lp *entities.LicensePlate) bool { return lp.WarehouseID == first.WarehouseID }},
		{"All LPs must have the same UoM for merge", func(lp *entities.LicensePlate) bool { return lp.UOM == first.UOM }},
	}
	for _, rule := range rules {
		for _, lp := range lps[1:] {
			if !rule.same(lp) {
				errs = append(errs, rule.msg)
				break
			}
		}
	}
	for _, lp := range lps {
		if lp.Status != entities.LPAvailable {
			errs = append(errs, fmt.Sprintf("LP %s must have status='available' for merge, got %s", lp.LPNumber, lp.Status))
		}
	}
	return errs, lps
}

func (s *Service) validateMerge(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (*MergeValidation, []*entities.LicensePlate, error) {
	found, err := s.lps.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load license plates: %w", err)
	}
	errs, lps := mergeErrors(ids, found)
	v := &MergeValidation{Valid: len(errs) == 0, Errors: errs}
	if v.Errors == nil {
		v.Errors = []string{}
	}
	if !v.Valid {
		return v, lps, nil
	}

	first := lps[0]
	total := decimal.Zero
	for _, lp := range lps {
		total = total.Add(lp.Quantity)
	}
	summary := &MergeSummary{
		ProductID:     first.ProductID,
		TotalQuantity: total,
		UOM:           first.UOM,
		BatchNumber:   first.BatchNumber,
		ExpiryDate:    first.ExpiryDate,
		QAStatus:      first.QAStatus,
		LPCount:       len(lps),
	}
	if product, err := s.products.Get(ctx, orgID, first.ProductID); err == nil {
		summary.ProductName = product.Name
	}
	v.Summary = summary
	return v, lps, nil
}

// ValidateMerge checks whether the plates may be merged
func (s *Service) ValidateMerge(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (*MergeValidation, error) {
	v, _, err := s.validateMerge(ctx, orgID, ids)
	return v, err
}

// Merge combines plates into a new plate. Sources end consumed at zero
// quantity and each gets a merge link to the new plate.
func (s *Service) Merge(ctx context.Context, orgID uuid.UUID, req MergeRequest) (*MergeResult, error) {
	result := &MergeResult{}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return err
		}
		if !settings.EnableSplitMerge {
			return entities.ValidationError("split and merge are disabled for this organization")
		}
		v, lps, err := s.validateMerge(ctx, orgID, req.LPIDs)
		if err != nil {
			return err
		}
		if !v.Valid {
			for _, id := range req.LPIDs {
				if _, ok := findLP(lps, id); !ok {
					return entities.NotFoundError("LP not found: %s", id)
				}
			}
			return entities.ValidationError("%s", v.Errors[0])
		}
		for _, lp := range lps {
			if err := shared.GuardAllocated(ctx, s.allocations, lp, decimal.Zero); err != nil {
				return err
			}
		}

		first := lps[0]
		locationID := first.LocationID
		if req.TargetLocationID != nil {
			loc, err := s.locations.GetLocation(ctx, orgID, *req.TargetLocationID)
			if err != nil {
				return err
			}
			if loc.WarehouseID != first.WarehouseID {
				return entities.ValidationError("target location must be in the same warehouse as the merged LPs")
			}
			locationID = loc.ID
		}

		number, err := s.numbers.LPNumber(ctx, orgID, settings.LPNumberPrefix)
		if err != nil {
			return err
		}
		now := s.Now().UTC()
		merged, err := entities.NewLicensePlate(orgID, number, first.ProductID, v.Summary.TotalQuantity, first.UOM, first.WarehouseID, locationID, entities.SourceMerge, now)
		if err != nil {
			return err
		}
		merged.QAStatus = first.QAStatus
		merged.BatchNumber = first.BatchNumber
		merged.ExpiryDate = first.ExpiryDate
		merged.ManufacturingDate = first.ManufacturingDate
		parentID := first.ID
		merged.ParentLPID = &parentID
		if err := s.lps.Create(ctx, merged); err != nil {
			return err
		}

		quantities := make(map[uuid.UUID]decimal.Decimal, len(lps))
		order := make([]uuid.UUID, 0, len(lps))
		for _, lp := range lps {
			quantities[lp.ID] = lp.Quantity
			order = append(order, lp.ID)
			lp.Quantity = decimal.Zero
			lp.Status = entities.LPConsumed
			lp.UpdatedAt = now
			if err := s.lps.Update(ctx, lp); err != nil {
				return err
			}
		}
		links, err := s.genealogy.LinkMergeQuantities(ctx, orgID, quantities, order, merged.ID)
		if err != nil {
			return err
		}

		result.NewLP, result.Sources, result.Links = merged, lps, links
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("lp_id", result.NewLP.ID.String()).
		Int("sources", len(result.Sources)).
		Msg("license plates merged")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPMerged, result.NewLP.ID,
		fmt.Sprintf("%d LPs merged into %s", len(result.Sources), result.NewLP.LPNumber),
		map[string]any{"quantity": result.NewLP.Quantity.String()})
	return result, nil
}

func findLP(lps []*entities.LicensePlate, id uuid.UUID) (*entities.LicensePlate, bool) {
	for _, lp := range lps {
		if lp.ID == id {
			return lp, true
		}
	}
	return nil, false
}
