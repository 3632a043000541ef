package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// BOMRequest creates or replaces a draft BOM
type BOMRequest struct {
	ProductID uuid.UUID        `json:"product_id"`
	OutputQty decimal.Decimal  `json:"output_qty"`
	Items     []BOMItemRequest `json:"items"`
}

// BOMItemRequest is one component line
type BOMItemRequest struct {
	ComponentID uuid.UUID       `json:"component_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ScrapPct    decimal.Decimal `json:"scrap_pct"`
}

// BOMCostLine is one component's share of the cost
type BOMCostLine struct {
	ComponentID   uuid.UUID       `json:"component_id"`
	ComponentCode string          `json:"component_code"`
	GrossQuantity decimal.Decimal `json:"gross_quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	LineCost      decimal.Decimal `json:"line_cost"`
}

// BOMCost is the material cost of a BOM
type BOMCost struct {
	BOMID       uuid.UUID       `json:"bom_id"`
	OutputQty   decimal.Decimal `json:"output_qty"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	Lines       []BOMCostLine   `json:"lines"`
}

func (s *Service) buildItems(ctx context.Context, orgID uuid.UUID, req BOMRequest) ([]entities.BOMItem, error) {
	if _, err := s.products.Get(ctx, orgID, req.ProductID); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ComponentID
	}
	found, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}

	items := make([]entities.BOMItem, 0, len(req.Items))
	for i, it := range req.Items {
		if _, ok := found[it.ComponentID]; !ok {
			return nil, entities.NotFoundError("component %s not found", it.ComponentID)
		}
		item, err := entities.NewBOMItem(it.ComponentID, it.Quantity, it.ScrapPct, i+1)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		items = append(items, *item)
	}
	return items, nil
}

// CreateBOM stores a new draft version for the product
func (s *Service) CreateBOM(ctx context.Context, orgID uuid.UUID, req BOMRequest) (*entities.BOM, error) {
	items, err := s.buildItems(ctx, orgID, req)
	if err != nil {
		return nil, err
	}

	var bom *entities.BOM
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.boms.ListByProduct(ctx, orgID, req.ProductID)
		if err != nil {
			return err
		}
		version := 1
		if len(existing) > 0 {
			version = existing[0].Version + 1
		}
		bom, err = entities.NewBOM(orgID, req.ProductID, version, req.OutputQty, items, s.Now().UTC())
		if err != nil {
			return err
		}
		return s.boms.Create(ctx, bom)
	})
	if err != nil {
		return nil, err
	}
	logBOM(ctx, bom, "bom created")
	return bom, nil
}

// UpdateBOM replaces the items of a draft BOM
func (s *Service) UpdateBOM(ctx context.Context, orgID, bomID uuid.UUID, req BOMRequest) (*entities.BOM, error) {
	bom, err := s.boms.Get(ctx, orgID, bomID)
	if err != nil {
		return nil, err
	}
	if bom.Status != entities.BOMDraft {
		return nil, entities.ConflictError("bom %s is %s, only drafts can be edited", bomID, bom.Status)
	}
	req.ProductID = bom.ProductID
	items, err := s.buildItems(ctx, orgID, req)
	if err != nil {
		return nil, err
	}
	if !req.OutputQty.IsPositive() {
		return nil, entities.ValidationError("output quantity must be positive, got %s", req.OutputQty)
	}
	bom.Items = items
	bom.OutputQty = req.OutputQty
	bom.UpdatedAt = s.Now().UTC()
	if err := s.boms.Update(ctx, bom); err != nil {
		return nil, fmt.Errorf("failed to update bom: %w", err)
	}
	return bom, nil
}

func (s *Service) GetBOM(ctx context.Context, orgID, id uuid.UUID) (*entities.BOM, error) {
	return s.boms.Get(ctx, orgID, id)
}

// ActiveBOM returns the product's active BOM
func (s *Service) ActiveBOM(ctx context.Context, orgID, productID uuid.UUID) (*entities.BOM, error) {
	versions, err := s.boms.ListByProduct(ctx, orgID, productID)
	if err != nil {
		return nil, err
	}
	for _, b := range versions {
		if b.Status == entities.BOMActive {
			return b, nil
		}
	}
	return nil, entities.NotFoundError("no active bom for product %s", productID)
}

// ActivateBOM validates the BOM against the org's active structure and makes
// it the product's active version, obsoleting the previous one
func (s *Service) ActivateBOM(ctx context.Context, orgID, bomID uuid.UUID) (*entities.BOM, error) {
	var bom *entities.BOM
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bom, err = s.boms.Get(ctx, orgID, bomID)
		if err != nil {
			return err
		}
		if bom.Status != entities.BOMDraft {
			return entities.ConflictError("bom %s is %s, only drafts can be activated", bomID, bom.Status)
		}
		active, err := s.boms.ListActive(ctx, orgID)
		if err != nil {
			return err
		}
		if err := s.validator.ValidateActivation(bom, active).Err(); err != nil {
			return err
		}

		now := s.Now().UTC()
		for _, prev := range active {
			if prev.ProductID != bom.ProductID {
				continue
			}
			prev.Status = entities.BOMObsolete
			prev.UpdatedAt = now
			if err := s.boms.Update(ctx, prev); err != nil {
				return fmt.Errorf("failed to obsolete bom %s: %w", prev.ID, err)
			}
		}
		bom.Status = entities.BOMActive
		bom.UpdatedAt = now
		return s.boms.Update(ctx, bom)
	})
	if err != nil {
		return nil, err
	}
	logBOM(ctx, bom, "bom activated")
	return bom, nil
}

// Cost sums component gross quantity times unit cost
func (s *Service) Cost(ctx context.Context, orgID, bomID uuid.UUID) (*BOMCost, error) {
	bom, err := s.boms.Get(ctx, orgID, bomID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(bom.Items))
	for i, it := range bom.Items {
		ids[i] = it.ComponentID
	}
	products, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}

	cost := &BOMCost{BOMID: bom.ID, OutputQty: bom.OutputQty, TotalCost: decimal.Zero}
	for _, it := range bom.Items {
		p, ok := products[it.ComponentID]
		if !ok {
			return nil, entities.NotFoundError("component %s not found", it.ComponentID)
		}
		gross := it.GrossQuantity()
		line := gross.Mul(p.UnitCost)
		cost.Lines = append(cost.Lines, BOMCostLine{
			ComponentID:   p.ID,
			ComponentCode: p.Code,
			GrossQuantity: gross,
			UnitCost:      p.UnitCost,
			LineCost:      line,
		})
		cost.TotalCost = cost.TotalCost.Add(line)
	}
	cost.CostPerUnit = cost.TotalCost.DivRound(bom.OutputQty, 4)
	return cost, nil
}
