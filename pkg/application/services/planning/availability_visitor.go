package planning

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Material availability of a work order or a single requirement line
const (
	AvailabilitySufficient = "sufficient"
	AvailabilityPartial    = "partial"
	AvailabilityNone       = "none"
)

// MaterialRequirement is one component need found by the explosion
type MaterialRequirement struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	UOM         string          `json:"uom"`
	Level       int             `json:"level"`
	ParentID    uuid.UUID       `json:"parent_id"`
	Required    decimal.Decimal `json:"required"`
	Available   decimal.Decimal `json:"available"`
	Shortfall   decimal.Decimal `json:"shortfall"`
	Exploded    bool            `json:"exploded"`
	Status      string          `json:"status"`
}

// availabilityVisitor nets each requirement against stock. Stock claimed by
// an earlier line is not offered again, and a shortfall of a product with an
// active BOM is exploded into its own components.
type availabilityVisitor struct {
	stock        map[uuid.UUID]decimal.Decimal
	requirements []MaterialRequirement
}

func newAvailabilityVisitor(stock map[uuid.UUID]decimal.Decimal) *availabilityVisitor {
	return &availabilityVisitor{stock: stock}
}

func (v *availabilityVisitor) VisitNode(ctx context.Context, node BOMNode) (decimal.Decimal, error) {
	if node.Level == 0 {
		return node.Quantity, nil
	}
	free := v.stock[node.Product.ID]
	covered := decimal.Min(free, node.Quantity)
	v.stock[node.Product.ID] = free.Sub(covered)
	shortfall := node.Quantity.Sub(covered)

	req := MaterialRequirement{
		ProductID:   node.Product.ID,
		ProductCode: node.Product.Code,
		ProductName: node.Product.Name,
		UOM:         node.Product.UOM,
		Level:       node.Level,
		ParentID:    node.ParentID,
		Required:    node.Quantity,
		Available:   covered,
		Shortfall:   shortfall,
		Exploded:    shortfall.IsPositive() && node.BOM != nil,
		Status:      lineStatus(covered, shortfall),
	}
	v.requirements = append(v.requirements, req)
	return shortfall, nil
}

func lineStatus(covered, shortfall decimal.Decimal) string {
	switch {
	case !shortfall.IsPositive():
		return AvailabilitySufficient
	case covered.IsPositive():
		return AvailabilityPartial
	}
	return AvailabilityNone
}

// overall is sufficient when every shortfall is covered further down the
// tree, none when no stock at all backs the order
func (v *availabilityVisitor) overall() string {
	uncovered := false
	anyStock := false
	for _, r := range v.requirements {
		if r.Available.IsPositive() {
			anyStock = true
		}
		if r.Shortfall.IsPositive() && !r.Exploded {
			uncovered = true
		}
	}
	switch {
	case !uncovered:
		return AvailabilitySufficient
	case anyStock:
		return AvailabilityPartial
	}
	return AvailabilityNone
}
