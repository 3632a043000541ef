package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BOMStatus is the lifecycle of a bill of materials version
type BOMStatus string

const (
	BOMDraft    BOMStatus = "draft"
	BOMActive   BOMStatus = "active"
	BOMObsolete BOMStatus = "obsolete"
)

func (s BOMStatus) String() string { return string(s) }

// BOMItem is one component line of a BOM
type BOMItem struct {
	ComponentID uuid.UUID       `json:"component_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ScrapPct    decimal.Decimal `json:"scrap_pct"`
	Sequence    int             `json:"sequence"`
}

// NewBOMItem creates a validated BOMItem
func NewBOMItem(componentID uuid.UUID, quantity, scrapPct decimal.Decimal, sequence int) (*BOMItem, error) {
	if componentID == uuid.Nil {
		return nil, ValidationError("component id cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, ValidationError("quantity must be positive, got %s", quantity)
	}
	if scrapPct.IsNegative() || scrapPct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return nil, ValidationError("scrap percent must be in [0, 100), got %s", scrapPct)
	}
	if sequence <= 0 {
		return nil, ValidationError("sequence must be positive, got %d", sequence)
	}
	return &BOMItem{ComponentID: componentID, Quantity: quantity, ScrapPct: scrapPct, Sequence: sequence}, nil
}

// GrossQuantity is the component quantity including scrap allowance
func (i BOMItem) GrossQuantity() decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(i.ScrapPct.Div(decimal.NewFromInt(100)))
	return i.Quantity.Mul(factor)
}

// BOM is a versioned recipe producing OutputQty of a product
type BOM struct {
	ID        uuid.UUID       `json:"id"`
	OrgID     uuid.UUID       `json:"org_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Version   int             `json:"version"`
	Status    BOMStatus       `json:"status"`
	OutputQty decimal.Decimal `json:"output_qty"`
	Items     []BOMItem       `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewBOM creates a draft BOM
func NewBOM(orgID, productID uuid.UUID, version int, outputQty decimal.Decimal, items []BOMItem, now time.Time) (*BOM, error) {
	if productID == uuid.Nil {
		return nil, ValidationError("product id cannot be empty")
	}
	if version <= 0 {
		return nil, ValidationError("version must be positive, got %d", version)
	}
	if !outputQty.IsPositive() {
		return nil, ValidationError("output quantity must be positive, got %s", outputQty)
	}
	for _, item := range items {
		if item.ComponentID == productID {
			return nil, ValidationError("bom for %s cannot consume itself", productID)
		}
	}
	return &BOM{
		ID:        NewID(),
		OrgID:     orgID,
		ProductID: productID,
		Version:   version,
		Status:    BOMDraft,
		OutputQty: outputQty,
		Items:     append([]BOMItem(nil), items...),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasComponent reports whether productID is a direct component
func (b *BOM) HasComponent(productID uuid.UUID) bool {
	for _, item := range b.Items {
		if item.ComponentID == productID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the BOM
func (b *BOM) Clone() *BOM {
	c := *b
	c.Items = append([]BOMItem(nil), b.Items...)
	return &c
}
