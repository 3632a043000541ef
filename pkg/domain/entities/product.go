package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType classifies a product in the manufacturing flow
type ProductType string

const (
	RawMaterial  ProductType = "raw"
	WorkInProc   ProductType = "wip"
	Finished     ProductType = "finished"
	PackagingMat ProductType = "packaging"
)

func (t ProductType) String() string { return string(t) }

// Valid reports whether t is a known product type
func (t ProductType) Valid() bool {
	switch t {
	case RawMaterial, WorkInProc, Finished, PackagingMat:
		return true
	}
	return false
}

// Product represents item master data
type Product struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         uuid.UUID       `json:"org_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Type          ProductType     `json:"type"`
	UOM           string          `json:"uom"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	ShelfLifeDays int             `json:"shelf_life_days"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewProduct creates a validated Product
func NewProduct(orgID uuid.UUID, code, name string, productType ProductType, uom string, unitCost, unitPrice decimal.Decimal, shelfLifeDays int, now time.Time) (*Product, error) {
	if code == "" {
		return nil, ValidationError("product code cannot be empty")
	}
	if name == "" {
		return nil, ValidationError("product name cannot be empty")
	}
	if !productType.Valid() {
		return nil, ValidationError("unknown product type %q", productType)
	}
	if uom == "" {
		return nil, ValidationError("unit of measure cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, ValidationError("unit cost cannot be negative, got %s", unitCost)
	}
	if unitPrice.IsNegative() {
		return nil, ValidationError("unit price cannot be negative, got %s", unitPrice)
	}
	if shelfLifeDays < 0 {
		return nil, ValidationError("shelf life days cannot be negative, got %d", shelfLifeDays)
	}
	return &Product{
		ID:            NewID(),
		OrgID:         orgID,
		Code:          code,
		Name:          name,
		Type:          productType,
		UOM:           uom,
		UnitCost:      unitCost,
		UnitPrice:     unitPrice,
		ShelfLifeDays: shelfLifeDays,
		CreatedAt:     now,
	}, nil
}

// Customer receives shipments
type Customer struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCustomer creates a validated Customer
func NewCustomer(orgID uuid.UUID, name, email string, now time.Time) (*Customer, error) {
	if name == "" {
		return nil, ValidationError("customer name cannot be empty")
	}
	return &Customer{ID: NewID(), OrgID: orgID, Name: name, Email: email, CreatedAt: now}, nil
}
