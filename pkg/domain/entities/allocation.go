package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UndoWindow is how long an allocation may be released without force
const UndoWindow = 5 * time.Minute

// InventoryAllocation binds license plate quantity to a sales order line
type InventoryAllocation struct {
	ID               uuid.UUID       `json:"id"`
	OrgID            uuid.UUID       `json:"org_id"`
	SalesOrderID     uuid.UUID       `json:"sales_order_id"`
	SalesOrderLineID uuid.UUID       `json:"sales_order_line_id"`
	LicensePlateID   uuid.UUID       `json:"license_plate_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	AllocatedAt      time.Time       `json:"allocated_at"`
	ReleasedAt       *time.Time      `json:"released_at,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
}

// NewInventoryAllocation creates a validated allocation
func NewInventoryAllocation(orgID, soID, lineID, lpID uuid.UUID, qty decimal.Decimal, now time.Time) (*InventoryAllocation, error) {
	if !qty.IsPositive() {
		return nil, ValidationError("allocation quantity must be positive, got %s", qty)
	}
	return &InventoryAllocation{
		ID:               NewID(),
		OrgID:            orgID,
		SalesOrderID:     soID,
		SalesOrderLineID: lineID,
		LicensePlateID:   lpID,
		Quantity:         qty,
		AllocatedAt:      now,
	}, nil
}

// IsActive reports whether the allocation still holds quantity
func (a *InventoryAllocation) IsActive() bool {
	return a.ReleasedAt == nil && a.ShippedAt == nil
}

// UndoUntil is the end of the free release window
func (a *InventoryAllocation) UndoUntil() time.Time {
	return a.AllocatedAt.Add(UndoWindow)
}

// Release frees the allocated quantity
func (a *InventoryAllocation) Release(now time.Time) error {
	if !a.IsActive() {
		return ConflictError("allocation %s is no longer active", a.ID)
	}
	at := now
	a.ReleasedAt = &at
	return nil
}

// Clone returns a deep copy
func (a *InventoryAllocation) Clone() *InventoryAllocation {
	c := *a
	c.ReleasedAt = cloneTime(a.ReleasedAt)
	c.ShippedAt = cloneTime(a.ShippedAt)
	return &c
}
