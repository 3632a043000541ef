package entities

import (
	"time"

	"github.com/google/uuid"
)

// LocationType describes the physical kind of a storage location
type LocationType string

const (
	Bulk    LocationType = "bulk"
	Pallet  LocationType = "pallet"
	Shelf   LocationType = "shelf"
	Floor   LocationType = "floor"
	Staging LocationType = "staging"
)

// Valid reports whether t is a known location type
func (t LocationType) Valid() bool {
	switch t {
	case Bulk, Pallet, Shelf, Floor, Staging:
		return true
	}
	return false
}

// Warehouse groups locations
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewWarehouse creates a validated Warehouse
func NewWarehouse(orgID uuid.UUID, code, name string, now time.Time) (*Warehouse, error) {
	if code == "" {
		return nil, ValidationError("warehouse code cannot be empty")
	}
	if name == "" {
		name = code
	}
	return &Warehouse{ID: NewID(), OrgID: orgID, Code: code, Name: name, CreatedAt: now}, nil
}

// Location is a bin inside a warehouse
type Location struct {
	ID          uuid.UUID    `json:"id"`
	OrgID       uuid.UUID    `json:"org_id"`
	WarehouseID uuid.UUID    `json:"warehouse_id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Type        LocationType `json:"type"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewLocation creates a validated Location
func NewLocation(orgID, warehouseID uuid.UUID, code, name string, locationType LocationType, now time.Time) (*Location, error) {
	if warehouseID == uuid.Nil {
		return nil, ValidationError("warehouse id cannot be empty")
	}
	if code == "" {
		return nil, ValidationError("location code cannot be empty")
	}
	if !locationType.Valid() {
		return nil, ValidationError("unknown location type %q", locationType)
	}
	if name == "" {
		name = code
	}
	return &Location{
		ID:          NewID(),
		OrgID:       orgID,
		WarehouseID: warehouseID,
		Code:        code,
		Name:        name,
		Type:        locationType,
		CreatedAt:   now,
	}, nil
}
