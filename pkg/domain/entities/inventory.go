package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LPStatus represents the lifecycle status of a license plate
type LPStatus string

const (
	LPAvailable LPStatus = "available"
	LPReserved  LPStatus = "reserved"
	LPConsumed  LPStatus = "consumed"
	LPBlocked   LPStatus = "blocked"
	LPShipped   LPStatus = "shipped"
)

func (s LPStatus) String() string { return string(s) }

var lpTransitions = map[LPStatus][]LPStatus{
	LPAvailable: {LPReserved, LPConsumed, LPBlocked},
	LPReserved:  {LPAvailable, LPConsumed},
	LPBlocked:   {LPAvailable},
	LPConsumed:  {},
	LPShipped:   {},
}

// Valid reports whether s is a known status
func (s LPStatus) Valid() bool {
	_, ok := lpTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s LPStatus) CanTransitionTo(next LPStatus) bool {
	for _, allowed := range lpTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s LPStatus) IsTerminal() bool {
	return len(lpTransitions[s]) == 0
}

// QAStatus represents the quality status of a license plate
type QAStatus string

const (
	QAPending    QAStatus = "pending"
	QAPassed     QAStatus = "passed"
	QAFailed     QAStatus = "failed"
	QAQuarantine QAStatus = "quarantine"
)

func (s QAStatus) String() string { return string(s) }

var qaTransitions = map[QAStatus][]QAStatus{
	QAPending:    {QAPassed, QAFailed, QAQuarantine},
	QAPassed:     {QAQuarantine},
	QAQuarantine: {QAPassed, QAFailed},
	QAFailed:     {},
}

// Valid reports whether s is a known QA status
func (s QAStatus) Valid() bool {
	_, ok := qaTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s QAStatus) CanTransitionTo(next QAStatus) bool {
	for _, allowed := range qaTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LPSource records how a license plate came into existence
type LPSource string

const (
	SourceReceipt    LPSource = "receipt"
	SourceProduction LPSource = "production"
	SourceSplit      LPSource = "split"
	SourceMerge      LPSource = "merge"
	SourceReturn     LPSource = "return"
	SourceManual     LPSource = "manual"
)

// Valid reports whether s is a known source
func (s LPSource) Valid() bool {
	switch s {
	case SourceReceipt, SourceProduction, SourceSplit, SourceMerge, SourceReturn, SourceManual:
		return true
	}
	return false
}

// LicensePlate is a uniquely numbered container of a single product and batch
type LicensePlate struct {
	ID                uuid.UUID       `json:"id"`
	OrgID             uuid.UUID       `json:"org_id"`
	LPNumber          string          `json:"lp_number"`
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	UOM               string          `json:"uom"`
	LocationID        uuid.UUID       `json:"location_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	Status            LPStatus        `json:"status"`
	QAStatus          QAStatus        `json:"qa_status"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty"`
	Source            LPSource        `json:"source"`
	ParentLPID        *uuid.UUID      `json:"parent_lp_id,omitempty"`
	WorkOrderID       *uuid.UUID      `json:"work_order_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewLicensePlate creates a validated LicensePlate in available/pending state
func NewLicensePlate(orgID uuid.UUID, lpNumber string, productID uuid.UUID, quantity decimal.Decimal, uom string, warehouseID, locationID uuid.UUID, source LPSource, now time.Time) (*LicensePlate, error) {
	if lpNumber == "" {
		return nil, ValidationError("lp number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, ValidationError("product id cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, ValidationError("quantity cannot be negative, got %s", quantity)
	}
	if uom == "" {
		return nil, ValidationError("unit of measure cannot be empty")
	}
	if warehouseID == uuid.Nil || locationID == uuid.Nil {
		return nil, ValidationError("warehouse and location are required")
	}
	if !source.Valid() {
		return nil, ValidationError("unknown lp source %q", source)
	}
	return &LicensePlate{
		ID:          NewID(),
		OrgID:       orgID,
		LPNumber:    lpNumber,
		ProductID:   productID,
		Quantity:    quantity,
		UOM:         uom,
		LocationID:  locationID,
		WarehouseID: warehouseID,
		Status:      LPAvailable,
		QAStatus:    QAPending,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ChangeStatus applies a status transition
func (lp *LicensePlate) ChangeStatus(next LPStatus, now time.Time) error {
	if !next.Valid() {
		return ValidationError("unknown lp status %q", next)
	}
	if !lp.Status.CanTransitionTo(next) {
		return TransitionError("license plate", lp.Status, next)
	}
	lp.Status = next
	lp.UpdatedAt = now
	return nil
}

// ChangeQAStatus applies a QA status transition
func (lp *LicensePlate) ChangeQAStatus(next QAStatus, now time.Time) error {
	if !next.Valid() {
		return ValidationError("unknown qa status %q", next)
	}
	if !lp.QAStatus.CanTransitionTo(next) {
		return TransitionError("qa", lp.QAStatus, next)
	}
	lp.QAStatus = next
	lp.UpdatedAt = now
	return nil
}

// Block puts the plate on hold whatever its usable status, returning the
// status to restore on release
func (lp *LicensePlate) Block(now time.Time) (LPStatus, error) {
	if lp.Status != LPAvailable && lp.Status != LPReserved {
		return "", ConflictError("LP %s is %s and cannot be held", lp.LPNumber, lp.Status)
	}
	prev := lp.Status
	lp.Status = LPBlocked
	lp.UpdatedAt = now
	return prev, nil
}

// Unblock restores the status recorded by Block. Plates no longer blocked
// are left alone.
func (lp *LicensePlate) Unblock(prev LPStatus, now time.Time) bool {
	if lp.Status != LPBlocked {
		return false
	}
	if prev != LPReserved {
		prev = LPAvailable
	}
	lp.Status = prev
	lp.UpdatedAt = now
	return true
}

// IsConsumable reports whether the plate can feed production or shipping
func (lp *LicensePlate) IsConsumable() bool {
	return (lp.Status == LPAvailable || lp.Status == LPReserved) && lp.QAStatus == QAPassed
}

// IsExpired reports whether the plate expired before asOf's calendar day
func (lp *LicensePlate) IsExpired(asOf time.Time) bool {
	if lp.ExpiryDate == nil {
		return false
	}
	return DaysBetween(asOf, *lp.ExpiryDate) < 0
}

// IsActive reports whether the plate still holds stock
func (lp *LicensePlate) IsActive() bool {
	return lp.Status != LPConsumed && lp.Status != LPShipped && lp.Quantity.IsPositive()
}

// Consume reduces the quantity and marks the plate consumed once empty
func (lp *LicensePlate) Consume(qty decimal.Decimal, emptied LPStatus, now time.Time) error {
	if !qty.IsPositive() {
		return ValidationError("quantity must be positive, got %s", qty)
	}
	if qty.GreaterThan(lp.Quantity) {
		return ValidationError("quantity %s exceeds license plate quantity %s", qty, lp.Quantity)
	}
	lp.Quantity = lp.Quantity.Sub(qty)
	if lp.Quantity.IsZero() {
		lp.Status = emptied
	}
	lp.UpdatedAt = now
	return nil
}

// Clone returns a deep copy of the plate
func (lp *LicensePlate) Clone() *LicensePlate {
	c := *lp
	c.ExpiryDate = cloneTime(lp.ExpiryDate)
	c.ManufacturingDate = cloneTime(lp.ManufacturingDate)
	c.ParentLPID = cloneUUID(lp.ParentLPID)
	c.WorkOrderID = cloneUUID(lp.WorkOrderID)
	return &c
}

// DaysBetween returns whole calendar days from a to b in UTC
func DaysBetween(a, b time.Time) int {
	au, bu := a.UTC(), b.UTC()
	ad := time.Date(au.Year(), au.Month(), au.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(bu.Year(), bu.Month(), bu.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
