package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentLine records a plate leaving the building
type ShipmentLine struct {
	LicensePlateID uuid.UUID       `json:"license_plate_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
}

// Shipment is the physical dispatch of a sales order
type Shipment struct {
	ID             uuid.UUID      `json:"id"`
	OrgID          uuid.UUID      `json:"org_id"`
	ShipmentNumber string         `json:"shipment_number"`
	SalesOrderID   uuid.UUID      `json:"sales_order_id"`
	CustomerID     uuid.UUID      `json:"customer_id"`
	ShippedAt      time.Time      `json:"shipped_at"`
	Lines          []ShipmentLine `json:"lines"`
}

// Clone returns a deep copy
func (s *Shipment) Clone() *Shipment {
	c := *s
	c.Lines = append([]ShipmentLine(nil), s.Lines...)
	return &c
}

// RMAStatus is the lifecycle of a return authorisation
type RMAStatus string

const (
	RMAPending  RMAStatus = "pending"
	RMAApproved RMAStatus = "approved"
	RMAReceived RMAStatus = "received"
	RMAClosed   RMAStatus = "closed"
	RMARejected RMAStatus = "rejected"
)

func (s RMAStatus) String() string { return string(s) }

var rmaTransitions = map[RMAStatus][]RMAStatus{
	RMAPending:  {RMAApproved, RMARejected},
	RMAApproved: {RMAReceived, RMAClosed},
	RMAReceived: {RMAClosed},
	RMARejected: {RMAClosed},
	RMAClosed:   {},
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s RMAStatus) CanTransitionTo(next RMAStatus) bool {
	for _, allowed := range rmaTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RMAReason is why goods come back
type RMAReason string

const (
	ReasonDamaged       RMAReason = "damaged"
	ReasonWrongProduct  RMAReason = "wrong_product"
	ReasonQualityIssue  RMAReason = "quality_issue"
	ReasonExpired       RMAReason = "expired"
	ReasonCustomerError RMAReason = "customer_error"
	ReasonOther         RMAReason = "other"
)

// Valid reports whether r is a known reason
func (r RMAReason) Valid() bool {
	switch r {
	case ReasonDamaged, ReasonWrongProduct, ReasonQualityIssue, ReasonExpired, ReasonCustomerError, ReasonOther:
		return true
	}
	return false
}

// Disposition is what happens to returned goods
type Disposition string

const (
	DispositionRestock    Disposition = "restock"
	DispositionScrap      Disposition = "scrap"
	DispositionQualityHld Disposition = "quality_hold"
	DispositionRework     Disposition = "rework"
)

// SuggestedDisposition maps a reason to its default disposition
func (r RMAReason) SuggestedDisposition() Disposition {
	switch r {
	case ReasonDamaged, ReasonExpired:
		return DispositionScrap
	case ReasonQualityIssue:
		return DispositionQualityHld
	case ReasonWrongProduct, ReasonCustomerError:
		return DispositionRestock
	}
	return DispositionRework
}

// RMALine is one returned product
type RMALine struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	ReturnLPID *uuid.UUID      `json:"return_lp_id,omitempty"`
}

// RMA authorises a customer return against a shipped order
type RMA struct {
	ID           uuid.UUID   `json:"id"`
	OrgID        uuid.UUID   `json:"org_id"`
	RMANumber    string      `json:"rma_number"`
	SalesOrderID uuid.UUID   `json:"sales_order_id"`
	CustomerID   uuid.UUID   `json:"customer_id"`
	Reason       RMAReason   `json:"reason"`
	Disposition  Disposition `json:"disposition"`
	Status       RMAStatus   `json:"status"`
	Lines        []RMALine   `json:"lines"`
	ApprovedAt   *time.Time  `json:"approved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewRMA creates a pending RMA
func NewRMA(orgID uuid.UUID, number string, so *SalesOrder, reason RMAReason, disposition Disposition, lines []RMALine, now time.Time) (*RMA, error) {
	if !reason.Valid() {
		return nil, ValidationError("unknown rma reason %q", reason)
	}
	if len(lines) == 0 {
		return nil, ValidationError("rma needs at least one line")
	}
	for i, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, ValidationError("line %d: quantity must be positive, got %s", i+1, l.Quantity)
		}
	}
	if disposition == "" {
		disposition = reason.SuggestedDisposition()
	}
	return &RMA{
		ID:           NewID(),
		OrgID:        orgID,
		RMANumber:    number,
		SalesOrderID: so.ID,
		CustomerID:   so.CustomerID,
		Reason:       reason,
		Disposition:  disposition,
		Status:       RMAPending,
		Lines:        append([]RMALine(nil), lines...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ChangeStatus applies a status transition
func (r *RMA) ChangeStatus(next RMAStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return TransitionError("rma", r.Status, next)
	}
	if next == RMAApproved {
		r.ApprovedAt = cloneTime(&now)
	}
	r.Status = next
	r.UpdatedAt = now
	return nil
}

// Clone returns a deep copy
func (r *RMA) Clone() *RMA {
	c := *r
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.Lines = make([]RMALine, len(r.Lines))
	for i, l := range r.Lines {
		l.ReturnLPID = cloneUUID(l.ReturnLPID)
		c.Lines[i] = l
	}
	return &c
}
