package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SOStatus is the lifecycle status of a sales order
type SOStatus string

const (
	SODraft     SOStatus = "draft"
	SOConfirmed SOStatus = "confirmed"
	SOOnHold    SOStatus = "on_hold"
	SOAllocated SOStatus = "allocated"
	SOPicking   SOStatus = "picking"
	SOPacking   SOStatus = "packing"
	SOShipped   SOStatus = "shipped"
	SODelivered SOStatus = "delivered"
	SOCancelled SOStatus = "cancelled"
)

func (s SOStatus) String() string { return string(s) }

var soTransitions = map[SOStatus][]SOStatus{
	SODraft:     {SOConfirmed, SOOnHold, SOCancelled},
	SOConfirmed: {SOOnHold, SOCancelled, SOAllocated, SOShipped},
	SOOnHold:    {SOConfirmed, SOCancelled},
	SOAllocated: {SOPicking, SOCancelled},
	SOPicking:   {SOPacking},
	SOPacking:   {SOShipped},
	SOShipped:   {SODelivered},
	SODelivered: {},
	SOCancelled: {},
}

// Valid reports whether s is a known status
func (s SOStatus) Valid() bool {
	_, ok := soTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s SOStatus) CanTransitionTo(next SOStatus) bool {
	for _, allowed := range soTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanShip reports whether a shipment may be created from s
func (s SOStatus) CanShip() bool {
	return s == SOAllocated || s == SOPicking || s == SOPacking
}

// SalesOrderLine is a single ordered product
type SalesOrderLine struct {
	ID                uuid.UUID       `json:"id"`
	LineNumber        int             `json:"line_number"`
	ProductID         uuid.UUID       `json:"product_id"`
	QuantityOrdered   decimal.Decimal `json:"quantity_ordered"`
	QuantityAllocated decimal.Decimal `json:"quantity_allocated"`
	QuantityShipped   decimal.Decimal `json:"quantity_shipped"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	BackorderFlag     bool            `json:"backorder_flag"`
}

// Remaining is the quantity still to allocate
func (l SalesOrderLine) Remaining() decimal.Decimal {
	r := l.QuantityOrdered.Sub(l.QuantityAllocated).Sub(l.QuantityShipped)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// SalesOrder is a customer order
type SalesOrder struct {
	ID               uuid.UUID        `json:"id"`
	OrgID            uuid.UUID        `json:"org_id"`
	OrderNumber      string           `json:"order_number"`
	CustomerID       uuid.UUID        `json:"customer_id"`
	Status           SOStatus         `json:"status"`
	OrderDate        time.Time        `json:"order_date"`
	PromisedShipDate *time.Time       `json:"promised_ship_date,omitempty"`
	CustomerPO       string           `json:"customer_po,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Lines            []SalesOrderLine `json:"lines"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewSalesOrder creates a draft sales order, numbering lines from 1
func NewSalesOrder(orgID uuid.UUID, orderNumber string, customerID uuid.UUID, lines []SalesOrderLine, now time.Time) (*SalesOrder, error) {
	if orderNumber == "" {
		return nil, ValidationError("order number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, ValidationError("customer id cannot be empty")
	}
	so := &SalesOrder{
		ID:          NewID(),
		OrgID:       orgID,
		OrderNumber: orderNumber,
		CustomerID:  customerID,
		Status:      SODraft,
		OrderDate:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := so.SetLines(lines); err != nil {
		return nil, err
	}
	return so, nil
}

// SetLines replaces the order lines. Only drafts are editable.
func (so *SalesOrder) SetLines(lines []SalesOrderLine) error {
	if so.Status != SODraft {
		return ConflictError("sales order %s is %s, only draft orders can be edited", so.OrderNumber, so.Status)
	}
	if len(lines) == 0 {
		return ValidationError("sales order needs at least one line")
	}
	out := make([]SalesOrderLine, len(lines))
	for i, l := range lines {
		if l.ProductID == uuid.Nil {
			return ValidationError("line %d: product id cannot be empty", i+1)
		}
		if !l.QuantityOrdered.IsPositive() {
			return ValidationError("line %d: quantity must be positive, got %s", i+1, l.QuantityOrdered)
		}
		if l.UnitPrice.IsNegative() {
			return ValidationError("line %d: unit price cannot be negative", i+1)
		}
		if l.ID == uuid.Nil {
			l.ID = NewID()
		}
		l.LineNumber = i + 1
		out[i] = l
	}
	so.Lines = out
	return nil
}

// ChangeStatus applies a status transition
func (so *SalesOrder) ChangeStatus(next SOStatus, now time.Time) error {
	if !next.Valid() {
		return ValidationError("unknown sales order status %q", next)
	}
	if !so.Status.CanTransitionTo(next) {
		return TransitionError("sales order", so.Status, next)
	}
	so.Status = next
	so.UpdatedAt = now
	return nil
}

// MarkShipped closes out fulfilment once a shipment leaves
func (so *SalesOrder) MarkShipped(now time.Time) error {
	if !so.Status.CanShip() {
		return TransitionError("sales order", so.Status, SOShipped)
	}
	so.Status = SOShipped
	so.UpdatedAt = now
	return nil
}

// ReturnToConfirmed puts an allocated or held order back to confirmed once
// its allocations are released
func (so *SalesOrder) ReturnToConfirmed(now time.Time) error {
	switch so.Status {
	case SOConfirmed:
		return nil
	case SOAllocated, SOOnHold:
		so.Status = SOConfirmed
		so.UpdatedAt = now
		return nil
	}
	return TransitionError("sales order", so.Status, SOConfirmed)
}

// Line finds a line by id
func (so *SalesOrder) Line(id uuid.UUID) (*SalesOrderLine, bool) {
	for i := range so.Lines {
		if so.Lines[i].ID == id {
			return &so.Lines[i], true
		}
	}
	return nil, false
}

// CloneAs copies the order into a new draft with zeroed fulfilment
func (so *SalesOrder) CloneAs(orderNumber string, now time.Time) *SalesOrder {
	lines := make([]SalesOrderLine, len(so.Lines))
	for i, l := range so.Lines {
		lines[i] = SalesOrderLine{
			ID:                NewID(),
			LineNumber:        i + 1,
			ProductID:         l.ProductID,
			QuantityOrdered:   l.QuantityOrdered,
			QuantityAllocated: decimal.Zero,
			QuantityShipped:   decimal.Zero,
			UnitPrice:         l.UnitPrice,
		}
	}
	return &SalesOrder{
		ID:          NewID(),
		OrgID:       so.OrgID,
		OrderNumber: orderNumber,
		CustomerID:  so.CustomerID,
		Status:      SODraft,
		OrderDate:   now,
		Notes:       so.Notes,
		Lines:       lines,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy of the order
func (so *SalesOrder) Clone() *SalesOrder {
	c := *so
	c.PromisedShipDate = cloneTime(so.PromisedShipDate)
	c.Lines = append([]SalesOrderLine(nil), so.Lines...)
	return &c
}
