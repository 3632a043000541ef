package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType is the kind of material movement a genealogy link records
type OperationType string

const (
	OpConsume OperationType = "consume"
	OpOutput  OperationType = "output"
	OpSplit   OperationType = "split"
	OpMerge   OperationType = "merge"
)

func (o OperationType) String() string { return string(o) }

// Valid reports whether o is a known operation type
func (o OperationType) Valid() bool {
	switch o {
	case OpConsume, OpOutput, OpSplit, OpMerge:
		return true
	}
	return false
}

// GenealogyLink is a directed parent -> child edge between two license plates
type GenealogyLink struct {
	ID            uuid.UUID       `json:"id"`
	OrgID         uuid.UUID       `json:"org_id"`
	ParentLPID    uuid.UUID       `json:"parent_lp_id"`
	ChildLPID     uuid.UUID       `json:"child_lp_id"`
	OperationType OperationType   `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	OperationDate time.Time       `json:"operation_date"`
	WorkOrderID   *uuid.UUID      `json:"work_order_id,omitempty"`
	IsReversed    bool            `json:"is_reversed"`
	ReversedAt    *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewGenealogyLink creates a validated link
func NewGenealogyLink(orgID, parentLPID, childLPID uuid.UUID, op OperationType, quantity decimal.Decimal, workOrderID *uuid.UUID, now time.Time) (*GenealogyLink, error) {
	if !op.Valid() {
		return nil, ValidationError("invalid operation type %q", op)
	}
	if parentLPID == childLPID {
		return nil, ValidationError("self-referencing genealogy link on %s", parentLPID)
	}
	if quantity.IsNegative() {
		return nil, ValidationError("quantity cannot be negative, got %s", quantity)
	}
	return &GenealogyLink{
		ID:            NewID(),
		OrgID:         orgID,
		ParentLPID:    parentLPID,
		ChildLPID:     childLPID,
		OperationType: op,
		Quantity:      quantity,
		OperationDate: now,
		WorkOrderID:   cloneUUID(workOrderID),
		CreatedAt:     now,
	}, nil
}

// Reverse soft-deletes the link
func (l *GenealogyLink) Reverse(now time.Time) error {
	if l.IsReversed {
		return ConflictError("genealogy link %s is already reversed", l.ID)
	}
	l.IsReversed = true
	at := now
	l.ReversedAt = &at
	return nil
}

// Clone returns a deep copy of the link
func (l *GenealogyLink) Clone() *GenealogyLink {
	c := *l
	c.WorkOrderID = cloneUUID(l.WorkOrderID)
	c.ReversedAt = cloneTime(l.ReversedAt)
	return &c
}

// TraceDirection selects descendants, ancestors or both
type TraceDirection string

const (
	TraceForward  TraceDirection = "forward"
	TraceBackward TraceDirection = "backward"
	TraceBoth     TraceDirection = "both"
)

// Valid reports whether d is a known direction
func (d TraceDirection) Valid() bool {
	return d == TraceForward || d == TraceBackward || d == TraceBoth
}

// TraceEdge is a plate reached by a trace. Each plate appears once, at the
// smallest depth it was reached.
type TraceEdge struct {
	LPID          uuid.UUID       `json:"lp_id"`
	FromLPID      uuid.UUID       `json:"from_lp_id"`
	Depth         int             `json:"depth"`
	OperationType OperationType   `json:"operation_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	LinkID        uuid.UUID       `json:"link_id"`
}
