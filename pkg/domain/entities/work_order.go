package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WOStatus is the lifecycle status of a work order
type WOStatus string

const (
	WODraft      WOStatus = "draft"
	WOPlanned    WOStatus = "planned"
	WOReleased   WOStatus = "released"
	WOInProgress WOStatus = "in_progress"
	WOOnHold     WOStatus = "on_hold"
	WOCompleted  WOStatus = "completed"
	WOClosed     WOStatus = "closed"
	WOCancelled  WOStatus = "cancelled"
)

func (s WOStatus) String() string { return string(s) }

var woTransitions = map[WOStatus][]WOStatus{
	WODraft:      {WOPlanned, WOCancelled},
	WOPlanned:    {WOReleased, WODraft, WOCancelled},
	WOReleased:   {WOInProgress, WOCancelled},
	WOInProgress: {WOOnHold, WOCompleted},
	WOOnHold:     {WOInProgress, WOCancelled},
	WOCompleted:  {WOClosed},
	WOClosed:     {},
	WOCancelled:  {},
}

// Valid reports whether s is a known status
func (s WOStatus) Valid() bool {
	_, ok := woTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed
func (s WOStatus) CanTransitionTo(next WOStatus) bool {
	for _, allowed := range woTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsLocked reports whether product, BOM and quantity are frozen
func (s WOStatus) IsLocked() bool {
	switch s {
	case WOReleased, WOInProgress, WOOnHold, WOCompleted, WOClosed, WOCancelled:
		return true
	}
	return false
}

// IsFinal reports whether the work order can no longer be rescheduled
func (s WOStatus) IsFinal() bool {
	return s == WOCompleted || s == WOClosed || s == WOCancelled
}

// WOPriority orders work orders on the schedule
type WOPriority string

const (
	PriorityLow      WOPriority = "low"
	PriorityNormal   WOPriority = "normal"
	PriorityHigh     WOPriority = "high"
	PriorityCritical WOPriority = "critical"
)

// Valid reports whether p is a known priority
func (p WOPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// WOReservation holds license plate quantity for a work order
type WOReservation struct {
	LicensePlateID uuid.UUID       `json:"license_plate_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	PreviousStatus LPStatus        `json:"previous_status"`
	ReservedAt     time.Time       `json:"reserved_at"`
}

// WOConsumption records material actually used by a work order
type WOConsumption struct {
	LicensePlateID uuid.UUID       `json:"license_plate_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ConsumedAt     time.Time       `json:"consumed_at"`
}

// WorkOrder is a production order for a product on a line
type WorkOrder struct {
	ID             uuid.UUID       `json:"id"`
	OrgID          uuid.UUID       `json:"org_id"`
	WONumber       string          `json:"wo_number"`
	ProductID      uuid.UUID       `json:"product_id"`
	BOMID          *uuid.UUID      `json:"bom_id,omitempty"`
	PlannedQty     decimal.Decimal `json:"planned_qty"`
	ProducedQty    decimal.Decimal `json:"produced_qty"`
	Status         WOStatus        `json:"status"`
	Priority       WOPriority      `json:"priority"`
	LineCode       string          `json:"line_code,omitempty"`
	ScheduledStart *time.Time      `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time      `json:"scheduled_end,omitempty"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Reservations   []WOReservation `json:"reservations"`
	Consumptions   []WOConsumption `json:"consumptions"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewWorkOrder creates a draft work order
func NewWorkOrder(orgID uuid.UUID, woNumber string, productID uuid.UUID, bomID *uuid.UUID, plannedQty decimal.Decimal, priority WOPriority, now time.Time) (*WorkOrder, error) {
	if woNumber == "" {
		return nil, ValidationError("work order number cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, ValidationError("product id cannot be empty")
	}
	if !plannedQty.IsPositive() {
		return nil, ValidationError("planned quantity must be positive, got %s", plannedQty)
	}
	if priority == "" {
		priority = PriorityNormal
	}
	if !priority.Valid() {
		return nil, ValidationError("unknown priority %q", priority)
	}
	return &WorkOrder{
		ID:          NewID(),
		OrgID:       orgID,
		WONumber:    woNumber,
		ProductID:   productID,
		BOMID:       cloneUUID(bomID),
		PlannedQty:  plannedQty,
		ProducedQty: decimal.Zero,
		Status:      WODraft,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Schedule sets the line and time window
func (wo *WorkOrder) Schedule(lineCode string, start, end time.Time) error {
	if !end.After(start) {
		return ValidationError("scheduled end must be after start")
	}
	wo.LineCode = lineCode
	wo.ScheduledStart = &start
	wo.ScheduledEnd = &end
	return nil
}

// ChangeStatus applies a status transition and stamps start/completion times
func (wo *WorkOrder) ChangeStatus(next WOStatus, now time.Time) error {
	if !next.Valid() {
		return ValidationError("unknown work order status %q", next)
	}
	if !wo.Status.CanTransitionTo(next) {
		return TransitionError("work order", wo.Status, next)
	}
	switch next {
	case WOInProgress:
		if wo.StartedAt == nil {
			wo.StartedAt = cloneTime(&now)
		}
	case WOCompleted:
		wo.CompletedAt = cloneTime(&now)
	}
	wo.Status = next
	wo.UpdatedAt = now
	return nil
}

// ProgressPercent is produced over planned, capped at 100
func (wo *WorkOrder) ProgressPercent() int {
	if !wo.PlannedQty.IsPositive() {
		return 0
	}
	pct := wo.ProducedQty.Div(wo.PlannedQty).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// IsOverdue reports whether the scheduled end passed without completion
func (wo *WorkOrder) IsOverdue(now time.Time) bool {
	if wo.ScheduledEnd == nil || wo.Status.IsFinal() {
		return false
	}
	return now.After(*wo.ScheduledEnd)
}

// Reservation returns the active reservation for a plate
func (wo *WorkOrder) Reservation(lpID uuid.UUID) (int, bool) {
	for i, r := range wo.Reservations {
		if r.LicensePlateID == lpID {
			return i, true
		}
	}
	return -1, false
}

// ConsumedByProduct sums consumption quantities per product
func (wo *WorkOrder) ConsumedByProduct() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, c := range wo.Consumptions {
		out[c.ProductID] = out[c.ProductID].Add(c.Quantity)
	}
	return out
}

// Clone returns a deep copy of the work order
func (wo *WorkOrder) Clone() *WorkOrder {
	c := *wo
	c.BOMID = cloneUUID(wo.BOMID)
	c.ScheduledStart = cloneTime(wo.ScheduledStart)
	c.ScheduledEnd = cloneTime(wo.ScheduledEnd)
	c.StartedAt = cloneTime(wo.StartedAt)
	c.CompletedAt = cloneTime(wo.CompletedAt)
	c.Reservations = append([]WOReservation(nil), wo.Reservations...)
	c.Consumptions = append([]WOConsumption(nil), wo.Consumptions...)
	return &c
}
