package entities

import (
	"time"

	"github.com/google/uuid"
)

// HoldPriority drives hold aging thresholds
type HoldPriority string

const (
	HoldLow      HoldPriority = "low"
	HoldMedium   HoldPriority = "medium"
	HoldHigh     HoldPriority = "high"
	HoldCritical HoldPriority = "critical"
)

// HoldType classifies why stock is held
type HoldType string

const (
	HoldQAPending     HoldType = "qa_pending"
	HoldInvestigation HoldType = "investigation"
	HoldRecall        HoldType = "recall"
	HoldQuarantine    HoldType = "quarantine"
)

// Valid reports whether t is a known hold type
func (t HoldType) Valid() bool {
	switch t {
	case HoldQAPending, HoldInvestigation, HoldRecall, HoldQuarantine:
		return true
	}
	return false
}

// HoldStatus is active until released
type HoldStatus string

const (
	HoldActive   HoldStatus = "active"
	HoldReleased HoldStatus = "released"
)

// AgingStatus is how overdue a hold is for its priority
type AgingStatus string

const (
	AgingNormal   AgingStatus = "normal"
	AgingWarning  AgingStatus = "warning"
	AgingCritical AgingStatus = "critical"
)

type agingThreshold struct{ warning, critical float64 }

// hours
var holdAgingThresholds = map[HoldPriority]agingThreshold{
	HoldCritical: {12, 24},
	HoldHigh:     {24, 48},
	HoldMedium:   {48, 72},
	HoldLow:      {120, 168},
}

// Valid reports whether p is a known priority
func (p HoldPriority) Valid() bool {
	_, ok := holdAgingThresholds[p]
	return ok
}

// HoldItem remembers a plate's status before it was blocked
type HoldItem struct {
	LicensePlateID uuid.UUID `json:"license_plate_id"`
	PreviousStatus LPStatus  `json:"previous_status"`
}

// QualityHold blocks a set of license plates
type QualityHold struct {
	ID           uuid.UUID    `json:"id"`
	OrgID        uuid.UUID    `json:"org_id"`
	HoldNumber   string       `json:"hold_number"`
	Reason       string       `json:"reason"`
	Type         HoldType     `json:"hold_type"`
	Priority     HoldPriority `json:"priority"`
	Status       HoldStatus   `json:"status"`
	HeldAt       time.Time    `json:"held_at"`
	ReleasedAt   *time.Time   `json:"released_at,omitempty"`
	ReleaseNotes string       `json:"release_notes,omitempty"`
	Items        []HoldItem   `json:"items"`
}

// NewQualityHold creates an active hold with no items
func NewQualityHold(orgID uuid.UUID, number, reason string, holdType HoldType, priority HoldPriority, now time.Time) (*QualityHold, error) {
	if reason == "" {
		return nil, ValidationError("hold reason cannot be empty")
	}
	if holdType == "" {
		holdType = HoldInvestigation
	}
	if !holdType.Valid() {
		return nil, ValidationError("unknown hold type %q", holdType)
	}
	if !priority.Valid() {
		return nil, ValidationError("unknown hold priority %q", priority)
	}
	return &QualityHold{
		ID:         NewID(),
		OrgID:      orgID,
		HoldNumber: number,
		Reason:     reason,
		Type:       holdType,
		Priority:   priority,
		Status:     HoldActive,
		HeldAt:     now,
	}, nil
}

// AgingHours is the time on hold, up to release
func (h *QualityHold) AgingHours(now time.Time) float64 {
	end := now
	if h.ReleasedAt != nil {
		end = *h.ReleasedAt
	}
	return end.Sub(h.HeldAt).Hours()
}

// AgingStatus grades AgingHours against the priority thresholds
func (h *QualityHold) AgingStatus(now time.Time) AgingStatus {
	t := holdAgingThresholds[h.Priority]
	hours := h.AgingHours(now)
	switch {
	case hours >= t.critical:
		return AgingCritical
	case hours >= t.warning:
		return AgingWarning
	}
	return AgingNormal
}

// Release marks the hold released
func (h *QualityHold) Release(notes string, now time.Time) error {
	if h.Status == HoldReleased {
		return ConflictError("hold %s is already released", h.HoldNumber)
	}
	h.Status = HoldReleased
	h.ReleasedAt = cloneTime(&now)
	h.ReleaseNotes = notes
	return nil
}

// Clone returns a deep copy
func (h *QualityHold) Clone() *QualityHold {
	c := *h
	c.ReleasedAt = cloneTime(h.ReleasedAt)
	c.Items = append([]HoldItem(nil), h.Items...)
	return &c
}
