package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType names a state change shown on the warehouse dashboard
type ActivityType string

const (
	ActivityLPCreated       ActivityType = "lp_created"
	ActivityLPStatusChanged ActivityType = "lp_status_changed"
	ActivityLPQAChanged     ActivityType = "lp_qa_changed"
	ActivityLPSplit         ActivityType = "lp_split"
	ActivityLPMerged        ActivityType = "lp_merged"
	ActivityGenealogyLinked ActivityType = "genealogy_linked"
	ActivityGenealogyRev    ActivityType = "genealogy_reversed"
	ActivitySOStatusChanged ActivityType = "so_status_changed"
	ActivitySOAllocated     ActivityType = "so_allocated"
	ActivitySOReleased      ActivityType = "so_released"
	ActivitySOShipped       ActivityType = "so_shipped"
	ActivityRMAChanged      ActivityType = "rma_changed"
	ActivityWOStatusChanged ActivityType = "wo_status_changed"
	ActivityWOConsumed      ActivityType = "wo_consumed"
	ActivityWOOutput        ActivityType = "wo_output"
	ActivityWORescheduled   ActivityType = "wo_rescheduled"
	ActivityHoldCreated     ActivityType = "hold_created"
	ActivityHoldReleased    ActivityType = "hold_released"
	ActivityRecallSimulated ActivityType = "recall_simulated"
)

// ActivityEvent is one line of the activity feed. IDs are ULIDs so they sort
// by time.
type ActivityEvent struct {
	ID       string         `json:"id"`
	OrgID    uuid.UUID      `json:"org_id"`
	Type     ActivityType   `json:"type"`
	EntityID uuid.UUID      `json:"entity_id"`
	Summary  string         `json:"summary"`
	Data     map[string]any `json:"data,omitempty"`
	At       time.Time      `json:"at"`
}
