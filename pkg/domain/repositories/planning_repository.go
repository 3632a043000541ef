package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// WOFilter narrows work order listings. From/To select orders whose
// scheduled window overlaps the range.
type WOFilter struct {
	Statuses []entities.WOStatus
	LineCode string
	From     *time.Time
	To       *time.Time
}

// WorkOrderRepository provides access to work orders
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *entities.WorkOrder) error
	Update(ctx context.Context, wo *entities.WorkOrder) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.WorkOrder, error)
	List(ctx context.Context, orgID uuid.UUID, filter WOFilter) ([]*entities.WorkOrder, error)
}

// QualityHoldRepository provides access to quality holds
type QualityHoldRepository interface {
	Create(ctx context.Context, h *entities.QualityHold) error
	Update(ctx context.Context, h *entities.QualityHold) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.QualityHold, error)
	// List returns holds in the given status, all holds when status is empty
	List(ctx context.Context, orgID uuid.UUID, status entities.HoldStatus) ([]*entities.QualityHold, error)
}
