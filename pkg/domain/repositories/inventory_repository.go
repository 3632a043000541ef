package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// LPFilter narrows license plate listings. Zero values mean no filter.
type LPFilter struct {
	ProductID      *uuid.UUID
	WarehouseID    *uuid.UUID
	LocationID     *uuid.UUID
	Statuses       []entities.LPStatus
	QAStatuses     []entities.QAStatus
	NumberPrefix   string
	ExpiringBefore *time.Time
	ActiveOnly     bool
	SortBy         string
	SortDesc       bool
	Offset         int
	Limit          int
}

// LicensePlateRepository provides access to license plates
type LicensePlateRepository interface {
	Create(ctx context.Context, lp *entities.LicensePlate) error
	Update(ctx context.Context, lp *entities.LicensePlate) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.LicensePlate, error)
	GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*entities.LicensePlate, error)
	GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.LicensePlate, error)
	// List returns one page and the total match count
	List(ctx context.Context, orgID uuid.UUID, filter LPFilter) ([]*entities.LicensePlate, int, error)
}

// GenealogyRepository provides access to genealogy links and traces
type GenealogyRepository interface {
	Create(ctx context.Context, link *entities.GenealogyLink) error
	Update(ctx context.Context, link *entities.GenealogyLink) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.GenealogyLink, error)
	// FindActive returns the non-reversed link with the same endpoints and
	// operation, or ErrNotFound
	FindActive(ctx context.Context, orgID, parentID, childID uuid.UUID, op entities.OperationType) (*entities.GenealogyLink, error)
	ListByWorkOrder(ctx context.Context, orgID, woID uuid.UUID) ([]*entities.GenealogyLink, error)
	// Trace walks links from rootID up to maxDepth levels. Forward follows
	// parent -> child, backward child -> parent.
	Trace(ctx context.Context, orgID, rootID uuid.UUID, dir entities.TraceDirection, maxDepth int, includeReversed bool) ([]entities.TraceEdge, error)
}

// ActivityRepository stores the activity feed
type ActivityRepository interface {
	Append(ctx context.Context, e *entities.ActivityEvent) error
	Recent(ctx context.Context, orgID uuid.UUID, limit int, types []entities.ActivityType) ([]*entities.ActivityEvent, error)
}
