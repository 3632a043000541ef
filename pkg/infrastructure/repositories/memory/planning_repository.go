package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// WorkOrderRepository provides in-memory work order storage
type WorkOrderRepository struct {
	rows *table[*entities.WorkOrder]
}

// NewWorkOrderRepository creates a new in-memory work order repository
func NewWorkOrderRepository() *WorkOrderRepository {
	return &WorkOrderRepository{rows: newTable("work order",
		func(wo *entities.WorkOrder) (uuid.UUID, uuid.UUID) { return wo.OrgID, wo.ID },
		(*entities.WorkOrder).Clone)}
}

var _ repositories.WorkOrderRepository = (*WorkOrderRepository)(nil)

func sameWONumber(wo *entities.WorkOrder) func(*entities.WorkOrder) bool {
	return func(existing *entities.WorkOrder) bool { return existing.WONumber == wo.WONumber }
}

func (r *WorkOrderRepository) Create(ctx context.Context, wo *entities.WorkOrder) error {
	return r.rows.insert(wo, sameWONumber(wo))
}

func (r *WorkOrderRepository) Update(ctx context.Context, wo *entities.WorkOrder) error {
	return r.rows.update(wo, sameWONumber(wo))
}

func (r *WorkOrderRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.WorkOrder, error) {
	return r.rows.get(orgID, id)
}

// List returns matching work orders ordered by scheduled start, unscheduled last
func (r *WorkOrderRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.WOFilter) ([]*entities.WorkOrder, error) {
	out := r.rows.filter(orgID, func(wo *entities.WorkOrder) bool {
		if len(f.Statuses) > 0 {
			found := false
			for _, s := range f.Statuses {
				if wo.Status == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		if f.LineCode != "" && wo.LineCode != f.LineCode {
			return false
		}
		if f.From != nil || f.To != nil {
			if wo.ScheduledStart == nil || wo.ScheduledEnd == nil {
				return false
			}
			if f.From != nil && wo.ScheduledEnd.Before(*f.From) {
				return false
			}
			if f.To != nil && wo.ScheduledStart.After(*f.To) {
				return false
			}
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ScheduledStart, out[j].ScheduledStart
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return out, nil
}

// QualityHoldRepository provides in-memory quality hold storage
type QualityHoldRepository struct {
	rows *table[*entities.QualityHold]
}

// NewQualityHoldRepository creates a new in-memory quality hold repository
func NewQualityHoldRepository() *QualityHoldRepository {
	return &QualityHoldRepository{rows: newTable("quality hold",
		func(h *entities.QualityHold) (uuid.UUID, uuid.UUID) { return h.OrgID, h.ID },
		(*entities.QualityHold).Clone)}
}

var _ repositories.QualityHoldRepository = (*QualityHoldRepository)(nil)

func (r *QualityHoldRepository) Create(ctx context.Context, h *entities.QualityHold) error {
	return r.rows.insert(h, nil)
}

func (r *QualityHoldRepository) Update(ctx context.Context, h *entities.QualityHold) error {
	return r.rows.update(h, nil)
}

func (r *QualityHoldRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.QualityHold, error) {
	return r.rows.get(orgID, id)
}

// List returns holds newest first
func (r *QualityHoldRepository) List(ctx context.Context, orgID uuid.UUID, status entities.HoldStatus) ([]*entities.QualityHold, error) {
	out := r.rows.filter(orgID, func(h *entities.QualityHold) bool { return status == "" || h.Status == status })
	sort.SliceStable(out, func(i, j int) bool { return out[i].HeldAt.After(out[j].HeldAt) })
	return out, nil
}
