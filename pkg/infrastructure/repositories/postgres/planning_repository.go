package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// WorkOrderRepository stores work orders; reservations and consumptions
// live in JSONB columns
type WorkOrderRepository struct{ db }

var _ repositories.WorkOrderRepository = (*WorkOrderRepository)(nil)

const workOrderColumns = `id, org_id, wo_number, product_id, bom_id, planned_qty, produced_qty, status,
	priority, line_code, scheduled_start, scheduled_end, started_at, completed_at,
	reservations, consumptions, created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*entities.WorkOrder, error) {
	var wo entities.WorkOrder
	err := row.Scan(&wo.ID, &wo.OrgID, &wo.WONumber, &wo.ProductID, &wo.BOMID, &wo.PlannedQty, &wo.ProducedQty,
		&wo.Status, &wo.Priority, &wo.LineCode, &wo.ScheduledStart, &wo.ScheduledEnd, &wo.StartedAt,
		&wo.CompletedAt, &wo.Reservations, &wo.Consumptions, &wo.CreatedAt, &wo.UpdatedAt)
	return &wo, err
}

func (r *WorkOrderRepository) Create(ctx context.Context, wo *entities.WorkOrder) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO work_orders (`+workOrderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		wo.ID, wo.OrgID, wo.WONumber, wo.ProductID, wo.BOMID, wo.PlannedQty, wo.ProducedQty, string(wo.Status),
		string(wo.Priority), wo.LineCode, wo.ScheduledStart, wo.ScheduledEnd, wo.StartedAt, wo.CompletedAt,
		jsonList(wo.Reservations), jsonList(wo.Consumptions), wo.CreatedAt, wo.UpdatedAt)
	return mapError(err, "work order")
}

func (r *WorkOrderRepository) Update(ctx context.Context, wo *entities.WorkOrder) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE work_orders SET
			product_id = $3, bom_id = $4, planned_qty = $5, produced_qty = $6, status = $7, priority = $8,
			line_code = $9, scheduled_start = $10, scheduled_end = $11, started_at = $12, completed_at = $13,
			reservations = $14, consumptions = $15, updated_at = $16
		WHERE org_id = $1 AND id = $2
	`, wo.OrgID, wo.ID, wo.ProductID, wo.BOMID, wo.PlannedQty, wo.ProducedQty, string(wo.Status),
		string(wo.Priority), wo.LineCode, wo.ScheduledStart, wo.ScheduledEnd, wo.StartedAt, wo.CompletedAt,
		jsonList(wo.Reservations), jsonList(wo.Consumptions), wo.UpdatedAt)
	if err != nil {
		return mapError(err, "work order")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("work order %s not found", wo.ID)
	}
	return nil
}

func (r *WorkOrderRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.WorkOrder, error) {
	wo, err := scanWorkOrder(r.q(ctx).QueryRow(ctx,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "work order")
	}
	return wo, nil
}

// List orders by scheduled start with unscheduled orders last. A date range
// keeps only scheduled orders overlapping it.
func (r *WorkOrderRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.WOFilter) ([]*entities.WorkOrder, error) {
	w := newWhere(orgID)
	w.raw("org_id = $1")
	if len(f.Statuses) > 0 {
		w.add("status = ANY($%d)", stringsOf(f.Statuses))
	}
	if f.LineCode != "" {
		w.add("line_code = $%d", f.LineCode)
	}
	if f.From != nil || f.To != nil {
		w.raw("scheduled_start IS NOT NULL AND scheduled_end IS NOT NULL")
	}
	if f.From != nil {
		w.add("scheduled_end >= $%d", *f.From)
	}
	if f.To != nil {
		w.add("scheduled_start <= $%d", *f.To)
	}

	rows, err := r.q(ctx).Query(ctx, `SELECT `+workOrderColumns+` FROM work_orders `+w.String()+
		` ORDER BY scheduled_start ASC NULLS LAST, created_at`, w.args...)
	if err != nil {
		return nil, mapError(err, "work order")
	}
	orders, err := collect(rows, scanWorkOrder)
	return orders, mapError(err, "work order")
}

// QualityHoldRepository stores quality holds; held plates live in JSONB
type QualityHoldRepository struct{ db }

var _ repositories.QualityHoldRepository = (*QualityHoldRepository)(nil)

const holdColumns = `id, org_id, hold_number, reason, hold_type, priority, status, held_at, released_at,
	release_notes, items`

func scanHold(row pgx.Row) (*entities.QualityHold, error) {
	var h entities.QualityHold
	err := row.Scan(&h.ID, &h.OrgID, &h.HoldNumber, &h.Reason, &h.Type, &h.Priority, &h.Status,
		&h.HeldAt, &h.ReleasedAt, &h.ReleaseNotes, &h.Items)
	return &h, err
}

func (r *QualityHoldRepository) Create(ctx context.Context, h *entities.QualityHold) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO quality_holds (`+holdColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		h.ID, h.OrgID, h.HoldNumber, h.Reason, string(h.Type), string(h.Priority), string(h.Status),
		h.HeldAt, h.ReleasedAt, h.ReleaseNotes, jsonList(h.Items))
	return mapError(err, "quality hold")
}

func (r *QualityHoldRepository) Update(ctx context.Context, h *entities.QualityHold) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE quality_holds SET status = $3, released_at = $4, release_notes = $5, items = $6
		WHERE org_id = $1 AND id = $2
	`, h.OrgID, h.ID, string(h.Status), h.ReleasedAt, h.ReleaseNotes, jsonList(h.Items))
	if err != nil {
		return mapError(err, "quality hold")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("quality hold %s not found", h.ID)
	}
	return nil
}

func (r *QualityHoldRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.QualityHold, error) {
	h, err := scanHold(r.q(ctx).QueryRow(ctx,
		`SELECT `+holdColumns+` FROM quality_holds WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "quality hold")
	}
	return h, nil
}

// List returns newest holds first
func (r *QualityHoldRepository) List(ctx context.Context, orgID uuid.UUID, status entities.HoldStatus) ([]*entities.QualityHold, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+holdColumns+` FROM quality_holds
		WHERE org_id = $1 AND ($2::text = '' OR status = $2)
		ORDER BY held_at DESC, id
	`, orgID, string(status))
	if err != nil {
		return nil, mapError(err, "quality hold")
	}
	holds, err := collect(rows, scanHold)
	return holds, mapError(err, "quality hold")
}
