package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// LicensePlateRepository stores license plates
type LicensePlateRepository struct{ db }

var _ repositories.LicensePlateRepository = (*LicensePlateRepository)(nil)

const lpColumns = `id, org_id, lp_number, product_id, quantity, uom, location_id, warehouse_id,
	status, qa_status, batch_number, expiry_date, manufacturing_date, source,
	parent_lp_id, work_order_id, created_at, updated_at`

func scanLP(row pgx.Row) (*entities.LicensePlate, error) {
	var lp entities.LicensePlate
	err := row.Scan(&lp.ID, &lp.OrgID, &lp.LPNumber, &lp.ProductID, &lp.Quantity, &lp.UOM,
		&lp.LocationID, &lp.WarehouseID, &lp.Status, &lp.QAStatus, &lp.BatchNumber,
		&lp.ExpiryDate, &lp.ManufacturingDate, &lp.Source, &lp.ParentLPID, &lp.WorkOrderID,
		&lp.CreatedAt, &lp.UpdatedAt)
	return &lp, err
}

func (r *LicensePlateRepository) Create(ctx context.Context, lp *entities.LicensePlate) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO license_plates (`+lpColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		lp.ID, lp.OrgID, lp.LPNumber, lp.ProductID, lp.Quantity, lp.UOM, lp.LocationID, lp.WarehouseID,
		string(lp.Status), string(lp.QAStatus), lp.BatchNumber, lp.ExpiryDate, lp.ManufacturingDate,
		string(lp.Source), lp.ParentLPID, lp.WorkOrderID, lp.CreatedAt, lp.UpdatedAt)
	return mapError(err, "license plate")
}

func (r *LicensePlateRepository) Update(ctx context.Context, lp *entities.LicensePlate) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE license_plates SET
			lp_number = $3, quantity = $4, location_id = $5, warehouse_id = $6,
			status = $7, qa_status = $8, batch_number = $9, expiry_date = $10,
			updated_at = $11
		WHERE org_id = $1 AND id = $2
	`, lp.OrgID, lp.ID, lp.LPNumber, lp.Quantity, lp.LocationID, lp.WarehouseID,
		string(lp.Status), string(lp.QAStatus), lp.BatchNumber, lp.ExpiryDate, lp.UpdatedAt)
	if err != nil {
		return mapError(err, "license plate")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("license plate %s not found", lp.ID)
	}
	return nil
}

func (r *LicensePlateRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.LicensePlate, error) {
	lp, err := scanLP(r.q(ctx).QueryRow(ctx,
		`SELECT `+lpColumns+` FROM license_plates WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "license plate")
	}
	return lp, nil
}

func (r *LicensePlateRepository) GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*entities.LicensePlate, error) {
	lp, err := scanLP(r.q(ctx).QueryRow(ctx,
		`SELECT `+lpColumns+` FROM license_plates WHERE org_id = $1 AND lp_number = $2`, orgID, number))
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("license plate %q", number))
	}
	return lp, nil
}

func (r *LicensePlateRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.LicensePlate, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+lpColumns+` FROM license_plates WHERE org_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, mapError(err, "license plate")
	}
	plates, err := collect(rows, scanLP)
	if err != nil {
		return nil, mapError(err, "license plate")
	}
	out := make(map[uuid.UUID]*entities.LicensePlate, len(plates))
	for _, lp := range plates {
		out[lp.ID] = lp
	}
	return out, nil
}

var lpSortColumns = map[string]string{
	"lp_number":   "lp_number",
	"quantity":    "quantity",
	"expiry_date": "expiry_date",
	"created_at":  "created_at",
	"":            "created_at",
}

// List filters, sorts and pages the org's plates with a window count for the
// total. Default order is receipt time ascending (FIFO); expiry sorts put
// plates without one last.
func (r *LicensePlateRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.LPFilter) ([]*entities.LicensePlate, int, error) {
	w := newWhere(orgID)
	w.raw("org_id = $1")
	if f.ProductID != nil {
		w.add("product_id = $%d", *f.ProductID)
	}
	if f.WarehouseID != nil {
		w.add("warehouse_id = $%d", *f.WarehouseID)
	}
	if f.LocationID != nil {
		w.add("location_id = $%d", *f.LocationID)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY($%d)", stringsOf(f.Statuses))
	}
	if len(f.QAStatuses) > 0 {
		w.add("qa_status = ANY($%d)", stringsOf(f.QAStatuses))
	}
	if f.NumberPrefix != "" {
		w.add("upper(lp_number) LIKE upper($%d) || '%%'", f.NumberPrefix)
	}
	if f.ExpiringBefore != nil {
		w.add("expiry_date <= $%d", *f.ExpiringBefore)
	}
	if f.ActiveOnly {
		w.raw("status NOT IN ('consumed', 'shipped') AND quantity > 0")
	}

	column, ok := lpSortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}
	order := fmt.Sprintf("%s %s NULLS LAST, id", column, direction)

	query := `SELECT ` + lpColumns + `, count(*) OVER () FROM license_plates ` + w.String() + ` ORDER BY ` + order
	if f.Limit > 0 {
		query += " LIMIT " + w.next(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + w.next(f.Offset)
	}

	rows, err := r.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "license plate")
	}
	total := 0
	plates, err := collect(rows, func(row pgx.Row) (*entities.LicensePlate, error) {
		var lp entities.LicensePlate
		err := row.Scan(&lp.ID, &lp.OrgID, &lp.LPNumber, &lp.ProductID, &lp.Quantity, &lp.UOM,
			&lp.LocationID, &lp.WarehouseID, &lp.Status, &lp.QAStatus, &lp.BatchNumber,
			&lp.ExpiryDate, &lp.ManufacturingDate, &lp.Source, &lp.ParentLPID, &lp.WorkOrderID,
			&lp.CreatedAt, &lp.UpdatedAt, &total)
		return &lp, err
	})
	if err != nil {
		return nil, 0, mapError(err, "license plate")
	}
	if len(plates) == 0 && f.Offset > 0 {
		// the window count is lost past the last page
		if err := r.q(ctx).QueryRow(ctx, `SELECT count(*) FROM license_plates `+w.String(),
			w.args[:len(w.args)-countPaging(f)]...).Scan(&total); err != nil {
			return nil, 0, mapError(err, "license plate")
		}
	}
	return plates, total, nil
}

func countPaging(f repositories.LPFilter) int {
	n := 0
	if f.Limit > 0 {
		n++
	}
	if f.Offset > 0 {
		n++
	}
	return n
}

// GenealogyRepository stores genealogy links and walks them with recursive
// queries
type GenealogyRepository struct{ db }

var _ repositories.GenealogyRepository = (*GenealogyRepository)(nil)

const linkColumns = `id, org_id, parent_lp_id, child_lp_id, operation_type, quantity,
	operation_date, work_order_id, is_reversed, reversed_at, created_at`

func scanLink(row pgx.Row) (*entities.GenealogyLink, error) {
	var l entities.GenealogyLink
	err := row.Scan(&l.ID, &l.OrgID, &l.ParentLPID, &l.ChildLPID, &l.OperationType, &l.Quantity,
		&l.OperationDate, &l.WorkOrderID, &l.IsReversed, &l.ReversedAt, &l.CreatedAt)
	return &l, err
}

func (r *GenealogyRepository) Create(ctx context.Context, l *entities.GenealogyLink) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO genealogy_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.OrgID, l.ParentLPID, l.ChildLPID, string(l.OperationType), l.Quantity,
		l.OperationDate, l.WorkOrderID, l.IsReversed, l.ReversedAt, l.CreatedAt)
	return mapError(err, "genealogy link")
}

func (r *GenealogyRepository) Update(ctx context.Context, l *entities.GenealogyLink) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE genealogy_links SET quantity = $3, is_reversed = $4, reversed_at = $5
		WHERE org_id = $1 AND id = $2
	`, l.OrgID, l.ID, l.Quantity, l.IsReversed, l.ReversedAt)
	if err != nil {
		return mapError(err, "genealogy link")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("genealogy link %s not found", l.ID)
	}
	return nil
}

func (r *GenealogyRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.GenealogyLink, error) {
	l, err := scanLink(r.q(ctx).QueryRow(ctx,
		`SELECT `+linkColumns+` FROM genealogy_links WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "genealogy link")
	}
	return l, nil
}

func (r *GenealogyRepository) FindActive(ctx context.Context, orgID, parentID, childID uuid.UUID, op entities.OperationType) (*entities.GenealogyLink, error) {
	l, err := scanLink(r.q(ctx).QueryRow(ctx, `
		SELECT `+linkColumns+` FROM genealogy_links
		WHERE org_id = $1 AND parent_lp_id = $2 AND child_lp_id = $3 AND operation_type = $4 AND NOT is_reversed
	`, orgID, parentID, childID, string(op)))
	if err != nil {
		return nil, mapError(err, "genealogy link")
	}
	return l, nil
}

func (r *GenealogyRepository) ListByWorkOrder(ctx context.Context, orgID, woID uuid.UUID) ([]*entities.GenealogyLink, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+linkColumns+` FROM genealogy_links
		WHERE org_id = $1 AND work_order_id = $2 AND NOT is_reversed
		ORDER BY created_at, id
	`, orgID, woID)
	if err != nil {
		return nil, mapError(err, "genealogy link")
	}
	links, err := collect(rows, scanLink)
	return links, mapError(err, "genealogy link")
}

// traceLevelQuery expands one breadth first level. Plates already seen are
// excluded and DISTINCT ON keeps one edge per newly reached plate, so each
// plate is reached once at its minimum depth. %[1]s is the column walked
// from, %[2]s the column walked to.
const traceLevelQuery = `
	SELECT DISTINCT ON (l.%[2]s) l.%[2]s, l.%[1]s, l.operation_type, l.quantity, l.id
	FROM genealogy_links l
	WHERE l.org_id = $1 AND l.%[1]s = ANY($2) AND NOT l.%[2]s = ANY($3) AND ($4 OR NOT l.is_reversed)
	ORDER BY l.%[2]s, l.created_at, l.id
`

// Trace returns every plate reachable from rootID within maxDepth, ordered by
// depth
func (r *GenealogyRepository) Trace(ctx context.Context, orgID, rootID uuid.UUID, dir entities.TraceDirection, maxDepth int, includeReversed bool) ([]entities.TraceEdge, error) {
	from, to := "parent_lp_id", "child_lp_id"
	if dir == entities.TraceBackward {
		from, to = to, from
	}
	query := fmt.Sprintf(traceLevelQuery, from, to)

	visited := []uuid.UUID{rootID}
	frontier := []uuid.UUID{rootID}
	var edges []entities.TraceEdge
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		rows, err := r.q(ctx).Query(ctx, query, orgID, frontier, visited, includeReversed)
		if err != nil {
			return nil, mapError(err, "genealogy trace")
		}
		level, err := collect(rows, func(row pgx.Row) (entities.TraceEdge, error) {
			e := entities.TraceEdge{Depth: depth}
			err := row.Scan(&e.LPID, &e.FromLPID, &e.OperationType, &e.Quantity, &e.LinkID)
			return e, err
		})
		if err != nil {
			return nil, mapError(err, "genealogy trace")
		}
		frontier = frontier[:0]
		for _, e := range level {
			frontier = append(frontier, e.LPID)
			visited = append(visited, e.LPID)
		}
		edges = append(edges, level...)
	}
	return edges, nil
}

// ActivityRepository stores the activity feed. ULID ids sort by time.
type ActivityRepository struct{ db }

var _ repositories.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Append(ctx context.Context, e *entities.ActivityEvent) error {
	if e.OrgID == uuid.Nil {
		return entities.ErrTenantRequired
	}
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO activity_events (id, org_id, type, entity_id, summary, data, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.OrgID, string(e.Type), e.EntityID, e.Summary, e.Data, e.At)
	return mapError(err, "activity event")
}

func (r *ActivityRepository) Recent(ctx context.Context, orgID uuid.UUID, limit int, types []entities.ActivityType) ([]*entities.ActivityEvent, error) {
	w := newWhere(orgID)
	w.raw("org_id = $1")
	if len(types) > 0 {
		w.add("type = ANY($%d)", stringsOf(types))
	}
	query := `SELECT id, org_id, type, entity_id, summary, data, at FROM activity_events ` +
		w.String() + ` ORDER BY id DESC LIMIT ` + w.next(limit)

	rows, err := r.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, mapError(err, "activity event")
	}
	events, err := collect(rows, func(row pgx.Row) (*entities.ActivityEvent, error) {
		var e entities.ActivityEvent
		err := row.Scan(&e.ID, &e.OrgID, &e.Type, &e.EntityID, &e.Summary, &e.Data, &e.At)
		return &e, err
	})
	return events, mapError(err, "activity event")
}
