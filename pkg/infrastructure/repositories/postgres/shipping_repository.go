package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// AllocationRepository stores sales order allocations
type AllocationRepository struct{ db }

var _ repositories.AllocationRepository = (*AllocationRepository)(nil)

const allocationColumns = `id, org_id, sales_order_id, sales_order_line_id, license_plate_id, quantity,
	allocated_at, released_at, shipped_at`

func scanAllocation(row pgx.Row) (*entities.InventoryAllocation, error) {
	var a entities.InventoryAllocation
	err := row.Scan(&a.ID, &a.OrgID, &a.SalesOrderID, &a.SalesOrderLineID, &a.LicensePlateID, &a.Quantity,
		&a.AllocatedAt, &a.ReleasedAt, &a.ShippedAt)
	return &a, err
}

func (r *AllocationRepository) Create(ctx context.Context, a *entities.InventoryAllocation) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO inventory_allocations (`+allocationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OrgID, a.SalesOrderID, a.SalesOrderLineID, a.LicensePlateID, a.Quantity,
		a.AllocatedAt, a.ReleasedAt, a.ShippedAt)
	return mapError(err, "allocation")
}

func (r *AllocationRepository) Update(ctx context.Context, a *entities.InventoryAllocation) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE inventory_allocations SET quantity = $3, released_at = $4, shipped_at = $5
		WHERE org_id = $1 AND id = $2
	`, a.OrgID, a.ID, a.Quantity, a.ReleasedAt, a.ShippedAt)
	if err != nil {
		return mapError(err, "allocation")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("allocation %s not found", a.ID)
	}
	return nil
}

func (r *AllocationRepository) ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.InventoryAllocation, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+allocationColumns+` FROM inventory_allocations
		WHERE org_id = $1 AND sales_order_id = $2 ORDER BY allocated_at, id
	`, orgID, soID)
	if err != nil {
		return nil, mapError(err, "allocation")
	}
	allocations, err := collect(rows, scanAllocation)
	return allocations, mapError(err, "allocation")
}

func (r *AllocationRepository) ActiveQuantities(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT license_plate_id, sum(quantity) FROM inventory_allocations
		WHERE org_id = $1 AND license_plate_id = ANY($2) AND released_at IS NULL AND shipped_at IS NULL
		GROUP BY license_plate_id
	`, orgID, lpIDs)
	if err != nil {
		return nil, mapError(err, "allocation")
	}
	defer rows.Close()

	out := make(map[uuid.UUID]decimal.Decimal)
	for rows.Next() {
		var id uuid.UUID
		var qty decimal.Decimal
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, mapError(err, "allocation")
		}
		out[id] = qty
	}
	return out, mapError(rows.Err(), "allocation")
}

// SalesOrderRepository stores sales orders with their lines as JSONB
type SalesOrderRepository struct{ db }

var _ repositories.SalesOrderRepository = (*SalesOrderRepository)(nil)

const salesOrderColumns = `id, org_id, order_number, customer_id, status, order_date, promised_ship_date,
	customer_po, notes, lines, created_at, updated_at`

func scanSalesOrder(row pgx.Row) (*entities.SalesOrder, error) {
	var so entities.SalesOrder
	err := row.Scan(&so.ID, &so.OrgID, &so.OrderNumber, &so.CustomerID, &so.Status, &so.OrderDate,
		&so.PromisedShipDate, &so.CustomerPO, &so.Notes, &so.Lines, &so.CreatedAt, &so.UpdatedAt)
	return &so, err
}

func (r *SalesOrderRepository) Create(ctx context.Context, so *entities.SalesOrder) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO sales_orders (`+salesOrderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		so.ID, so.OrgID, so.OrderNumber, so.CustomerID, string(so.Status), so.OrderDate, so.PromisedShipDate,
		so.CustomerPO, so.Notes, jsonList(so.Lines), so.CreatedAt, so.UpdatedAt)
	return mapError(err, "sales order")
}

func (r *SalesOrderRepository) Update(ctx context.Context, so *entities.SalesOrder) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE sales_orders SET
			status = $3, promised_ship_date = $4, customer_po = $5, notes = $6, lines = $7, updated_at = $8
		WHERE org_id = $1 AND id = $2
	`, so.OrgID, so.ID, string(so.Status), so.PromisedShipDate, so.CustomerPO, so.Notes, jsonList(so.Lines), so.UpdatedAt)
	if err != nil {
		return mapError(err, "sales order")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("sales order %s not found", so.ID)
	}
	return nil
}

func (r *SalesOrderRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.SalesOrder, error) {
	so, err := scanSalesOrder(r.q(ctx).QueryRow(ctx,
		`SELECT `+salesOrderColumns+` FROM sales_orders WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "sales order")
	}
	return so, nil
}

// List returns newest orders first with the total match count
func (r *SalesOrderRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.SOFilter) ([]*entities.SalesOrder, int, error) {
	w := newWhere(orgID)
	w.raw("org_id = $1")
	if f.CustomerID != nil {
		w.add("customer_id = $%d", *f.CustomerID)
	}
	if len(f.Statuses) > 0 {
		w.add("status = ANY($%d)", stringsOf(f.Statuses))
	}

	var total int
	if err := r.q(ctx).QueryRow(ctx, `SELECT count(*) FROM sales_orders `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "sales order")
	}

	query := `SELECT ` + salesOrderColumns + ` FROM sales_orders ` + w.String() + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT " + w.next(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + w.next(f.Offset)
	}
	rows, err := r.q(ctx).Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, mapError(err, "sales order")
	}
	orders, err := collect(rows, scanSalesOrder)
	if err != nil {
		return nil, 0, mapError(err, "sales order")
	}
	return orders, total, nil
}

// ShipmentRepository stores shipments with their lines as JSONB
type ShipmentRepository struct{ db }

var _ repositories.ShipmentRepository = (*ShipmentRepository)(nil)

const shipmentColumns = `id, org_id, shipment_number, sales_order_id, customer_id, shipped_at, lines`

func scanShipment(row pgx.Row) (*entities.Shipment, error) {
	var s entities.Shipment
	err := row.Scan(&s.ID, &s.OrgID, &s.ShipmentNumber, &s.SalesOrderID, &s.CustomerID, &s.ShippedAt, &s.Lines)
	return &s, err
}

func (r *ShipmentRepository) Create(ctx context.Context, s *entities.Shipment) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO shipments (`+shipmentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.OrgID, s.ShipmentNumber, s.SalesOrderID, s.CustomerID, s.ShippedAt, jsonList(s.Lines))
	return mapError(err, "shipment")
}

func (r *ShipmentRepository) ListBySalesOrder(ctx context.Context, orgID, soID uuid.UUID) ([]*entities.Shipment, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+shipmentColumns+` FROM shipments WHERE org_id = $1 AND sales_order_id = $2 ORDER BY shipped_at, id
	`, orgID, soID)
	if err != nil {
		return nil, mapError(err, "shipment")
	}
	shipments, err := collect(rows, scanShipment)
	return shipments, mapError(err, "shipment")
}

// ListByLicensePlates matches shipment lines through jsonb containment, one
// pattern per plate
func (r *ShipmentRepository) ListByLicensePlates(ctx context.Context, orgID uuid.UUID, lpIDs []uuid.UUID) ([]*entities.Shipment, error) {
	patterns := make([]string, 0, len(lpIDs))
	for _, id := range lpIDs {
		pattern, err := json.Marshal([]map[string]string{{"license_plate_id": id.String()}})
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, string(pattern))
	}

	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+shipmentColumns+` FROM shipments
		WHERE org_id = $1 AND lines @> ANY($2::jsonb[])
		ORDER BY shipped_at, id
	`, orgID, patterns)
	if err != nil {
		return nil, mapError(err, "shipment")
	}
	shipments, err := collect(rows, scanShipment)
	return shipments, mapError(err, "shipment")
}

// RMARepository stores return authorisations with their lines as JSONB
type RMARepository struct{ db }

var _ repositories.RMARepository = (*RMARepository)(nil)

const rmaColumns = `id, org_id, rma_number, sales_order_id, customer_id, reason, disposition, status,
	lines, approved_at, created_at, updated_at`

func (r *RMARepository) Create(ctx context.Context, rma *entities.RMA) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO rmas (`+rmaColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rma.ID, rma.OrgID, rma.RMANumber, rma.SalesOrderID, rma.CustomerID, string(rma.Reason),
		string(rma.Disposition), string(rma.Status), jsonList(rma.Lines), rma.ApprovedAt, rma.CreatedAt, rma.UpdatedAt)
	return mapError(err, "rma")
}

func (r *RMARepository) Update(ctx context.Context, rma *entities.RMA) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE rmas SET disposition = $3, status = $4, lines = $5, approved_at = $6, updated_at = $7
		WHERE org_id = $1 AND id = $2
	`, rma.OrgID, rma.ID, string(rma.Disposition), string(rma.Status), jsonList(rma.Lines), rma.ApprovedAt, rma.UpdatedAt)
	if err != nil {
		return mapError(err, "rma")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("rma %s not found", rma.ID)
	}
	return nil
}

func (r *RMARepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error) {
	var rma entities.RMA
	err := r.q(ctx).QueryRow(ctx, `SELECT `+rmaColumns+` FROM rmas WHERE org_id = $1 AND id = $2`, orgID, id).Scan(
		&rma.ID, &rma.OrgID, &rma.RMANumber, &rma.SalesOrderID, &rma.CustomerID, &rma.Reason,
		&rma.Disposition, &rma.Status, &rma.Lines, &rma.ApprovedAt, &rma.CreatedAt, &rma.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "rma")
	}
	return &rma, nil
}
