package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// ProductRepository stores product master data
type ProductRepository struct{ db }

var _ repositories.ProductRepository = (*ProductRepository)(nil)

const productColumns = `id, org_id, code, name, type, uom, unit_cost, unit_price, shelf_life_days, created_at`

func scanProduct(row pgx.Row) (*entities.Product, error) {
	var p entities.Product
	err := row.Scan(&p.ID, &p.OrgID, &p.Code, &p.Name, &p.Type, &p.UOM,
		&p.UnitCost, &p.UnitPrice, &p.ShelfLifeDays, &p.CreatedAt)
	return &p, err
}

func (r *ProductRepository) Create(ctx context.Context, p *entities.Product) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrgID, p.Code, p.Name, string(p.Type), p.UOM, p.UnitCost, p.UnitPrice, p.ShelfLifeDays, p.CreatedAt)
	return mapError(err, "product")
}

func (r *ProductRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Product, error) {
	p, err := scanProduct(r.q(ctx).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "product")
	}
	return p, nil
}

func (r *ProductRepository) GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Product, error) {
	p, err := scanProduct(r.q(ctx).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE org_id = $1 AND code = $2`, orgID, code))
	if err != nil {
		return nil, mapError(err, "product "+code)
	}
	return p, nil
}

func (r *ProductRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Product, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE org_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, mapError(err, "product")
	}
	list, err := collect(rows, scanProduct)
	if err != nil {
		return nil, mapError(err, "product")
	}
	out := make(map[uuid.UUID]*entities.Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) List(ctx context.Context, orgID uuid.UUID) ([]*entities.Product, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE org_id = $1 ORDER BY code`, orgID)
	if err != nil {
		return nil, mapError(err, "product")
	}
	list, err := collect(rows, scanProduct)
	return list, mapError(err, "product")
}

// CustomerRepository stores customers
type CustomerRepository struct{ db }

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

const customerColumns = `id, org_id, name, email, created_at`

func scanCustomer(row pgx.Row) (*entities.Customer, error) {
	var c entities.Customer
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.CreatedAt)
	return &c, err
}

func (r *CustomerRepository) Create(ctx context.Context, c *entities.Customer) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO customers (`+customerColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.OrgID, c.Name, c.Email, c.CreatedAt)
	return mapError(err, "customer")
}

func (r *CustomerRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Customer, error) {
	c, err := scanCustomer(r.q(ctx).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "customer")
	}
	return c, nil
}

func (r *CustomerRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Customer, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 AND id = ANY($2)`, orgID, ids)
	if err != nil {
		return nil, mapError(err, "customer")
	}
	list, err := collect(rows, scanCustomer)
	if err != nil {
		return nil, mapError(err, "customer")
	}
	out := make(map[uuid.UUID]*entities.Customer, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out, nil
}

func (r *CustomerRepository) List(ctx context.Context, orgID uuid.UUID) ([]*entities.Customer, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, mapError(err, "customer")
	}
	list, err := collect(rows, scanCustomer)
	return list, mapError(err, "customer")
}

// LocationRepository stores warehouses and locations
type LocationRepository struct{ db }

var _ repositories.LocationRepository = (*LocationRepository)(nil)

const (
	warehouseColumns = `id, org_id, code, name, created_at`
	locationColumns  = `id, org_id, warehouse_id, code, name, type, created_at`
)

func scanWarehouse(row pgx.Row) (*entities.Warehouse, error) {
	var w entities.Warehouse
	err := row.Scan(&w.ID, &w.OrgID, &w.Code, &w.Name, &w.CreatedAt)
	return &w, err
}

func scanLocation(row pgx.Row) (*entities.Location, error) {
	var l entities.Location
	err := row.Scan(&l.ID, &l.OrgID, &l.WarehouseID, &l.Code, &l.Name, &l.Type, &l.CreatedAt)
	return &l, err
}

func (r *LocationRepository) CreateWarehouse(ctx context.Context, w *entities.Warehouse) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO warehouses (`+warehouseColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.OrgID, w.Code, w.Name, w.CreatedAt)
	return mapError(err, "warehouse")
}

func (r *LocationRepository) GetWarehouse(ctx context.Context, orgID, id uuid.UUID) (*entities.Warehouse, error) {
	w, err := scanWarehouse(r.q(ctx).QueryRow(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "warehouse")
	}
	return w, nil
}

func (r *LocationRepository) ListWarehouses(ctx context.Context, orgID uuid.UUID) ([]*entities.Warehouse, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+warehouseColumns+` FROM warehouses WHERE org_id = $1 ORDER BY code`, orgID)
	if err != nil {
		return nil, mapError(err, "warehouse")
	}
	list, err := collect(rows, scanWarehouse)
	return list, mapError(err, "warehouse")
}

// CreateLocation inserts a location only when its warehouse belongs to the
// same organization
func (r *LocationRepository) CreateLocation(ctx context.Context, l *entities.Location) error {
	tag, err := r.q(ctx).Exec(ctx, `
		INSERT INTO locations (`+locationColumns+`)
		SELECT $1, $2, w.id, $4, $5, $6, $7 FROM warehouses w WHERE w.org_id = $2 AND w.id = $3
	`, l.ID, l.OrgID, l.WarehouseID, l.Code, l.Name, string(l.Type), l.CreatedAt)
	if err != nil {
		return mapError(err, "location")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("warehouse %s not found", l.WarehouseID)
	}
	return nil
}

func (r *LocationRepository) GetLocation(ctx context.Context, orgID, id uuid.UUID) (*entities.Location, error) {
	l, err := scanLocation(r.q(ctx).QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "location")
	}
	return l, nil
}

func (r *LocationRepository) GetLocationByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Location, error) {
	l, err := scanLocation(r.q(ctx).QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE org_id = $1 AND code = $2`, orgID, code))
	if err != nil {
		return nil, mapError(err, "location "+code)
	}
	return l, nil
}

func (r *LocationRepository) ListLocations(ctx context.Context, orgID uuid.UUID) ([]*entities.Location, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE org_id = $1 ORDER BY code`, orgID)
	if err != nil {
		return nil, mapError(err, "location")
	}
	list, err := collect(rows, scanLocation)
	return list, mapError(err, "location")
}

// BOMRepository stores BOM headers with their items as JSONB
type BOMRepository struct{ db }

var _ repositories.BOMRepository = (*BOMRepository)(nil)

const bomColumns = `id, org_id, product_id, version, status, output_qty, items, created_at, updated_at`

func scanBOM(row pgx.Row) (*entities.BOM, error) {
	var b entities.BOM
	err := row.Scan(&b.ID, &b.OrgID, &b.ProductID, &b.Version, &b.Status, &b.OutputQty, &b.Items, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func (r *BOMRepository) Create(ctx context.Context, b *entities.BOM) error {
	_, err := r.q(ctx).Exec(ctx, `INSERT INTO boms (`+bomColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.OrgID, b.ProductID, b.Version, string(b.Status), b.OutputQty, jsonList(b.Items), b.CreatedAt, b.UpdatedAt)
	return mapError(err, "bom")
}

func (r *BOMRepository) Update(ctx context.Context, b *entities.BOM) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE boms SET status = $3, output_qty = $4, items = $5, updated_at = $6
		WHERE org_id = $1 AND id = $2
	`, b.OrgID, b.ID, string(b.Status), b.OutputQty, jsonList(b.Items), b.UpdatedAt)
	if err != nil {
		return mapError(err, "bom")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("bom %s not found", b.ID)
	}
	return nil
}

func (r *BOMRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.BOM, error) {
	b, err := scanBOM(r.q(ctx).QueryRow(ctx,
		`SELECT `+bomColumns+` FROM boms WHERE org_id = $1 AND id = $2`, orgID, id))
	if err != nil {
		return nil, mapError(err, "bom")
	}
	return b, nil
}

// ListByProduct returns the product's versions, newest first
func (r *BOMRepository) ListByProduct(ctx context.Context, orgID, productID uuid.UUID) ([]*entities.BOM, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+bomColumns+` FROM boms WHERE org_id = $1 AND product_id = $2 ORDER BY version DESC`, orgID, productID)
	if err != nil {
		return nil, mapError(err, "bom")
	}
	list, err := collect(rows, scanBOM)
	return list, mapError(err, "bom")
}

func (r *BOMRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*entities.BOM, error) {
	rows, err := r.q(ctx).Query(ctx,
		`SELECT `+bomColumns+` FROM boms WHERE org_id = $1 AND status = 'active'`, orgID)
	if err != nil {
		return nil, mapError(err, "bom")
	}
	list, err := collect(rows, scanBOM)
	return list, mapError(err, "bom")
}
