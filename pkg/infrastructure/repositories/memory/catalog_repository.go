package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// ProductRepository provides in-memory product storage
type ProductRepository struct {
	rows *table[*entities.Product]
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository() *ProductRepository {
	return &ProductRepository{rows: newTable("product",
		func(p *entities.Product) (uuid.UUID, uuid.UUID) { return p.OrgID, p.ID },
		shallow[entities.Product])}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// Create stores a product; codes are unique per org
func (r *ProductRepository) Create(ctx context.Context, p *entities.Product) error {
	return r.rows.insert(p, func(existing *entities.Product) bool { return existing.Code == p.Code })
}

// Get returns a product by id
func (r *ProductRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Product, error) {
	return r.rows.get(orgID, id)
}

// GetByCode returns a product by code
func (r *ProductRepository) GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Product, error) {
	p, ok := r.rows.find(orgID, func(p *entities.Product) bool { return p.Code == code })
	if !ok {
		return nil, entities.NotFoundError("product %q not found", code)
	}
	return p, nil
}

// GetMany returns the products found among ids
func (r *ProductRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Product, error) {
	return r.rows.getMany(orgID, ids), nil
}

// List returns the org's products ordered by code
func (r *ProductRepository) List(ctx context.Context, orgID uuid.UUID) ([]*entities.Product, error) {
	out := r.rows.filter(orgID, nil)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// CustomerRepository provides in-memory customer storage
type CustomerRepository struct {
	rows *table[*entities.Customer]
}

// NewCustomerRepository creates a new in-memory customer repository
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{rows: newTable("customer",
		func(c *entities.Customer) (uuid.UUID, uuid.UUID) { return c.OrgID, c.ID },
		shallow[entities.Customer])}
}

var _ repositories.CustomerRepository = (*CustomerRepository)(nil)

func (r *CustomerRepository) Create(ctx context.Context, c *entities.Customer) error {
	return r.rows.insert(c, nil)
}

func (r *CustomerRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Customer, error) {
	return r.rows.get(orgID, id)
}

func (r *CustomerRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Customer, error) {
	return r.rows.getMany(orgID, ids), nil
}

func (r *CustomerRepository) List(ctx context.Context, orgID uuid.UUID) ([]*entities.Customer, error) {
	out := r.rows.filter(orgID, nil)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// LocationRepository provides in-memory warehouse and location storage
type LocationRepository struct {
	warehouses *table[*entities.Warehouse]
	locations  *table[*entities.Location]
}

// NewLocationRepository creates a new in-memory location repository
func NewLocationRepository() *LocationRepository {
	return &LocationRepository{
		warehouses: newTable("warehouse",
			func(w *entities.Warehouse) (uuid.UUID, uuid.UUID) { return w.OrgID, w.ID },
			shallow[entities.Warehouse]),
		locations: newTable("location",
			func(l *entities.Location) (uuid.UUID, uuid.UUID) { return l.OrgID, l.ID },
			shallow[entities.Location]),
	}
}

var _ repositories.LocationRepository = (*LocationRepository)(nil)

func (r *LocationRepository) CreateWarehouse(ctx context.Context, w *entities.Warehouse) error {
	return r.warehouses.insert(w, func(existing *entities.Warehouse) bool { return existing.Code == w.Code })
}

func (r *LocationRepository) GetWarehouse(ctx context.Context, orgID, id uuid.UUID) (*entities.Warehouse, error) {
	return r.warehouses.get(orgID, id)
}

func (r *LocationRepository) ListWarehouses(ctx context.Context, orgID uuid.UUID) ([]*entities.Warehouse, error) {
	return r.warehouses.filter(orgID, nil), nil
}

// CreateLocation stores a location; the warehouse must belong to the org
func (r *LocationRepository) CreateLocation(ctx context.Context, l *entities.Location) error {
	if _, err := r.warehouses.get(l.OrgID, l.WarehouseID); err != nil {
		return err
	}
	return r.locations.insert(l, func(existing *entities.Location) bool { return existing.Code == l.Code })
}

func (r *LocationRepository) GetLocation(ctx context.Context, orgID, id uuid.UUID) (*entities.Location, error) {
	return r.locations.get(orgID, id)
}

func (r *LocationRepository) GetLocationByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Location, error) {
	l, ok := r.locations.find(orgID, func(l *entities.Location) bool { return l.Code == code })
	if !ok {
		return nil, entities.NotFoundError("location %q not found", code)
	}
	return l, nil
}

func (r *LocationRepository) ListLocations(ctx context.Context, orgID uuid.UUID) ([]*entities.Location, error) {
	return r.locations.filter(orgID, nil), nil
}
