package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// ProductRepository provides access to product master data
type ProductRepository interface {
	Create(ctx context.Context, p *entities.Product) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Product, error)
	GetByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Product, error)
	GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Product, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*entities.Product, error)
}

// CustomerRepository provides access to customers
type CustomerRepository interface {
	Create(ctx context.Context, c *entities.Customer) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.Customer, error)
	GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.Customer, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*entities.Customer, error)
}

// LocationRepository provides access to warehouses and their locations
type LocationRepository interface {
	CreateWarehouse(ctx context.Context, w *entities.Warehouse) error
	GetWarehouse(ctx context.Context, orgID, id uuid.UUID) (*entities.Warehouse, error)
	ListWarehouses(ctx context.Context, orgID uuid.UUID) ([]*entities.Warehouse, error)
	CreateLocation(ctx context.Context, l *entities.Location) error
	GetLocation(ctx context.Context, orgID, id uuid.UUID) (*entities.Location, error)
	GetLocationByCode(ctx context.Context, orgID uuid.UUID, code string) (*entities.Location, error)
	ListLocations(ctx context.Context, orgID uuid.UUID) ([]*entities.Location, error)
}

// BOMRepository provides access to bills of materials
type BOMRepository interface {
	Create(ctx context.Context, b *entities.BOM) error
	Update(ctx context.Context, b *entities.BOM) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*entities.BOM, error)
	ListByProduct(ctx context.Context, orgID, productID uuid.UUID) ([]*entities.BOM, error)
	ListActive(ctx context.Context, orgID uuid.UUID) ([]*entities.BOM, error)
}
