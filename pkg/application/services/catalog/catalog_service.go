package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// ProductRequest creates a product
type ProductRequest struct {
	Code          string               `json:"code"`
	Name          string               `json:"name"`
	Type          entities.ProductType `json:"type"`
	UOM           string               `json:"uom"`
	UnitCost      decimal.Decimal      `json:"unit_cost"`
	UnitPrice     decimal.Decimal      `json:"unit_price"`
	ShelfLifeDays int                  `json:"shelf_life_days"`
}

// WarehouseRequest creates a warehouse
type WarehouseRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LocationRequest creates a location
type LocationRequest struct {
	WarehouseID uuid.UUID             `json:"warehouse_id"`
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	Type        entities.LocationType `json:"type"`
}

// CustomerRequest creates a customer
type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Service manages master data: products, locations, customers and BOMs
type Service struct {
	products   repositories.ProductRepository
	locations  repositories.LocationRepository
	customers  repositories.CustomerRepository
	boms       repositories.BOMRepository
	transactor repositories.Transactor
	validator  *services.BOMValidator
	Now        func() time.Time
}

// NewService creates a catalog service
func NewService(
	products repositories.ProductRepository,
	locations repositories.LocationRepository,
	customers repositories.CustomerRepository,
	boms repositories.BOMRepository,
	transactor repositories.Transactor,
) *Service {
	return &Service{
		products:   products,
		locations:  locations,
		customers:  customers,
		boms:       boms,
		transactor: transactor,
		validator:  services.NewBOMValidator(),
		Now:        time.Now,
	}
}

// CreateProduct stores a new product. Duplicate codes conflict.
func (s *Service) CreateProduct(ctx context.Context, orgID uuid.UUID, req ProductRequest) (*entities.Product, error) {
	p, err := entities.NewProduct(orgID, req.Code, req.Name, req.Type, req.UOM, req.UnitCost, req.UnitPrice, req.ShelfLifeDays, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", req.Code, err)
	}
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, orgID, id uuid.UUID) (*entities.Product, error) {
	return s.products.Get(ctx, orgID, id)
}

func (s *Service) ListProducts(ctx context.Context, orgID uuid.UUID) ([]*entities.Product, error) {
	return s.products.List(ctx, orgID)
}

// CreateWarehouse stores a new warehouse
func (s *Service) CreateWarehouse(ctx context.Context, orgID uuid.UUID, req WarehouseRequest) (*entities.Warehouse, error) {
	w, err := entities.NewWarehouse(orgID, req.Code, req.Name, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.locations.CreateWarehouse(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create warehouse %s: %w", req.Code, err)
	}
	return w, nil
}

// CreateLocation stores a new location in one of the org's warehouses
func (s *Service) CreateLocation(ctx context.Context, orgID uuid.UUID, req LocationRequest) (*entities.Location, error) {
	if req.Type == "" {
		req.Type = entities.Shelf
	}
	l, err := entities.NewLocation(orgID, req.WarehouseID, req.Code, req.Name, req.Type, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.locations.CreateLocation(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create location %s: %w", req.Code, err)
	}
	return l, nil
}

func (s *Service) ListWarehouses(ctx context.Context, orgID uuid.UUID) ([]*entities.Warehouse, error) {
	return s.locations.ListWarehouses(ctx, orgID)
}

func (s *Service) ListLocations(ctx context.Context, orgID uuid.UUID) ([]*entities.Location, error) {
	return s.locations.ListLocations(ctx, orgID)
}

// CreateCustomer stores a new customer
func (s *Service) CreateCustomer(ctx context.Context, orgID uuid.UUID, req CustomerRequest) (*entities.Customer, error) {
	c, err := entities.NewCustomer(orgID, req.Name, req.Email, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *Service) ListCustomers(ctx context.Context, orgID uuid.UUID) ([]*entities.Customer, error) {
	return s.customers.List(ctx, orgID)
}

// logBOM records a BOM lifecycle step at debug level
func logBOM(ctx context.Context, b *entities.BOM, msg string) {
	zerolog.Ctx(ctx).Debug().
		Str("bom_id", b.ID.String()).
		Str("product_id", b.ProductID.String()).
		Int("version", b.Version).
		Msg(msg)
}
