package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or fails together
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SequenceRepository hands out strictly increasing numbers per organization
// and key
type SequenceRepository interface {
	Next(ctx context.Context, orgID uuid.UUID, key string) (int64, error)
	// Peek returns the value Next would hand out without consuming it
	Peek(ctx context.Context, orgID uuid.UUID, key string) (int64, error)
	// Bump raises the counter to at least value
	Bump(ctx context.Context, orgID uuid.UUID, key string, value int64) error
}

// OrganizationRepository provides access to tenants and their settings
type OrganizationRepository interface {
	Create(ctx context.Context, org *entities.Organization, settings *entities.WarehouseSettings) error
	Get(ctx context.Context, id uuid.UUID) (*entities.Organization, error)
	GetSettings(ctx context.Context, orgID uuid.UUID) (*entities.WarehouseSettings, error)
	SaveSettings(ctx context.Context, settings *entities.WarehouseSettings) error
}
