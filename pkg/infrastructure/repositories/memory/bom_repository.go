package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// BOMRepository provides in-memory BOM storage
type BOMRepository struct {
	rows *table[*entities.BOM]
}

// NewBOMRepository creates a new in-memory BOM repository
func NewBOMRepository() *BOMRepository {
	return &BOMRepository{rows: newTable("bom",
		func(b *entities.BOM) (uuid.UUID, uuid.UUID) { return b.OrgID, b.ID },
		(*entities.BOM).Clone)}
}

var _ repositories.BOMRepository = (*BOMRepository)(nil)

func sameVersion(b *entities.BOM) func(*entities.BOM) bool {
	return func(existing *entities.BOM) bool {
		return existing.ProductID == b.ProductID && existing.Version == b.Version
	}
}

// Create stores a BOM; (product, version) is unique
func (r *BOMRepository) Create(ctx context.Context, b *entities.BOM) error {
	return r.rows.insert(b, sameVersion(b))
}

func (r *BOMRepository) Update(ctx context.Context, b *entities.BOM) error {
	return r.rows.update(b, sameVersion(b))
}

func (r *BOMRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.BOM, error) {
	return r.rows.get(orgID, id)
}

// ListByProduct returns every version of a product's BOM, newest first
func (r *BOMRepository) ListByProduct(ctx context.Context, orgID, productID uuid.UUID) ([]*entities.BOM, error) {
	out := r.rows.filter(orgID, func(b *entities.BOM) bool { return b.ProductID == productID })
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

// ListActive returns the org's active BOMs
func (r *BOMRepository) ListActive(ctx context.Context, orgID uuid.UUID) ([]*entities.BOM, error) {
	return r.rows.filter(orgID, func(b *entities.BOM) bool { return b.Status == entities.BOMActive }), nil
}
