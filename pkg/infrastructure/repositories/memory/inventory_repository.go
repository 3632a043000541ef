package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// LicensePlateRepository provides in-memory license plate storage
type LicensePlateRepository struct {
	rows *table[*entities.LicensePlate]
}

// NewLicensePlateRepository creates a new in-memory license plate repository
func NewLicensePlateRepository() *LicensePlateRepository {
	return &LicensePlateRepository{rows: newTable("license plate",
		func(lp *entities.LicensePlate) (uuid.UUID, uuid.UUID) { return lp.OrgID, lp.ID },
		(*entities.LicensePlate).Clone)}
}

// Verify interface compliance
var _ repositories.LicensePlateRepository = (*LicensePlateRepository)(nil)

func sameNumber(lp *entities.LicensePlate) func(*entities.LicensePlate) bool {
	return func(existing *entities.LicensePlate) bool { return existing.LPNumber == lp.LPNumber }
}

// Create stores a plate; lp numbers are unique per org
func (r *LicensePlateRepository) Create(ctx context.Context, lp *entities.LicensePlate) error {
	return r.rows.insert(lp, sameNumber(lp))
}

func (r *LicensePlateRepository) Update(ctx context.Context, lp *entities.LicensePlate) error {
	return r.rows.update(lp, sameNumber(lp))
}

func (r *LicensePlateRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.LicensePlate, error) {
	return r.rows.get(orgID, id)
}

func (r *LicensePlateRepository) GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*entities.LicensePlate, error) {
	lp, ok := r.rows.find(orgID, func(lp *entities.LicensePlate) bool { return lp.LPNumber == number })
	if !ok {
		return nil, entities.NotFoundError("license plate %q not found", number)
	}
	return lp, nil
}

func (r *LicensePlateRepository) GetMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entities.LicensePlate, error) {
	return r.rows.getMany(orgID, ids), nil
}

// List filters, sorts and pages the org's plates. Default order is receipt
// time ascending (FIFO).
func (r *LicensePlateRepository) List(ctx context.Context, orgID uuid.UUID, f repositories.LPFilter) ([]*entities.LicensePlate, int, error) {
	out := r.rows.filter(orgID, func(lp *entities.LicensePlate) bool { return matchesLP(lp, f) })

	less := lpLess(f.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if f.SortDesc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})

	total := len(out)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entities.LicensePlate{}, total, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func matchesLP(lp *entities.LicensePlate, f repositories.LPFilter) bool {
	if f.ProductID != nil && lp.ProductID != *f.ProductID {
		return false
	}
	if f.WarehouseID != nil && lp.WarehouseID != *f.WarehouseID {
		return false
	}
	if f.LocationID != nil && lp.LocationID != *f.LocationID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, lp.Status) {
		return false
	}
	if len(f.QAStatuses) > 0 && !containsQA(f.QAStatuses, lp.QAStatus) {
		return false
	}
	if f.NumberPrefix != "" && !strings.HasPrefix(strings.ToUpper(lp.LPNumber), strings.ToUpper(f.NumberPrefix)) {
		return false
	}
	if f.ExpiringBefore != nil && (lp.ExpiryDate == nil || lp.ExpiryDate.After(*f.ExpiringBefore)) {
		return false
	}
	if f.ActiveOnly && !lp.IsActive() {
		return false
	}
	return true
}

func containsStatus(list []entities.LPStatus, s entities.LPStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsQA(list []entities.QAStatus, s entities.QAStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func lpLess(sortBy string) func(a, b *entities.LicensePlate) bool {
	switch sortBy {
	case "lp_number":
		return func(a, b *entities.LicensePlate) bool { return a.LPNumber < b.LPNumber }
	case "quantity":
		return func(a, b *entities.LicensePlate) bool { return a.Quantity.LessThan(b.Quantity) }
	case "expiry_date":
		// nulls last
		return func(a, b *entities.LicensePlate) bool {
			switch {
			case a.ExpiryDate == nil:
				return false
			case b.ExpiryDate == nil:
				return true
			}
			return a.ExpiryDate.Before(*b.ExpiryDate)
		}
	}
	return func(a, b *entities.LicensePlate) bool { return a.CreatedAt.Before(b.CreatedAt) }
}
