package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// OrganizationRepository provides in-memory tenant storage
type OrganizationRepository struct {
	mu       sync.RWMutex
	orgs     map[uuid.UUID]*entities.Organization
	settings map[uuid.UUID]*entities.WarehouseSettings
}

// NewOrganizationRepository creates a new in-memory organization repository
func NewOrganizationRepository() *OrganizationRepository {
	return &OrganizationRepository{
		orgs:     make(map[uuid.UUID]*entities.Organization),
		settings: make(map[uuid.UUID]*entities.WarehouseSettings),
	}
}

var _ repositories.OrganizationRepository = (*OrganizationRepository)(nil)

func cloneSettings(s *entities.WarehouseSettings) *entities.WarehouseSettings {
	c := *s
	if s.OnboardingCompletedAt != nil {
		t := *s.OnboardingCompletedAt
		c.OnboardingCompletedAt = &t
	}
	return &c
}

// Create stores an organization with its settings. Slugs are unique.
func (r *OrganizationRepository) Create(ctx context.Context, org *entities.Organization, settings *entities.WarehouseSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.orgs {
		if existing.Slug == org.Slug {
			return entities.ConflictError("organization slug %q already exists", org.Slug)
		}
	}
	r.orgs[org.ID] = shallow(org)
	r.settings[org.ID] = cloneSettings(settings)
	return nil
}

// Get returns an organization by id
func (r *OrganizationRepository) Get(ctx context.Context, id uuid.UUID) (*entities.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, exists := r.orgs[id]
	if !exists {
		return nil, entities.NotFoundError("organization %s not found", id)
	}
	return shallow(org), nil
}

// GetSettings returns the org's warehouse settings
func (r *OrganizationRepository) GetSettings(ctx context.Context, orgID uuid.UUID) (*entities.WarehouseSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.settings[orgID]
	if !exists {
		return nil, entities.NotFoundError("warehouse settings for %s not found", orgID)
	}
	return cloneSettings(s), nil
}

// SaveSettings replaces the org's warehouse settings
func (r *OrganizationRepository) SaveSettings(ctx context.Context, settings *entities.WarehouseSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orgs[settings.OrgID]; !exists {
		return entities.NotFoundError("organization %s not found", settings.OrgID)
	}
	r.settings[settings.OrgID] = cloneSettings(settings)
	return nil
}
