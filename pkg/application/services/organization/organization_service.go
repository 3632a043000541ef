package organization

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// OnboardRequest is the first wizard submission
type OnboardRequest struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	WarehouseCode string `json:"warehouse_code"`
	WarehouseName string `json:"warehouse_name"`
	LocationCode  string `json:"location_code"`
}

// OnboardResult is everything the wizard created
type OnboardResult struct {
	Organization *entities.Organization      `json:"organization"`
	Settings     *entities.WarehouseSettings `json:"settings"`
	Warehouse    *entities.Warehouse         `json:"warehouse"`
	Location     *entities.Location          `json:"location"`
}

// SettingsUpdate carries optional changes to warehouse settings
type SettingsUpdate struct {
	LPNumberPrefix         *string                      `json:"lp_number_prefix"`
	EnableSplitMerge       *bool                        `json:"enable_split_merge"`
	DefaultPickingStrategy *entities.AllocationStrategy `json:"default_picking_strategy"`
	AllocationThresholdPct *int                         `json:"allocation_threshold_pct"`
	FEFOWarningDays        *int                         `json:"fefo_warning_days"`
	ExpiringSoonDays       *int                         `json:"expiring_soon_days"`
}

// Service backs the onboarding wizard and settings pages
type Service struct {
	orgs       repositories.OrganizationRepository
	locations  repositories.LocationRepository
	transactor repositories.Transactor
	Now        func() time.Time
}

// NewService creates an organization service
func NewService(orgs repositories.OrganizationRepository, locations repositories.LocationRepository, transactor repositories.Transactor) *Service {
	return &Service{orgs: orgs, locations: locations, transactor: transactor, Now: time.Now}
}

// Onboard creates an organization with default settings, its first
// warehouse and a receiving location
func (s *Service) Onboard(ctx context.Context, req OnboardRequest) (*OnboardResult, error) {
	now := s.Now().UTC()
	slug := req.Slug
	if slug == "" {
		slug = slugify(req.Name)
	}
	org, err := entities.NewOrganization(req.Name, slug, now)
	if err != nil {
		return nil, err
	}
	whCode := req.WarehouseCode
	if whCode == "" {
		whCode = "MAIN"
	}
	wh, err := entities.NewWarehouse(org.ID, whCode, req.WarehouseName, now)
	if err != nil {
		return nil, err
	}
	locCode := req.LocationCode
	if locCode == "" {
		locCode = whCode + "-RECV"
	}
	loc, err := entities.NewLocation(org.ID, wh.ID, locCode, "Receiving", entities.Staging, now)
	if err != nil {
		return nil, err
	}
	settings := entities.DefaultWarehouseSettings(org.ID, now)
	settings.OnboardingStep = 2 // organization and warehouse steps are done

	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orgs.Create(ctx, org, settings); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		if err := s.locations.CreateWarehouse(ctx, wh); err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}
		if err := s.locations.CreateLocation(ctx, loc); err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("org_id", org.ID.String()).Str("slug", org.Slug).Msg("organization onboarded")
	return &OnboardResult{Organization: org, Settings: settings, Warehouse: wh, Location: loc}, nil
}

// Get returns the organization
func (s *Service) Get(ctx context.Context, orgID uuid.UUID) (*entities.Organization, error) {
	return s.orgs.Get(ctx, orgID)
}

// GetSettings returns the org's warehouse settings
func (s *Service) GetSettings(ctx context.Context, orgID uuid.UUID) (*entities.WarehouseSettings, error) {
	return s.orgs.GetSettings(ctx, orgID)
}

// UpdateSettings applies and validates a partial update
func (s *Service) UpdateSettings(ctx context.Context, orgID uuid.UUID, upd SettingsUpdate) (*entities.WarehouseSettings, error) {
	settings, err := s.orgs.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if upd.LPNumberPrefix != nil {
		settings.LPNumberPrefix = *upd.LPNumberPrefix
	}
	if upd.EnableSplitMerge != nil {
		settings.EnableSplitMerge = *upd.EnableSplitMerge
	}
	if upd.DefaultPickingStrategy != nil {
		settings.DefaultPickingStrategy = *upd.DefaultPickingStrategy
	}
	if upd.AllocationThresholdPct != nil {
		settings.AllocationThresholdPct = *upd.AllocationThresholdPct
	}
	if upd.FEFOWarningDays != nil {
		settings.FEFOWarningDays = *upd.FEFOWarningDays
	}
	if upd.ExpiringSoonDays != nil {
		settings.ExpiringSoonDays = *upd.ExpiringSoonDays
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	settings.UpdatedAt = s.Now().UTC()
	if err := s.orgs.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

// CompleteStep advances the onboarding wizard
func (s *Service) CompleteStep(ctx context.Context, orgID uuid.UUID, step int) (*entities.WarehouseSettings, error) {
	settings, err := s.orgs.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := settings.AdvanceOnboarding(step, s.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.orgs.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return settings, nil
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
