package entities

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// AllocationStrategy selects the order in which license plates are picked
type AllocationStrategy string

const (
	FIFO AllocationStrategy = "FIFO"
	FEFO AllocationStrategy = "FEFO"
)

func (s AllocationStrategy) String() string { return string(s) }

// Valid reports whether s is a known strategy
func (s AllocationStrategy) Valid() bool {
	return s == FIFO || s == FEFO
}

// OnboardingFinalStep is the last step of the setup wizard
const OnboardingFinalStep = 6

var lpPrefixPattern = regexp.MustCompile(`^[A-Z0-9-]{1,10}$`)

// Organization is a tenant. Every other row belongs to exactly one.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// NewOrganization creates a validated Organization
func NewOrganization(name, slug string, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, ValidationError("organization name cannot be empty")
	}
	if slug == "" {
		return nil, ValidationError("organization slug cannot be empty")
	}
	return &Organization{
		ID:        NewID(),
		Name:      name,
		Slug:      slug,
		CreatedAt: now,
	}, nil
}

// WarehouseSettings holds per-organization inventory behaviour
type WarehouseSettings struct {
	OrgID                  uuid.UUID          `json:"org_id"`
	LPNumberPrefix         string             `json:"lp_number_prefix"`
	EnableSplitMerge       bool               `json:"enable_split_merge"`
	DefaultPickingStrategy AllocationStrategy `json:"default_picking_strategy"`
	AllocationThresholdPct int                `json:"allocation_threshold_pct"`
	FEFOWarningDays        int                `json:"fefo_warning_days"`
	ExpiringSoonDays       int                `json:"expiring_soon_days"`
	OnboardingStep         int                `json:"onboarding_step"`
	OnboardingCompletedAt  *time.Time         `json:"onboarding_completed_at,omitempty"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// DefaultWarehouseSettings returns the settings a new organization starts with
func DefaultWarehouseSettings(orgID uuid.UUID, now time.Time) *WarehouseSettings {
	return &WarehouseSettings{
		OrgID:                  orgID,
		LPNumberPrefix:         "LP",
		EnableSplitMerge:       true,
		DefaultPickingStrategy: FIFO,
		AllocationThresholdPct: 80,
		FEFOWarningDays:        7,
		ExpiringSoonDays:       30,
		UpdatedAt:              now,
	}
}

// Validate checks the settings invariants
func (s *WarehouseSettings) Validate() error {
	if !lpPrefixPattern.MatchString(s.LPNumberPrefix) {
		return ValidationError("lp number prefix must be 1-10 characters of A-Z, 0-9 or '-', got %q", s.LPNumberPrefix)
	}
	if !s.DefaultPickingStrategy.Valid() {
		return ValidationError("unknown picking strategy %q", s.DefaultPickingStrategy)
	}
	if s.AllocationThresholdPct < 0 || s.AllocationThresholdPct > 100 {
		return ValidationError("allocation threshold must be between 0 and 100, got %d", s.AllocationThresholdPct)
	}
	if s.FEFOWarningDays < 0 {
		return ValidationError("fefo warning days cannot be negative, got %d", s.FEFOWarningDays)
	}
	if s.ExpiringSoonDays < 0 {
		return ValidationError("expiring soon days cannot be negative, got %d", s.ExpiringSoonDays)
	}
	if s.OnboardingStep < 0 || s.OnboardingStep > OnboardingFinalStep {
		return ValidationError("onboarding step must be between 0 and %d, got %d", OnboardingFinalStep, s.OnboardingStep)
	}
	return nil
}

// AdvanceOnboarding moves the wizard forward. Steps never go backwards and
// reaching the final step stamps the completion time.
func (s *WarehouseSettings) AdvanceOnboarding(step int, now time.Time) error {
	if step < 1 || step > OnboardingFinalStep {
		return ValidationError("onboarding step must be between 1 and %d, got %d", OnboardingFinalStep, step)
	}
	if step < s.OnboardingStep {
		return ConflictError("onboarding step %d already completed", step)
	}
	s.OnboardingStep = step
	if step == OnboardingFinalStep && s.OnboardingCompletedAt == nil {
		completed := now
		s.OnboardingCompletedAt = &completed
	}
	s.UpdatedAt = now
	return nil
}
