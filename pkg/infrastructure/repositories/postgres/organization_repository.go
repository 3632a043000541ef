package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// OrganizationRepository stores tenants and their warehouse settings
type OrganizationRepository struct{ db }

var _ repositories.OrganizationRepository = (*OrganizationRepository)(nil)

// Create inserts the organization and its settings in one statement
func (r *OrganizationRepository) Create(ctx context.Context, org *entities.Organization, s *entities.WarehouseSettings) error {
	_, err := r.q(ctx).Exec(ctx, `
		WITH org AS (
			INSERT INTO organizations (id, name, slug, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		)
		INSERT INTO warehouse_settings (
			org_id, lp_number_prefix, enable_split_merge, default_picking_strategy,
			allocation_threshold_pct, fefo_warning_days, expiring_soon_days,
			onboarding_step, onboarding_completed_at, updated_at
		)
		SELECT id, $5, $6, $7, $8, $9, $10, $11, $12, $13 FROM org
	`,
		org.ID, org.Name, org.Slug, org.CreatedAt,
		s.LPNumberPrefix, s.EnableSplitMerge, string(s.DefaultPickingStrategy),
		s.AllocationThresholdPct, s.FEFOWarningDays, s.ExpiringSoonDays,
		s.OnboardingStep, s.OnboardingCompletedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "organization")
	}

	log.Debug().Str("org_id", org.ID.String()).Str("slug", org.Slug).Msg("created organization")
	return nil
}

func (r *OrganizationRepository) Get(ctx context.Context, id uuid.UUID) (*entities.Organization, error) {
	var org entities.Organization
	err := r.q(ctx).QueryRow(ctx,
		`SELECT id, name, slug, created_at FROM organizations WHERE id = $1`, id,
	).Scan(&org.ID, &org.Name, &org.Slug, &org.CreatedAt)
	if err != nil {
		return nil, mapError(err, "organization")
	}
	return &org, nil
}

func (r *OrganizationRepository) GetSettings(ctx context.Context, orgID uuid.UUID) (*entities.WarehouseSettings, error) {
	var s entities.WarehouseSettings
	err := r.q(ctx).QueryRow(ctx, `
		SELECT org_id, lp_number_prefix, enable_split_merge, default_picking_strategy,
			allocation_threshold_pct, fefo_warning_days, expiring_soon_days,
			onboarding_step, onboarding_completed_at, updated_at
		FROM warehouse_settings WHERE org_id = $1
	`, orgID).Scan(
		&s.OrgID, &s.LPNumberPrefix, &s.EnableSplitMerge, &s.DefaultPickingStrategy,
		&s.AllocationThresholdPct, &s.FEFOWarningDays, &s.ExpiringSoonDays,
		&s.OnboardingStep, &s.OnboardingCompletedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "warehouse settings")
	}
	return &s, nil
}

func (r *OrganizationRepository) SaveSettings(ctx context.Context, s *entities.WarehouseSettings) error {
	tag, err := r.q(ctx).Exec(ctx, `
		UPDATE warehouse_settings SET
			lp_number_prefix = $2, enable_split_merge = $3, default_picking_strategy = $4,
			allocation_threshold_pct = $5, fefo_warning_days = $6, expiring_soon_days = $7,
			onboarding_step = $8, onboarding_completed_at = $9, updated_at = $10
		WHERE org_id = $1
	`,
		s.OrgID, s.LPNumberPrefix, s.EnableSplitMerge, string(s.DefaultPickingStrategy),
		s.AllocationThresholdPct, s.FEFOWarningDays, s.ExpiringSoonDays,
		s.OnboardingStep, s.OnboardingCompletedAt, s.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "warehouse settings")
	}
	if tag.RowsAffected() == 0 {
		return entities.NotFoundError("organization %s not found", s.OrgID)
	}
	return nil
}

// SequenceRepository keeps per-org counters in the sequences table
type SequenceRepository struct{ db }

var _ repositories.SequenceRepository = (*SequenceRepository)(nil)

func (r *SequenceRepository) Next(ctx context.Context, orgID uuid.UUID, key string) (int64, error) {
	var value int64
	err := r.q(ctx).QueryRow(ctx, `
		INSERT INTO sequences (org_id, key, value) VALUES ($1, $2, 1)
		ON CONFLICT (org_id, key) DO UPDATE SET value = sequences.value + 1
		RETURNING value
	`, orgID, key).Scan(&value)
	if err != nil {
		return 0, mapError(err, "sequence")
	}
	return value, nil
}

func (r *SequenceRepository) Peek(ctx context.Context, orgID uuid.UUID, key string) (int64, error) {
	var value int64
	err := r.q(ctx).QueryRow(ctx,
		`SELECT value FROM sequences WHERE org_id = $1 AND key = $2`, orgID, key).Scan(&value)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapError(err, "sequence")
	}
	return value + 1, nil
}

func (r *SequenceRepository) Bump(ctx context.Context, orgID uuid.UUID, key string, value int64) error {
	_, err := r.q(ctx).Exec(ctx, `
		INSERT INTO sequences (org_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (org_id, key) DO UPDATE SET value = GREATEST(sequences.value, EXCLUDED.value)
	`, orgID, key, value)
	return mapError(err, "sequence")
}
