package quality

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// HoldRequest blocks a set of plates
type HoldRequest struct {
	Reason   string                `json:"reason"`
	Type     entities.HoldType     `json:"hold_type,omitempty"`
	Priority entities.HoldPriority `json:"priority"`
	LPIDs    []uuid.UUID           `json:"lp_ids"`
}

// HoldView is a hold with its aging at the time of the request
type HoldView struct {
	*entities.QualityHold
	AgingHours  float64              `json:"aging_hours"`
	AgingStatus entities.AgingStatus `json:"aging_status"`
}

// Service places and releases quality holds
type Service struct {
	holds      repositories.QualityHoldRepository
	lps        repositories.LicensePlateRepository
	transactor repositories.Transactor
	numbers    *shared.Numberer
	publisher  shared.Publisher
	Now        func() time.Time
}

// NewService creates a quality service
func NewService(holds repositories.QualityHoldRepository, lps repositories.LicensePlateRepository, transactor repositories.Transactor, numbers *shared.Numberer, publisher shared.Publisher) *Service {
	return &Service{
		holds:      holds,
		lps:        lps,
		transactor: transactor,
		numbers:    numbers,
		publisher:  publisher,
		Now:        time.Now,
	}
}

func (s *Service) view(h *entities.QualityHold) *HoldView {
	now := s.Now().UTC()
	return &HoldView{
		QualityHold: h,
		AgingHours:  math.Round(h.AgingHours(now)*10) / 10,
		AgingStatus: h.AgingStatus(now),
	}
}

// CreateHold blocks every plate, remembering its status for release
func (s *Service) CreateHold(ctx context.Context, orgID uuid.UUID, req HoldRequest) (*HoldView, error) {
	if len(req.LPIDs) == 0 {
		return nil, entities.ValidationError("a hold needs at least one LP")
	}
	seen := make(map[uuid.UUID]bool, len(req.LPIDs))
	for _, id := range req.LPIDs {
		if seen[id] {
			return nil, entities.ValidationError("LP %s is listed twice", id)
		}
		seen[id] = true
	}

	var hold *entities.QualityHold
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		lps, err := s.lps.GetMany(ctx, orgID, req.LPIDs)
		if err != nil {
			return fmt.Errorf("failed to load plates: %w", err)
		}
		for _, id := range req.LPIDs {
			lp, ok := lps[id]
			if !ok {
				return entities.NotFoundError("LP not found: %s", id)
			}
			if lp.Status != entities.LPAvailable && lp.Status != entities.LPReserved {
				return entities.ConflictError("LP %s is %s and cannot be held", lp.LPNumber, lp.Status)
			}
		}

		now := s.Now().UTC()
		number, err := s.numbers.Yearly(ctx, orgID, shared.KindHold, now)
		if err != nil {
			return err
		}
		if hold, err = entities.NewQualityHold(orgID, number, req.Reason, req.Type, req.Priority, now); err != nil {
			return err
		}
		for _, id := range req.LPIDs {
			lp := lps[id]
			prev, err := lp.Block(now)
			if err != nil {
				return err
			}
			hold.Items = append(hold.Items, entities.HoldItem{LicensePlateID: id, PreviousStatus: prev})
			if err := s.lps.Update(ctx, lp); err != nil {
				return err
			}
		}
		return s.holds.Create(ctx, hold)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Str("hold_number", hold.HoldNumber).Int("lps", len(hold.Items)).Msg("quality hold created")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityHoldCreated, hold.ID,
		fmt.Sprintf("%s holds %d LPs: %s", hold.HoldNumber, len(hold.Items), hold.Reason),
		map[string]any{"priority": hold.Priority})
	return s.view(hold), nil
}

// ReleaseHold unblocks the hold's plates back to their recorded status
func (s *Service) ReleaseHold(ctx context.Context, orgID, id uuid.UUID, notes string) (*HoldView, error) {
	var hold *entities.QualityHold
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if hold, err = s.holds.Get(ctx, orgID, id); err != nil {
			return err
		}
		now := s.Now().UTC()
		if err := hold.Release(notes, now); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(hold.Items))
		for i, it := range hold.Items {
			ids[i] = it.LicensePlateID
		}
		lps, err := s.lps.GetMany(ctx, orgID, ids)
		if err != nil {
			return fmt.Errorf("failed to load plates: %w", err)
		}
		for _, it := range hold.Items {
			lp, ok := lps[it.LicensePlateID]
			if !ok || !lp.Unblock(it.PreviousStatus, now) {
				continue
			}
			if err := s.lps.Update(ctx, lp); err != nil {
				return err
			}
		}
		return s.holds.Update(ctx, hold)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityHoldReleased, hold.ID,
		fmt.Sprintf("%s released", hold.HoldNumber), nil)
	return s.view(hold), nil
}

// GetHold returns one hold
func (s *Service) GetHold(ctx context.Context, orgID, id uuid.UUID) (*HoldView, error) {
	h, err := s.holds.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.view(h), nil
}

// ListHolds returns holds newest first, all of them when status is empty
func (s *Service) ListHolds(ctx context.Context, orgID uuid.UUID, status entities.HoldStatus) ([]*HoldView, error) {
	if status != "" && status != entities.HoldActive && status != entities.HoldReleased {
		return nil, entities.ValidationError("unknown hold status %q", status)
	}
	holds, err := s.holds.List(ctx, orgID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	out := make([]*HoldView, len(holds))
	for i, h := range holds {
		out[i] = s.view(h)
	}
	return out, nil
}
