package allocation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// Candidate is a plate that can be allocated
type Candidate struct {
	LPID                uuid.UUID       `json:"lp_id"`
	LPNumber            string          `json:"lp_number"`
	ProductID           uuid.UUID       `json:"product_id"`
	LocationID          uuid.UUID       `json:"location_id"`
	BatchNumber         string          `json:"batch_number,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	AvailableQuantity   decimal.Decimal `json:"available_quantity"`
	ReceivedAt          time.Time       `json:"received_at"`
	ExpiryDate          *time.Time      `json:"expiry_date,omitempty"`
	ExpiryDaysRemaining *int            `json:"expiry_days_remaining,omitempty"`
	FEFOWarning         bool            `json:"fefo_warning"`
	Reason              string          `json:"reason"`
}

// Pick allocates quantity from one plate
type Pick struct {
	LPID     uuid.UUID       `json:"lp_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// LinePicks are explicit picks for one order line
type LinePicks struct {
	LineID uuid.UUID `json:"line_id"`
	Picks  []Pick    `json:"picks"`
}

// AllocateRequest allocates stock to a confirmed order. Lines without
// explicit picks are filled automatically using Strategy.
type AllocateRequest struct {
	Strategy           entities.AllocationStrategy `json:"strategy,omitempty"`
	Lines              []LinePicks                 `json:"lines,omitempty"`
	CreateBackorder    bool                        `json:"create_backorder"`
	HoldIfInsufficient bool                        `json:"hold_if_insufficient"`
}

// Backorder is an unfilled line quantity
type Backorder struct {
	LineID    uuid.UUID       `json:"line_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// AllocateResult is the outcome of an allocation run
type AllocateResult struct {
	SalesOrder     *entities.SalesOrder            `json:"sales_order"`
	Allocations    []*entities.InventoryAllocation `json:"allocations"`
	Backorders     []Backorder                     `json:"backorders"`
	FulfillmentPct int                             `json:"fulfillment_pct"`
	UndoUntil      time.Time                       `json:"undo_until"`
}

// ReleaseRequest frees allocations. No ids means every active allocation of
// the order.
type ReleaseRequest struct {
	AllocationIDs []uuid.UUID `json:"allocation_ids,omitempty"`
	Force         bool        `json:"force"`
}

// ReleaseResult lists the released allocations
type ReleaseResult struct {
	SalesOrder *entities.SalesOrder            `json:"sales_order"`
	Released   []*entities.InventoryAllocation `json:"released"`
}

// Service allocates license plate stock to sales orders
type Service struct {
	allocations repositories.AllocationRepository
	orders      repositories.SalesOrderRepository
	lps         repositories.LicensePlateRepository
	orgs        repositories.OrganizationRepository
	transactor  repositories.Transactor
	publisher   shared.Publisher
	Now         func() time.Time
}

// NewService creates an allocation service
func NewService(
	allocations repositories.AllocationRepository,
	orders repositories.SalesOrderRepository,
	lps repositories.LicensePlateRepository,
	orgs repositories.OrganizationRepository,
	transactor repositories.Transactor,
	publisher shared.Publisher,
) *Service {
	return &Service{
		allocations: allocations,
		orders:      orders,
		lps:         lps,
		orgs:        orgs,
		transactor:  transactor,
		publisher:   publisher,
		Now:         time.Now,
	}
}

// AvailableLPs returns allocatable plates of a product: available, QA
// passed, not expired and with unallocated quantity. FIFO orders by receipt,
// FEFO by expiry with undated plates last.
func (s *Service) AvailableLPs(ctx context.Context, orgID, productID uuid.UUID, strategy entities.AllocationStrategy) ([]Candidate, error) {
	settings, err := s.orgs.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if strategy == "" {
		strategy = settings.DefaultPickingStrategy
	}
	if !strategy.Valid() {
		return nil, entities.ValidationError("unknown allocation strategy %q", strategy)
	}

	lps, _, err := s.lps.List(ctx, orgID, repositories.LPFilter{
		ProductID:  &productID,
		Statuses:   []entities.LPStatus{entities.LPAvailable},
		QAStatuses: []entities.QAStatus{entities.QAPassed},
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate plates: %w", err)
	}
	ids := make([]uuid.UUID, len(lps))
	for i, lp := range lps {
		ids[i] = lp.ID
	}
	allocated, err := s.allocations.ActiveQuantities(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}

	now := s.Now().UTC()
	out := make([]Candidate, 0, len(lps))
	for _, lp := range lps {
		if lp.IsExpired(now) {
			continue
		}
		free := lp.Quantity.Sub(allocated[lp.ID])
		if !free.IsPositive() {
			continue
		}
		c := Candidate{
			LPID:              lp.ID,
			LPNumber:          lp.LPNumber,
			ProductID:         lp.ProductID,
			LocationID:        lp.LocationID,
			BatchNumber:       lp.BatchNumber,
			Quantity:          lp.Quantity,
			AvailableQuantity: free,
			ReceivedAt:        lp.CreatedAt,
			ExpiryDate:        lp.ExpiryDate,
		}
		if lp.ExpiryDate != nil {
			d := entities.DaysBetween(now, *lp.ExpiryDate)
			c.ExpiryDaysRemaining = &d
			c.FEFOWarning = d <= settings.FEFOWarningDays
		}
		out = append(out, c)
	}

	sortCandidates(out, strategy)
	for i := range out {
		out[i].Reason = reason(out[i], strategy, i)
	}
	return out, nil
}

func sortCandidates(c []Candidate, strategy entities.AllocationStrategy) {
	sort.SliceStable(c, func(i, j int) bool {
		if strategy == entities.FEFO {
			a, b := c[i].ExpiryDate, c[j].ExpiryDate
			switch {
			case a != nil && b == nil:
				return true
			case a == nil && b != nil:
				return false
			case a != nil && b != nil && !a.Equal(*b):
				return a.Before(*b)
			}
		}
		return c[i].ReceivedAt.Before(c[j].ReceivedAt)
	})
}

func reason(c Candidate, strategy entities.AllocationStrategy, rank int) string {
	switch {
	case strategy == entities.FEFO && c.FEFOWarning:
		return fmt.Sprintf("expires in %d days, pick first", *c.ExpiryDaysRemaining)
	case strategy == entities.FEFO && c.ExpiryDate != nil:
		return fmt.Sprintf("FEFO rank %d, expires %s", rank+1, c.ExpiryDate.Format("2006-01-02"))
	case strategy == entities.FEFO:
		return "no expiry date"
	}
	return fmt.Sprintf("FIFO rank %d, received %s", rank+1, c.ReceivedAt.Format("2006-01-02"))
}

// AllocateSalesOrder reserves stock for a confirmed order. Orders reaching
// the org's allocation threshold move to allocated; short orders go on hold
// when asked to.
func (s *Service) AllocateSalesOrder(ctx context.Context, orgID, soID uuid.UUID, req AllocateRequest) (*AllocateResult, error) {
	result := &AllocateResult{Allocations: []*entities.InventoryAllocation{}, Backorders: []Backorder{}}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		so, err := s.orders.Get(ctx, orgID, soID)
		if err != nil {
			return err
		}
		if so.Status != entities.SOConfirmed {
			return entities.ConflictError("sales order %s is %s, only confirmed orders can be allocated", so.OrderNumber, so.Status)
		}
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return err
		}
		strategy := req.Strategy
		if strategy == "" {
			strategy = settings.DefaultPickingStrategy
		}

		explicit := make(map[uuid.UUID][]Pick, len(req.Lines))
		for _, l := range req.Lines {
			if _, ok := so.Line(l.LineID); !ok {
				return entities.NotFoundError("sales order line %s not found", l.LineID)
			}
			explicit[l.LineID] = l.Picks
		}

		existing, err := s.allocations.ListBySalesOrder(ctx, orgID, so.ID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}
		// active plates per line; a plate holds at most one active allocation per line
		held := make(map[uuid.UUID]map[uuid.UUID]bool)
		for _, a := range existing {
			if !a.IsActive() {
				continue
			}
			if held[a.SalesOrderLineID] == nil {
				held[a.SalesOrderLineID] = make(map[uuid.UUID]bool)
			}
			held[a.SalesOrderLineID][a.LicensePlateID] = true
		}

		// plate quantity taken by this run, on top of stored allocations
		taken := make(map[uuid.UUID]decimal.Decimal)
		var planned []*entities.InventoryAllocation
		now := s.Now().UTC()

		for i := range so.Lines {
			line := &so.Lines[i]
			need := line.Remaining()
			if !need.IsPositive() {
				continue
			}
			var picks []Pick
			if p, ok := explicit[line.ID]; ok {
				if picks, err = s.checkPicks(ctx, orgID, line, p, held[line.ID], taken, now); err != nil {
					return err
				}
			} else {
				if picks, err = s.autoPicks(ctx, orgID, line, need, strategy, held[line.ID], taken); err != nil {
					return err
				}
			}
			for _, p := range picks {
				a, err := entities.NewInventoryAllocation(orgID, so.ID, line.ID, p.LPID, p.Quantity, now)
				if err != nil {
					return err
				}
				planned = append(planned, a)
				line.QuantityAllocated = line.QuantityAllocated.Add(p.Quantity)
			}
			if short := line.Remaining(); short.IsPositive() && req.CreateBackorder {
				line.BackorderFlag = true
				result.Backorders = append(result.Backorders, Backorder{LineID: line.ID, ProductID: line.ProductID, Shortfall: short})
			}
		}

		pct := fulfillment(so)
		switch {
		case pct >= settings.AllocationThresholdPct:
			err = so.ChangeStatus(entities.SOAllocated, now)
		case pct < settings.AllocationThresholdPct && req.HoldIfInsufficient:
			err = so.ChangeStatus(entities.SOOnHold, now)
		}
		if err != nil {
			return err
		}

		for _, a := range planned {
			if err := s.allocations.Create(ctx, a); err != nil {
				return err
			}
		}
		so.UpdatedAt = now
		if err := s.orders.Update(ctx, so); err != nil {
			return err
		}
		result.SalesOrder = so
		result.Allocations = append(result.Allocations, planned...)
		result.FulfillmentPct = pct
		result.UndoUntil = now.Add(entities.UndoWindow)
		return nil
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("so_id", soID.String()).
		Int("allocations", len(result.Allocations)).
		Int("fulfillment_pct", result.FulfillmentPct).
		Str("status", string(result.SalesOrder.Status)).
		Msg("sales order allocated")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivitySOAllocated, soID,
		fmt.Sprintf("%s allocated %d%%", result.SalesOrder.OrderNumber, result.FulfillmentPct),
		map[string]any{"allocations": len(result.Allocations), "backorders": len(result.Backorders)})
	return result, nil
}

// fulfillment is allocated over ordered, rounded to a whole percent
func fulfillment(so *entities.SalesOrder) int {
	required, allocated := decimal.Zero, decimal.Zero
	for _, l := range so.Lines {
		required = required.Add(l.QuantityOrdered)
		allocated = allocated.Add(l.QuantityAllocated).Add(l.QuantityShipped)
	}
	if required.IsZero() {
		return 0
	}
	return int(allocated.Div(required).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// free returns each plate's unallocated quantity less this run's picks
func (s *Service) free(ctx context.Context, orgID uuid.UUID, lps map[uuid.UUID]*entities.LicensePlate, taken map[uuid.UUID]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(lps))
	for id := range lps {
		ids = append(ids, id)
	}
	allocated, err := s.allocations.ActiveQuantities(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	out := make(map[uuid.UUID]decimal.Decimal, len(lps))
	for id, lp := range lps {
		out[id] = lp.Quantity.Sub(allocated[id]).Sub(taken[id])
	}
	return out, nil
}

func (s *Service) checkPicks(ctx context.Context, orgID uuid.UUID, line *entities.SalesOrderLine, picks []Pick, held map[uuid.UUID]bool, taken map[uuid.UUID]decimal.Decimal, now time.Time) ([]Pick, error) {
	ids := make([]uuid.UUID, 0, len(picks))
	seen := make(map[uuid.UUID]bool, len(picks))
	for _, p := range picks {
		if seen[p.LPID] {
			return nil, entities.ConflictError("LP %s is picked twice for line %d", p.LPID, line.LineNumber)
		}
		if held[p.LPID] {
			return nil, entities.ConflictError("LP %s is already allocated to line %d", p.LPID, line.LineNumber)
		}
		seen[p.LPID] = true
		ids = append(ids, p.LPID)
	}
	lps, err := s.lps.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load plates: %w", err)
	}
	free, err := s.free(ctx, orgID, lps, taken)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range picks {
		lp, ok := lps[p.LPID]
		if !ok {
			return nil, entities.NotFoundError("LP not found: %s", p.LPID)
		}
		if lp.ProductID != line.ProductID {
			return nil, entities.ValidationError("LP %s holds a different product than line %d", lp.LPNumber, line.LineNumber)
		}
		if lp.Status != entities.LPAvailable || lp.QAStatus != entities.QAPassed || lp.IsExpired(now) {
			return nil, entities.ValidationError("LP %s is not allocatable (status %s, qa %s)", lp.LPNumber, lp.Status, lp.QAStatus)
		}
		if !p.Quantity.IsPositive() {
			return nil, entities.ValidationError("pick quantity must be positive, got %s", p.Quantity)
		}
		if p.Quantity.GreaterThan(free[p.LPID]) {
			return nil, entities.ValidationError("LP %s has %s available, requested %s", lp.LPNumber, free[p.LPID], p.Quantity)
		}
		total = total.Add(p.Quantity)
		taken[p.LPID] = taken[p.LPID].Add(p.Quantity)
	}
	if total.GreaterThan(line.Remaining()) {
		return nil, entities.ValidationError("line %d: picked %s exceeds remaining %s", line.LineNumber, total, line.Remaining())
	}
	return picks, nil
}

func (s *Service) autoPicks(ctx context.Context, orgID uuid.UUID, line *entities.SalesOrderLine, need decimal.Decimal, strategy entities.AllocationStrategy, held map[uuid.UUID]bool, taken map[uuid.UUID]decimal.Decimal) ([]Pick, error) {
	candidates, err := s.AvailableLPs(ctx, orgID, line.ProductID, strategy)
	if err != nil {
		return nil, err
	}
	var picks []Pick
	for _, c := range candidates {
		if !need.IsPositive() {
			break
		}
		if held[c.LPID] {
			continue
		}
		free := c.AvailableQuantity.Sub(taken[c.LPID])
		if !free.IsPositive() {
			continue
		}
		qty := decimal.Min(free, need)
		picks = append(picks, Pick{LPID: c.LPID, Quantity: qty})
		taken[c.LPID] = taken[c.LPID].Add(qty)
		need = need.Sub(qty)
	}
	return picks, nil
}

// Release frees allocations of an order. Outside the undo window only a
// forced release is allowed. The order returns to confirmed.
func (s *Service) Release(ctx context.Context, orgID, soID uuid.UUID, req ReleaseRequest) (*ReleaseResult, error) {
	result := &ReleaseResult{Released: []*entities.InventoryAllocation{}}
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		so, err := s.orders.Get(ctx, orgID, soID)
		if err != nil {
			return err
		}
		all, err := s.allocations.ListBySalesOrder(ctx, orgID, soID)
		if err != nil {
			return fmt.Errorf("failed to load allocations: %w", err)
		}

		var targets []*entities.InventoryAllocation
		if len(req.AllocationIDs) == 0 {
			for _, a := range all {
				if a.IsActive() {
					targets = append(targets, a)
				}
			}
		} else {
			byID := make(map[uuid.UUID]*entities.InventoryAllocation, len(all))
			for _, a := range all {
				byID[a.ID] = a
			}
			for _, id := range req.AllocationIDs {
				a, ok := byID[id]
				if !ok {
					return entities.NotFoundError("allocation %s not found on sales order %s", id, so.OrderNumber)
				}
				targets = append(targets, a)
			}
		}
		if len(targets) == 0 {
			return entities.ConflictError("sales order %s has no active allocations", so.OrderNumber)
		}

		now := s.Now().UTC()
		for _, a := range targets {
			if !a.IsActive() {
				return entities.ConflictError("allocation %s is no longer active", a.ID)
			}
			if !req.Force && now.After(a.UndoUntil()) {
				return entities.ConflictError("undo window for allocation %s expired at %s", a.ID, a.UndoUntil().Format(time.RFC3339))
			}
		}
		if err := so.ReturnToConfirmed(now); err != nil {
			return err
		}

		for _, a := range targets {
			if err := a.Release(now); err != nil {
				return err
			}
			if line, ok := so.Line(a.SalesOrderLineID); ok {
				line.QuantityAllocated = line.QuantityAllocated.Sub(a.Quantity)
				if line.QuantityAllocated.IsNegative() {
					line.QuantityAllocated = decimal.Zero
				}
			}
			if err := s.allocations.Update(ctx, a); err != nil {
				return err
			}
		}
		if err := s.orders.Update(ctx, so); err != nil {
			return err
		}
		result.SalesOrder = so
		result.Released = targets
		return nil
	})
	if err != nil {
		return nil, err
	}

	shared.Emit(ctx, s.publisher, orgID, entities.ActivitySOReleased, soID,
		fmt.Sprintf("%s released %d allocations", result.SalesOrder.OrderNumber, len(result.Released)), nil)
	return result, nil
}
