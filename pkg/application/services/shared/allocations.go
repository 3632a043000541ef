package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// GuardAllocated refuses a change that would leave lp holding less than its
// open sales order allocations. remaining is the plate quantity after the change.
func GuardAllocated(ctx context.Context, allocations repositories.AllocationRepository, lp *entities.LicensePlate, remaining decimal.Decimal) error {
	held, err := allocations.ActiveQuantities(ctx, lp.OrgID, []uuid.UUID{lp.ID})
	if err != nil {
		return fmt.Errorf("failed to load allocations: %w", err)
	}
	if q := held[lp.ID]; q.IsPositive() && remaining.LessThan(q) {
		return entities.ConflictError("LP %s has %s allocated to sales orders, only %s would remain", lp.LPNumber, q, remaining)
	}
	return nil
}
