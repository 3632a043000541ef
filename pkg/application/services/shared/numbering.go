package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// Document kinds numbered per calendar year
const (
	KindSalesOrder = "SO"
	KindWorkOrder  = "WO"
	KindShipment   = "SH"
	KindRMA        = "RMA"
	KindHold       = "QH"
	KindRecall     = "RC"
)

// LPSequenceKey is the sequence used for license plate numbers
const LPSequenceKey = "LP"

// Numberer issues document numbers from the org's sequences
type Numberer struct {
	seq    repositories.SequenceRepository
	format *services.NumberFormatter
}

// NewNumberer creates a numberer over seq
func NewNumberer(seq repositories.SequenceRepository) *Numberer {
	return &Numberer{seq: seq, format: services.NewNumberFormatter()}
}

// Formatter exposes the underlying formatter
func (n *Numberer) Formatter() *services.NumberFormatter {
	return n.format
}

// LPNumber returns the next license plate number for prefix
func (n *Numberer) LPNumber(ctx context.Context, orgID uuid.UUID, prefix string) (string, error) {
	v, err := n.seq.Next(ctx, orgID, LPSequenceKey)
	if err != nil {
		return "", fmt.Errorf("failed to allocate lp number: %w", err)
	}
	return n.format.LPNumber(prefix, v), nil
}

// PeekLPNumber returns the number LPNumber would issue next
func (n *Numberer) PeekLPNumber(ctx context.Context, orgID uuid.UUID, prefix string) (string, error) {
	v, err := n.seq.Peek(ctx, orgID, LPSequenceKey)
	if err != nil {
		return "", fmt.Errorf("failed to read lp sequence: %w", err)
	}
	return n.format.LPNumber(prefix, v), nil
}

// Yearly returns the next KIND-YYYY-NNNNN number for at's year
func (n *Numberer) Yearly(ctx context.Context, orgID uuid.UUID, kind string, at time.Time) (string, error) {
	year := at.UTC().Year()
	v, err := n.seq.Next(ctx, orgID, n.format.YearlyKey(kind, year))
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", kind, err)
	}
	return n.format.YearlyNumber(kind, year, v), nil
}

// ObserveLPNumber keeps the sequence ahead of an externally supplied number
func (n *Numberer) ObserveLPNumber(ctx context.Context, orgID uuid.UUID, prefix, number string) error {
	v, ok := n.format.SequenceOf(prefix, number)
	if !ok {
		return nil
	}
	return n.seq.Bump(ctx, orgID, LPSequenceKey, v)
}

// ObserveYearly keeps the yearly sequence of kind ahead of an imported
// KIND-YYYY-NNNNN number. Numbers in another format are ignored.
func (n *Numberer) ObserveYearly(ctx context.Context, orgID uuid.UUID, kind, number string) error {
	var year int
	var seq int64
	if _, err := fmt.Sscanf(number, kind+"-%d-%d", &year, &seq); err != nil {
		return nil
	}
	return n.seq.Bump(ctx, orgID, n.format.YearlyKey(kind, year), seq)
}
