package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// GenealogyRepository provides in-memory genealogy link storage
type GenealogyRepository struct {
	rows *table[*entities.GenealogyLink]
}

// NewGenealogyRepository creates a new in-memory genealogy repository
func NewGenealogyRepository() *GenealogyRepository {
	return &GenealogyRepository{rows: newTable("genealogy link",
		func(l *entities.GenealogyLink) (uuid.UUID, uuid.UUID) { return l.OrgID, l.ID },
		(*entities.GenealogyLink).Clone)}
}

var _ repositories.GenealogyRepository = (*GenealogyRepository)(nil)

func sameActiveLink(l *entities.GenealogyLink) func(*entities.GenealogyLink) bool {
	return func(existing *entities.GenealogyLink) bool {
		return !l.IsReversed && !existing.IsReversed &&
			existing.ParentLPID == l.ParentLPID &&
			existing.ChildLPID == l.ChildLPID &&
			existing.OperationType == l.OperationType
	}
}

// Create stores a link; one active link per (parent, child, operation)
func (r *GenealogyRepository) Create(ctx context.Context, l *entities.GenealogyLink) error {
	if err := r.rows.insert(l, sameActiveLink(l)); err != nil {
		return err
	}
	return nil
}

func (r *GenealogyRepository) Update(ctx context.Context, l *entities.GenealogyLink) error {
	return r.rows.update(l, sameActiveLink(l))
}

func (r *GenealogyRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.GenealogyLink, error) {
	return r.rows.get(orgID, id)
}

func (r *GenealogyRepository) FindActive(ctx context.Context, orgID, parentID, childID uuid.UUID, op entities.OperationType) (*entities.GenealogyLink, error) {
	l, ok := r.rows.find(orgID, func(l *entities.GenealogyLink) bool {
		return !l.IsReversed && l.ParentLPID == parentID && l.ChildLPID == childID && l.OperationType == op
	})
	if !ok {
		return nil, entities.NotFoundError("genealogy link not found")
	}
	return l, nil
}

// ListByWorkOrder returns the work order's non-reversed links
func (r *GenealogyRepository) ListByWorkOrder(ctx context.Context, orgID, woID uuid.UUID) ([]*entities.GenealogyLink, error) {
	return r.rows.filter(orgID, func(l *entities.GenealogyLink) bool {
		return !l.IsReversed && l.WorkOrderID != nil && *l.WorkOrderID == woID
	}), nil
}

// Trace is a breadth first walk, so the first time a plate is reached is
// at its minimum depth. Visited plates are never expanded twice.
func (r *GenealogyRepository) Trace(ctx context.Context, orgID, rootID uuid.UUID, dir entities.TraceDirection, maxDepth int, includeReversed bool) ([]entities.TraceEdge, error) {
	links := r.rows.filter(orgID, func(l *entities.GenealogyLink) bool { return includeReversed || !l.IsReversed })

	next := make(map[uuid.UUID][]*entities.GenealogyLink)
	for _, l := range links {
		if dir == entities.TraceBackward {
			next[l.ChildLPID] = append(next[l.ChildLPID], l)
		} else {
			next[l.ParentLPID] = append(next[l.ParentLPID], l)
		}
	}

	visited := map[uuid.UUID]bool{rootID: true}
	frontier := []uuid.UUID{rootID}
	var edges []entities.TraceEdge

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var level []uuid.UUID
		for _, from := range frontier {
			for _, l := range next[from] {
				to := l.ChildLPID
				if dir == entities.TraceBackward {
					to = l.ParentLPID
				}
				if visited[to] {
					continue
				}
				visited[to] = true
				level = append(level, to)
				edges = append(edges, entities.TraceEdge{
					LPID:          to,
					FromLPID:      from,
					Depth:         depth,
					OperationType: l.OperationType,
					Quantity:      l.Quantity,
					LinkID:        l.ID,
				})
			}
		}
		frontier = level
	}
	return edges, nil
}
