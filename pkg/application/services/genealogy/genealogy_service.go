package genealogy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

const (
	// DefaultMaxDepth is used when a trace does not ask for a depth
	DefaultMaxDepth = 10
	// MaxTraceDepth bounds every trace
	MaxTraceDepth = 20
)

// LinkRequest links two plates
type LinkRequest struct {
	ParentLPID  uuid.UUID       `json:"parent_lp_id"`
	ChildLPID   uuid.UUID       `json:"child_lp_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	WorkOrderID *uuid.UUID      `json:"work_order_id,omitempty"`
}

// TraceOptions controls a trace
type TraceOptions struct {
	Direction       entities.TraceDirection
	MaxDepth        int
	IncludeReversed bool
}

// Service records and walks license plate genealogy
type Service struct {
	links     repositories.GenealogyRepository
	lps       repositories.LicensePlateRepository
	products  repositories.ProductRepository
	publisher shared.Publisher
	format    *services.NumberFormatter
	Now       func() time.Time
}

// NewService creates a genealogy service
func NewService(links repositories.GenealogyRepository, lps repositories.LicensePlateRepository, products repositories.ProductRepository, publisher shared.Publisher) *Service {
	return &Service{
		links:     links,
		lps:       lps,
		products:  products,
		publisher: publisher,
		format:    services.NewNumberFormatter(),
		Now:       time.Now,
	}
}

// loadPair fetches both ends of a link and checks they can be linked
func (s *Service) loadPair(ctx context.Context, orgID, parentID, childID uuid.UUID, parentRole, childRole string) error {
	if parentID == childID {
		return entities.ValidationError("self-referencing genealogy link: %s", parentID)
	}
	found, err := s.lps.GetMany(ctx, orgID, []uuid.UUID{parentID, childID})
	if err != nil {
		return fmt.Errorf("failed to load license plates: %w", err)
	}
	parent, ok := found[parentID]
	if !ok {
		return entities.NotFoundError("%s LP not found: %s", parentRole, parentID)
	}
	child, ok := found[childID]
	if !ok {
		return entities.NotFoundError("%s LP not found: %s", childRole, childID)
	}
	if parent.OrgID != orgID || child.OrgID != orgID {
		return entities.ForbiddenError("cannot link LPs from different organizations")
	}
	return nil
}

func (s *Service) create(ctx context.Context, orgID uuid.UUID, req LinkRequest, op entities.OperationType, parentRole, childRole string) (*entities.GenealogyLink, error) {
	if err := s.loadPair(ctx, orgID, req.ParentLPID, req.ChildLPID, parentRole, childRole); err != nil {
		return nil, err
	}
	switch _, err := s.links.FindActive(ctx, orgID, req.ParentLPID, req.ChildLPID, op); {
	case err == nil:
		return nil, entities.ConflictError("%s link between %s and %s already exists", op, req.ParentLPID, req.ChildLPID)
	case !errors.Is(err, entities.ErrNotFound):
		return nil, fmt.Errorf("failed to look up genealogy link: %w", err)
	}
	link, err := entities.NewGenealogyLink(orgID, req.ParentLPID, req.ChildLPID, op, req.Quantity, req.WorkOrderID, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create genealogy link: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("link_id", link.ID.String()).
		Str("operation", string(op)).
		Str("parent_lp_id", req.ParentLPID.String()).
		Str("child_lp_id", req.ChildLPID.String()).
		Msg("genealogy link created")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityGenealogyLinked, link.ID,
		fmt.Sprintf("%s link recorded", op), map[string]any{"parent_lp_id": req.ParentLPID, "child_lp_id": req.ChildLPID})
	return link, nil
}

// Link records a link of any operation type
func (s *Service) Link(ctx context.Context, orgID uuid.UUID, op entities.OperationType, req LinkRequest) (*entities.GenealogyLink, error) {
	switch op {
	case entities.OpConsume:
		return s.LinkConsumption(ctx, orgID, req)
	case entities.OpSplit:
		return s.LinkSplit(ctx, orgID, req.ParentLPID, req.ChildLPID, req.Quantity)
	case entities.OpOutput:
		qty := map[uuid.UUID]decimal.Decimal{req.ParentLPID: req.Quantity}
		links, err := s.LinkOutputQuantities(ctx, orgID, qty, []uuid.UUID{req.ParentLPID}, req.ChildLPID, req.WorkOrderID)
		if err != nil {
			return nil, err
		}
		return links[0], nil
	case entities.OpMerge:
		links, err := s.LinkMerge(ctx, orgID, []uuid.UUID{req.ParentLPID}, req.ChildLPID)
		if err != nil {
			return nil, err
		}
		return links[0], nil
	}
	return nil, entities.ValidationError("invalid operation type %q", op)
}

// LinkConsumption records that parent was consumed into child
func (s *Service) LinkConsumption(ctx context.Context, orgID uuid.UUID, req LinkRequest) (*entities.GenealogyLink, error) {
	return s.create(ctx, orgID, req, entities.OpConsume, "parent", "child")
}

// LinkOutput records that every consumed plate went into the output plate
func (s *Service) LinkOutput(ctx context.Context, orgID uuid.UUID, consumedIDs []uuid.UUID, outputID uuid.UUID, woID *uuid.UUID) ([]*entities.GenealogyLink, error) {
	return s.LinkOutputQuantities(ctx, orgID, nil, consumedIDs, outputID, woID)
}

// LinkOutputQuantities is LinkOutput carrying how much of each plate the
// work order consumed. Plates missing from consumed get a zero quantity.
func (s *Service) LinkOutputQuantities(ctx context.Context, orgID uuid.UUID, consumed map[uuid.UUID]decimal.Decimal, order []uuid.UUID, outputID uuid.UUID, woID *uuid.UUID) ([]*entities.GenealogyLink, error) {
	if len(order) == 0 {
		return nil, entities.ValidationError("at least one consumed LP is required")
	}
	out := make([]*entities.GenealogyLink, 0, len(order))
	for _, id := range order {
		req := LinkRequest{ParentLPID: id, ChildLPID: outputID, Quantity: consumed[id], WorkOrderID: woID}
		link, err := s.create(ctx, orgID, req, entities.OpOutput, "consumed", "output")
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

// LinkSplit records that child was split off source
func (s *Service) LinkSplit(ctx context.Context, orgID, sourceID, childID uuid.UUID, qty decimal.Decimal) (*entities.GenealogyLink, error) {
	if !qty.IsPositive() {
		return nil, entities.ValidationError("split quantity must be positive, got %s", qty)
	}
	return s.create(ctx, orgID, LinkRequest{ParentLPID: sourceID, ChildLPID: childID, Quantity: qty}, entities.OpSplit, "parent", "child")
}

// LinkMerge records that every source plate was merged into target
func (s *Service) LinkMerge(ctx context.Context, orgID uuid.UUID, sourceIDs []uuid.UUID, targetID uuid.UUID) ([]*entities.GenealogyLink, error) {
	if len(sourceIDs) == 0 {
		return nil, entities.ValidationError("at least one source LP is required")
	}
	for _, id := range sourceIDs {
		if id == targetID {
			return nil, entities.ValidationError("target LP cannot be one of the merge sources")
		}
	}
	found, err := s.lps.GetMany(ctx, orgID, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load license plates: %w", err)
	}
	out := make([]*entities.GenealogyLink, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		qty := decimal.Zero
		if lp, ok := found[id]; ok {
			qty = lp.Quantity
		}
		link, err := s.create(ctx, orgID, LinkRequest{ParentLPID: id, ChildLPID: targetID, Quantity: qty}, entities.OpMerge, "source", "target")
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

// LinkMergeQuantities is LinkMerge with explicit per-source quantities,
// used when the sources were already emptied
func (s *Service) LinkMergeQuantities(ctx context.Context, orgID uuid.UUID, sources map[uuid.UUID]decimal.Decimal, order []uuid.UUID, targetID uuid.UUID) ([]*entities.GenealogyLink, error) {
	out := make([]*entities.GenealogyLink, 0, len(order))
	for _, id := range order {
		if id == targetID {
			return nil, entities.ValidationError("target LP cannot be one of the merge sources")
		}
		link, err := s.create(ctx, orgID, LinkRequest{ParentLPID: id, ChildLPID: targetID, Quantity: sources[id]}, entities.OpMerge, "source", "target")
		if err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, nil
}

// ReverseLink soft-deletes a link
func (s *Service) ReverseLink(ctx context.Context, orgID, linkID uuid.UUID) (*entities.GenealogyLink, error) {
	link, err := s.links.Get(ctx, orgID, linkID)
	if err != nil {
		return nil, err
	}
	if err := link.Reverse(s.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to reverse genealogy link: %w", err)
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityGenealogyRev, link.ID, fmt.Sprintf("%s link reversed", link.OperationType), nil)
	return link, nil
}

func normalizeDepth(depth int) (int, error) {
	if depth == 0 {
		return DefaultMaxDepth, nil
	}
	if depth < 1 || depth > MaxTraceDepth {
		return 0, entities.ValidationError("max depth must be between 1 and %d, got %d", MaxTraceDepth, depth)
	}
	return depth, nil
}

// ForwardTrace returns everything made from lpID
func (s *Service) ForwardTrace(ctx context.Context, orgID, lpID uuid.UUID, maxDepth int, includeReversed bool) (*dto.TraceResult, error) {
	return s.trace(ctx, orgID, lpID, entities.TraceForward, maxDepth, includeReversed)
}

// BackwardTrace returns everything lpID was made from
func (s *Service) BackwardTrace(ctx context.Context, orgID, lpID uuid.UUID, maxDepth int, includeReversed bool) (*dto.TraceResult, error) {
	return s.trace(ctx, orgID, lpID, entities.TraceBackward, maxDepth, includeReversed)
}

func (s *Service) trace(ctx context.Context, orgID, lpID uuid.UUID, dir entities.TraceDirection, maxDepth int, includeReversed bool) (*dto.TraceResult, error) {
	depth, err := normalizeDepth(maxDepth)
	if err != nil {
		return nil, err
	}
	if _, err := s.lps.Get(ctx, orgID, lpID); err != nil {
		return nil, err
	}

	// one level past the limit tells us whether the tree continues
	edges, err := s.links.Trace(ctx, orgID, lpID, dir, depth+1, includeReversed)
	if err != nil {
		return nil, fmt.Errorf("failed to trace %s from %s: %w", dir, lpID, err)
	}

	result := &dto.TraceResult{RootLPID: lpID, Direction: dir, MaxDepth: depth, Nodes: []dto.TraceNode{}}
	within := edges[:0:0]
	for _, e := range edges {
		if e.Depth > depth {
			result.HasMoreLevels = true
			continue
		}
		within = append(within, e)
	}

	nodes, err := s.nodes(ctx, orgID, within)
	if err != nil {
		return nil, err
	}
	result.Nodes = nodes
	result.TotalCount = len(nodes)

	zerolog.Ctx(ctx).Debug().
		Str("lp_id", lpID.String()).
		Str("direction", string(dir)).
		Int("nodes", result.TotalCount).
		Bool("has_more_levels", result.HasMoreLevels).
		Msg("genealogy trace")
	return result, nil
}

// nodes joins edges with plate and product data, ordered by depth then
// lp number
func (s *Service) nodes(ctx context.Context, orgID uuid.UUID, edges []entities.TraceEdge) ([]dto.TraceNode, error) {
	ids := make([]uuid.UUID, len(edges))
	for i, e := range edges {
		ids[i] = e.LPID
	}
	lps, err := s.lps.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load traced plates: %w", err)
	}
	productIDs := make([]uuid.UUID, 0, len(lps))
	for _, lp := range lps {
		productIDs = append(productIDs, lp.ProductID)
	}
	products, err := s.products.GetMany(ctx, orgID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load traced products: %w", err)
	}

	out := make([]dto.TraceNode, 0, len(edges))
	for _, e := range edges {
		lp, ok := lps[e.LPID]
		if !ok {
			continue
		}
		from := e.FromLPID
		node := NodeOf(lp, products[lp.ProductID])
		node.OperationType = e.OperationType
		node.LinkQuantity = e.Quantity
		node.Depth = e.Depth
		node.ParentID = &from
		out = append(out, node)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return s.format.Compare(out[i].LPNumber, out[j].LPNumber) < 0
	})
	return out, nil
}

// NodeOf describes a plate as a depth 0 trace node
func NodeOf(lp *entities.LicensePlate, product *entities.Product) dto.TraceNode {
	n := dto.TraceNode{
		LPID:         lp.ID,
		LPNumber:     lp.LPNumber,
		ProductID:    lp.ProductID,
		BatchNumber:  lp.BatchNumber,
		ExpiryDate:   lp.ExpiryDate,
		Quantity:     lp.Quantity,
		UOM:          lp.UOM,
		Status:       lp.Status,
		QAStatus:     lp.QAStatus,
		LocationID:   lp.LocationID,
		WarehouseID:  lp.WarehouseID,
		LinkQuantity: decimal.Zero,
	}
	if product != nil {
		n.ProductCode = product.Code
		n.ProductName = product.Name
	}
	return n
}

// FullTree traces in one or both directions from lpID
func (s *Service) FullTree(ctx context.Context, orgID, lpID uuid.UUID, opts TraceOptions) (*dto.GenealogyTree, error) {
	dir := opts.Direction
	if dir == "" {
		dir = entities.TraceBoth
	}
	if !dir.Valid() {
		return nil, entities.ValidationError("invalid direction %q", dir)
	}
	lp, err := s.lps.Get(ctx, orgID, lpID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, orgID, lp.ProductID)
	if err != nil {
		product = nil
	}

	tree := &dto.GenealogyTree{Root: NodeOf(lp, product)}
	if dir == entities.TraceBoth || dir == entities.TraceBackward {
		if tree.Ancestors, err = s.BackwardTrace(ctx, orgID, lpID, opts.MaxDepth, opts.IncludeReversed); err != nil {
			return nil, err
		}
	}
	if dir == entities.TraceBoth || dir == entities.TraceForward {
		if tree.Descendants, err = s.ForwardTrace(ctx, orgID, lpID, opts.MaxDepth, opts.IncludeReversed); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// ByWorkOrder groups a work order's active links by operation
func (s *Service) ByWorkOrder(ctx context.Context, orgID, woID uuid.UUID) (*dto.WorkOrderGenealogy, error) {
	links, err := s.links.ListByWorkOrder(ctx, orgID, woID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work order genealogy: %w", err)
	}
	out := &dto.WorkOrderGenealogy{
		WorkOrderID: woID,
		Links:       make(map[entities.OperationType][]*entities.GenealogyLink),
		TotalLinks:  len(links),
	}
	for _, l := range links {
		out.Links[l.OperationType] = append(out.Links[l.OperationType], l)
	}
	return out, nil
}
