package planning

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// BOMNode is one product met during a BOM explosion
type BOMNode struct {
	Product  *entities.Product
	BOM      *entities.BOM // nil for purchased or unstructured products
	Quantity decimal.Decimal
	Level    int
	ParentID uuid.UUID
}

// BOMNodeVisitor processes nodes during a BOM explosion
type BOMNodeVisitor interface {
	// VisitNode returns how much of the node still has to be built from its
	// components. Zero stops the descent below this node.
	VisitNode(ctx context.Context, node BOMNode) (decimal.Decimal, error)
}

// BOMTraverser walks active BOMs depth first, scaling each component by the
// parent quantity over the BOM output quantity
type BOMTraverser struct {
	boms     repositories.BOMRepository
	products repositories.ProductRepository
}

// NewBOMTraverser creates a BOM traverser
func NewBOMTraverser(boms repositories.BOMRepository, products repositories.ProductRepository) *BOMTraverser {
	return &BOMTraverser{boms: boms, products: products}
}

type explosion struct {
	active   map[uuid.UUID]*entities.BOM
	products map[uuid.UUID]*entities.Product
	visitor  BOMNodeVisitor
}

// Traverse explodes root for quantity units of its product
func (bt *BOMTraverser) Traverse(ctx context.Context, orgID uuid.UUID, root *entities.BOM, quantity decimal.Decimal, visitor BOMNodeVisitor) error {
	active, err := bt.boms.ListActive(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to load active boms: %w", err)
	}
	products, err := bt.products.List(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	ex := &explosion{
		active:   make(map[uuid.UUID]*entities.BOM, len(active)),
		products: make(map[uuid.UUID]*entities.Product, len(products)),
		visitor:  visitor,
	}
	for _, b := range active {
		ex.active[b.ProductID] = b
	}
	for _, p := range products {
		ex.products[p.ID] = p
	}
	product, ok := ex.products[root.ProductID]
	if !ok {
		return entities.NotFoundError("product %s not found", root.ProductID)
	}
	node := BOMNode{Product: product, BOM: root, Quantity: quantity}
	return ex.visit(ctx, node, map[uuid.UUID]bool{})
}

func (ex *explosion) visit(ctx context.Context, node BOMNode, path map[uuid.UUID]bool) error {
	if path[node.Product.ID] {
		return entities.ValidationError("bom cycle through %s", node.Product.Code)
	}
	build, err := ex.visitor.VisitNode(ctx, node)
	if err != nil {
		return fmt.Errorf("failed to visit %s: %w", node.Product.Code, err)
	}
	if node.BOM == nil || !build.IsPositive() {
		return nil
	}

	path[node.Product.ID] = true
	defer delete(path, node.Product.ID)

	scale := build.Div(node.BOM.OutputQty)
	for _, item := range node.BOM.Items {
		component, ok := ex.products[item.ComponentID]
		if !ok {
			return entities.NotFoundError("component %s not found", item.ComponentID)
		}
		child := BOMNode{
			Product:  component,
			BOM:      ex.active[component.ID],
			Quantity: item.GrossQuantity().Mul(scale).Round(4),
			Level:    node.Level + 1,
			ParentID: node.Product.ID,
		}
		if err := ex.visit(ctx, child, path); err != nil {
			return err
		}
	}
	return nil
}
