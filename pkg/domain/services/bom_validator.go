package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// BOMValidator checks BOM structure integrity across an organization
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles        bool          `json:"has_cycles"`
	CyclePaths       [][]uuid.UUID `json:"cycle_paths,omitempty"`
	DuplicateItems   []uuid.UUID   `json:"duplicate_items,omitempty"`
	NonPositiveItems []uuid.UUID   `json:"non_positive_items,omitempty"`
	Errors           []string      `json:"errors,omitempty"`
}

// Valid reports whether no problems were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err folds the result into a validation error
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return entities.ValidationError("bom validation failed: %v", r.Errors)
}

// ValidateActivation checks candidate as if it were active alongside the
// other active BOMs. Other versions of the candidate's product are ignored
// since activation obsoletes them.
func (v *BOMValidator) ValidateActivation(candidate *entities.BOM, active []*entities.BOM) *ValidationResult {
	boms := make([]*entities.BOM, 0, len(active)+1)
	for _, b := range active {
		if b.ProductID != candidate.ProductID {
			boms = append(boms, b)
		}
	}
	boms = append(boms, candidate)

	result := v.ValidateBOMs(boms)

	seen := make(map[uuid.UUID]bool)
	for _, item := range candidate.Items {
		if seen[item.ComponentID] {
			result.DuplicateItems = append(result.DuplicateItems, item.ComponentID)
		}
		seen[item.ComponentID] = true
		if !item.Quantity.IsPositive() {
			result.NonPositiveItems = append(result.NonPositiveItems, item.ComponentID)
		}
	}
	if len(candidate.Items) == 0 {
		result.Errors = append(result.Errors, "bom has no items")
	}
	if len(result.DuplicateItems) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate component lines", len(result.DuplicateItems)))
	}
	if len(result.NonPositiveItems) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d non-positive component quantities", len(result.NonPositiveItems)))
	}
	return result
}

// ValidateBOMs detects product cycles across a set of BOMs
func (v *BOMValidator) ValidateBOMs(boms []*entities.BOM) *ValidationResult {
	result := &ValidationResult{}

	cycles := v.detectCycles(v.buildAdjacencyMap(boms))
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles
	for _, cycle := range cycles {
		result.Errors = append(result.Errors, fmt.Sprintf("bom cycle detected: %v", cycle))
	}
	return result
}

// buildAdjacencyMap creates product -> component relationships
func (v *BOMValidator) buildAdjacencyMap(boms []*entities.BOM) map[uuid.UUID][]uuid.UUID {
	adjacency := make(map[uuid.UUID][]uuid.UUID)
	for _, b := range boms {
		seen := make(map[uuid.UUID]bool)
		for _, item := range b.Items {
			if seen[item.ComponentID] {
				continue
			}
			seen[item.ComponentID] = true
			adjacency[b.ProductID] = append(adjacency[b.ProductID], item.ComponentID)
		}
	}
	return adjacency
}

// detectCycles runs a DFS from every product in a stable order
func (v *BOMValidator) detectCycles(adjacency map[uuid.UUID][]uuid.UUID) [][]uuid.UUID {
	visited := make(map[uuid.UUID]bool)
	onStack := make(map[uuid.UUID]bool)
	var cycles [][]uuid.UUID

	roots := make([]uuid.UUID, 0, len(adjacency))
	for p := range adjacency {
		roots = append(roots, p)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].String() < roots[j].String() })

	for _, p := range roots {
		if !visited[p] {
			v.dfsDetectCycle(p, adjacency, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func (v *BOMValidator) dfsDetectCycle(
	current uuid.UUID,
	adjacency map[uuid.UUID][]uuid.UUID,
	visited map[uuid.UUID]bool,
	onStack map[uuid.UUID]bool,
	path []uuid.UUID,
	cycles *[][]uuid.UUID,
) {
	visited[current] = true
	onStack[current] = true
	path = append(path, current)

	for _, child := range adjacency[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacency, visited, onStack, path, cycles)
			continue
		}
		if !onStack[child] {
			continue
		}
		for i, p := range path {
			if p == child {
				cycle := append(append([]uuid.UUID(nil), path[i:]...), child)
				*cycles = append(*cycles, cycle)
				break
			}
		}
	}

	onStack[current] = false
}

// ValidateCodeUniqueness reports product codes that appear more than once
func (v *BOMValidator) ValidateCodeUniqueness(products []*entities.Product) *ValidationResult {
	result := &ValidationResult{}

	seen := make(map[string]bool)
	var duplicates []string
	for _, p := range products {
		if seen[p.Code] {
			duplicates = append(duplicates, p.Code)
		}
		seen[p.Code] = true
	}

	if len(duplicates) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("duplicate product codes found: %v", duplicates))
	}
	return result
}
