package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

func bomOf(product uuid.UUID, components ...uuid.UUID) *entities.BOM {
	items := make([]entities.BOMItem, len(components))
	for i, c := range components {
		items[i] = entities.BOMItem{ComponentID: c, Quantity: decimal.NewFromInt(1), Sequence: i + 1}
	}
	return &entities.BOM{ID: entities.NewID(), ProductID: product, Version: 1, OutputQty: decimal.NewFromInt(1), Items: items, CreatedAt: time.Now()}
}

func TestBOMValidator_DetectsCycleAcrossBOMs(t *testing.T) {
	v := NewBOMValidator()
	a, b, c := entities.NewID(), entities.NewID(), entities.NewID()

	active := []*entities.BOM{bomOf(a, b), bomOf(b, c)}
	result := v.ValidateActivation(bomOf(c, a), active)

	assert.True(t, result.HasCycles)
	require.Len(t, result.CyclePaths, 1)
	cycle := result.CyclePaths[0]
	assert.Len(t, cycle, 4)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	require.ErrorIs(t, result.Err(), entities.ErrValidation)
}

func TestBOMValidator_IgnoresOtherVersionsOfSameProduct(t *testing.T) {
	v := NewBOMValidator()
	a, b := entities.NewID(), entities.NewID()

	// old version of b consumed a, the new one does not
	active := []*entities.BOM{bomOf(a, b), bomOf(b, a)}
	result := v.ValidateActivation(bomOf(b, entities.NewID()), active)

	assert.False(t, result.HasCycles)
	assert.True(t, result.Valid())
}

func TestBOMValidator_DuplicateAndEmptyItems(t *testing.T) {
	v := NewBOMValidator()
	a, b := entities.NewID(), entities.NewID()

	result := v.ValidateActivation(bomOf(a, b, b), nil)
	assert.Equal(t, []uuid.UUID{b}, result.DuplicateItems)
	assert.Contains(t, result.Errors, "found 1 duplicate component lines")

	result = v.ValidateActivation(bomOf(a), nil)
	assert.Contains(t, result.Errors, "bom has no items")
}

func TestBOMValidator_ValidateCodeUniqueness(t *testing.T) {
	v := NewBOMValidator()
	products := []*entities.Product{{Code: "FLOUR"}, {Code: "SUGAR"}, {Code: "FLOUR"}}

	result := v.ValidateCodeUniqueness(products)
	assert.Equal(t, []string{"duplicate product codes found: [FLOUR]"}, result.Errors)
	assert.True(t, v.ValidateCodeUniqueness(products[:2]).Valid())
}
