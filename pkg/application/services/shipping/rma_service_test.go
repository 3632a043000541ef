package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

func (h *harness) shipped(t *testing.T, qty string) *entities.SalesOrder {
	t.Helper()
	h.AddLP(h.Bread, "20")
	so := h.allocated(t, qty)
	_, err := h.svc.Ship(context.Background(), h.OrgID(), so.ID)
	require.NoError(t, err)
	return so
}

func TestService_CreateRMA(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	so := h.shipped(t, "6")

	rma, err := h.svc.CreateRMA(ctx, h.OrgID(), RMARequest{
		SalesOrderID: so.ID,
		Reason:       entities.ReasonDamaged,
		Lines:        []RMALineRequest{{ProductID: h.Bread.ID, Quantity: dec("2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RMA-2025-00001", rma.RMANumber)
	assert.Equal(t, entities.RMAPending, rma.Status)
	assert.Equal(t, entities.DispositionScrap, rma.Disposition)
	assert.Equal(t, so.CustomerID, rma.CustomerID)

	tests := []struct {
		name string
		req  RMARequest
		err  error
	}{
		{"more than shipped", RMARequest{SalesOrderID: so.ID, Reason: entities.ReasonOther,
			Lines: []RMALineRequest{{ProductID: h.Bread.ID, Quantity: dec("4")}, {ProductID: h.Bread.ID, Quantity: dec("3")}}}, entities.ErrValidation},
		{"product not on order", RMARequest{SalesOrderID: so.ID, Reason: entities.ReasonOther,
			Lines: []RMALineRequest{{ProductID: h.Flour.ID, Quantity: dec("1")}}}, entities.ErrValidation},
		{"unknown reason", RMARequest{SalesOrderID: so.ID, Reason: "bored",
			Lines: []RMALineRequest{{ProductID: h.Bread.ID, Quantity: dec("1")}}}, entities.ErrValidation},
		{"no lines", RMARequest{SalesOrderID: so.ID, Reason: entities.ReasonOther}, entities.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateRMA(ctx, h.OrgID(), tt.req)
			require.ErrorIs(t, err, tt.err)
		})
	}

	draft := h.order(t, "1")
	_, err = h.svc.CreateRMA(ctx, h.OrgID(), RMARequest{
		SalesOrderID: draft.ID,
		Reason:       entities.ReasonOther,
		Lines:        []RMALineRequest{{ProductID: h.Bread.ID, Quantity: dec("1")}},
	})
	require.ErrorIs(t, err, entities.ErrConflict)
}

func TestService_RMALifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	so := h.shipped(t, "6")

	rma, err := h.svc.CreateRMA(ctx, h.OrgID(), RMARequest{
		SalesOrderID: so.ID,
		Reason:       entities.ReasonWrongProduct,
		Lines:        []RMALineRequest{{ProductID: h.Bread.ID, Quantity: dec("2.5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.DispositionRestock, rma.Disposition)

	_, _, err = h.svc.ReceiveRMA(ctx, h.OrgID(), rma.ID, ReceiveRequest{LocationID: h.Location.ID})
	require.ErrorIs(t, err, entities.ErrInvalidTransition, "must be approved first")

	rma, err = h.svc.ApproveRMA(ctx, h.OrgID(), rma.ID)
	require.NoError(t, err)
	require.NotNil(t, rma.ApprovedAt)

	rma, lps, err := h.svc.ReceiveRMA(ctx, h.OrgID(), rma.ID, ReceiveRequest{LocationID: h.Location.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.RMAReceived, rma.Status)
	require.Len(t, lps, 1)
	lp := lps[0]
	assert.Equal(t, entities.LPBlocked, lp.Status)
	assert.Equal(t, entities.QAQuarantine, lp.QAStatus)
	assert.Equal(t, entities.SourceReturn, lp.Source)
	assert.True(t, dec("2.5").Equal(lp.Quantity))
	require.NotNil(t, rma.Lines[0].ReturnLPID)
	assert.Equal(t, lp.ID, *rma.Lines[0].ReturnLPID)

	stored, err := h.svc.GetRMA(ctx, h.OrgID(), rma.ID)
	require.NoError(t, err)
	assert.Equal(t, lp.ID, *stored.Lines[0].ReturnLPID)

	rma, err = h.svc.CloseRMA(ctx, h.OrgID(), rma.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.RMAClosed, rma.Status)

	_, err = h.svc.RejectRMA(ctx, h.OrgID(), rma.ID)
	require.ErrorIs(t, err, entities.ErrInvalidTransition)
}
