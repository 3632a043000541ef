package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	return totals
}

func TestEventCounter_Handle(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	counter := NewEventCounter(NewMetrics(provider.Meter("test")))

	for _, typ := range []entities.ActivityType{
		entities.ActivityLPCreated,
		entities.ActivityLPCreated,
		entities.ActivityLPSplit,
		entities.ActivityHoldCreated,
		entities.ActivityHoldCreated,
		entities.ActivityHoldReleased,
		entities.ActivityRecallSimulated,
	} {
		require.True(t, counter.CanHandle(typ))
		require.NoError(t, counter.Handle(ctx, &entities.ActivityEvent{Type: typ}))
	}

	totals := collect(t, reader)
	assert.Equal(t, int64(7), totals["monopilot.activity.events.total"])
	assert.Equal(t, int64(2), totals["monopilot.lp.created.total"])
	assert.Equal(t, int64(1), totals["monopilot.lp.splits.total"])
	assert.Equal(t, int64(1), totals["monopilot.quality.holds.active"])
	assert.Equal(t, int64(1), totals["monopilot.recall.simulations.total"])
	assert.Zero(t, totals["monopilot.lp.merges.total"])
}
