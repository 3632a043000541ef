package telemetry

import (
	"context"

	"github.com/vsinha/monopilot/pkg/domain/entities"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventCounter turns published activity events into metric increments
type EventCounter struct {
	m *Metrics
}

// NewEventCounter creates an event handler feeding m
func NewEventCounter(m *Metrics) *EventCounter {
	return &EventCounter{m: m}
}

// CanHandle accepts every event type
func (c *EventCounter) CanHandle(entities.ActivityType) bool { return true }

// Handle records one event
func (c *EventCounter) Handle(ctx context.Context, event *entities.ActivityEvent) error {
	c.m.EventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(event.Type))))

	switch event.Type {
	case entities.ActivityLPCreated:
		c.m.LPsCreatedTotal.Add(ctx, 1)
	case entities.ActivityLPSplit:
		c.m.LPSplitsTotal.Add(ctx, 1)
	case entities.ActivityLPMerged:
		c.m.LPMergesTotal.Add(ctx, 1)
	case entities.ActivityLPStatusChanged, entities.ActivityLPQAChanged:
		c.m.LPStatusChanges.Add(ctx, 1)
	case entities.ActivityGenealogyLinked, entities.ActivityGenealogyRev:
		c.m.GenealogyLinks.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(event.Type))))
	case entities.ActivitySOAllocated:
		c.m.AllocationsTotal.Add(ctx, 1)
	case entities.ActivitySOShipped:
		c.m.ShipmentsTotal.Add(ctx, 1)
	case entities.ActivityWOOutput:
		c.m.WorkOrderOutputs.Add(ctx, 1)
	case entities.ActivityRecallSimulated:
		c.m.RecallSimulations.Add(ctx, 1)
	case entities.ActivityHoldCreated:
		c.m.QualityHoldsOpen.Add(ctx, 1)
	case entities.ActivityHoldReleased:
		c.m.QualityHoldsOpen.Add(ctx, -1)
	}
	return nil
}
