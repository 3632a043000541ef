package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/vsinha/monopilot"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// License plate metrics
	LPsCreatedTotal  metric.Int64Counter
	LPSplitsTotal    metric.Int64Counter
	LPMergesTotal    metric.Int64Counter
	LPStatusChanges  metric.Int64Counter
	GenealogyLinks   metric.Int64Counter
	TraceQueries     metric.Int64Counter
	TraceDuration    metric.Float64Histogram
	QualityHoldsOpen metric.Int64UpDownCounter

	// Order metrics
	AllocationsTotal  metric.Int64Counter
	ShipmentsTotal    metric.Int64Counter
	WorkOrderOutputs  metric.Int64Counter
	RecallSimulations metric.Int64Counter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Activity metrics
	EventsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it from
// the global meter provider if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider().Meter(meterName))
	})
	return metrics
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.LPsCreatedTotal, _ = meter.Int64Counter(
		"monopilot.lp.created.total",
		metric.WithDescription("Total number of license plates created"),
		metric.WithUnit("{lp}"),
	)

	m.LPSplitsTotal, _ = meter.Int64Counter(
		"monopilot.lp.splits.total",
		metric.WithDescription("Total number of license plate splits"),
		metric.WithUnit("{split}"),
	)

	m.LPMergesTotal, _ = meter.Int64Counter(
		"monopilot.lp.merges.total",
		metric.WithDescription("Total number of license plate merges"),
		metric.WithUnit("{merge}"),
	)

	m.LPStatusChanges, _ = meter.Int64Counter(
		"monopilot.lp.status_changes.total",
		metric.WithDescription("Total number of license plate status and QA changes"),
		metric.WithUnit("{change}"),
	)

	m.GenealogyLinks, _ = meter.Int64Counter(
		"monopilot.genealogy.links.total",
		metric.WithDescription("Total number of genealogy links created or reversed"),
		metric.WithUnit("{link}"),
	)

	m.TraceQueries, _ = meter.Int64Counter(
		"monopilot.genealogy.traces.total",
		metric.WithDescription("Total number of genealogy trace queries"),
		metric.WithUnit("{trace}"),
	)

	m.TraceDuration, _ = meter.Float64Histogram(
		"monopilot.genealogy.trace.duration",
		metric.WithDescription("Duration of genealogy trace queries"),
		metric.WithUnit("ms"),
	)

	m.QualityHoldsOpen, _ = meter.Int64UpDownCounter(
		"monopilot.quality.holds.active",
		metric.WithDescription("Number of quality holds placed minus released since start"),
		metric.WithUnit("{hold}"),
	)

	m.AllocationsTotal, _ = meter.Int64Counter(
		"monopilot.allocations.total",
		metric.WithDescription("Total number of sales order allocation runs"),
		metric.WithUnit("{allocation}"),
	)

	m.ShipmentsTotal, _ = meter.Int64Counter(
		"monopilot.shipments.total",
		metric.WithDescription("Total number of shipments"),
		metric.WithUnit("{shipment}"),
	)

	m.WorkOrderOutputs, _ = meter.Int64Counter(
		"monopilot.work_orders.outputs.total",
		metric.WithDescription("Total number of work order outputs registered"),
		metric.WithUnit("{output}"),
	)

	m.RecallSimulations, _ = meter.Int64Counter(
		"monopilot.recall.simulations.total",
		metric.WithDescription("Total number of recall simulations"),
		metric.WithUnit("{simulation}"),
	)

	m.HTTPRequestsTotal, _ = meter.Int64Counter(
		"monopilot.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)

	m.HTTPRequestDuration, _ = meter.Float64Histogram(
		"monopilot.http.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)

	m.EventsTotal, _ = meter.Int64Counter(
		"monopilot.activity.events.total",
		metric.WithDescription("Total number of activity events published"),
		metric.WithUnit("{event}"),
	)

	return m
}
