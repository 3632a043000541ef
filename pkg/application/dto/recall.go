package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// StatusBreakdown counts affected plates by where they stand
type StatusBreakdown struct {
	Available    int `json:"available"`
	InProduction int `json:"in_production"`
	Shipped      int `json:"shipped"`
	Consumed     int `json:"consumed"`
	Quarantine   int `json:"quarantine"`
}

// RecallSummary totals a recall simulation
type RecallSummary struct {
	TotalAffectedLPs    int             `json:"total_affected_lps"`
	TotalQuantity       decimal.Decimal `json:"total_quantity"`
	TotalEstimatedValue decimal.Decimal `json:"total_estimated_value"`
	AffectedWarehouses  int             `json:"affected_warehouses"`
	AffectedCustomers   int             `json:"affected_customers"`
	StatusBreakdown     StatusBreakdown `json:"status_breakdown"`
}

// RecallLocation is affected stock held at one location
type RecallLocation struct {
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	LocationID    uuid.UUID       `json:"location_id"`
	LocationCode  string          `json:"location_code"`
	AffectedLPs   int             `json:"affected_lps"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// RecallCustomer is a customer who received affected material
type RecallCustomer struct {
	CustomerID         uuid.UUID       `json:"customer_id"`
	CustomerName       string          `json:"customer_name"`
	ContactEmail       string          `json:"contact_email"`
	ShippedQuantity    decimal.Decimal `json:"shipped_quantity"`
	ShippedValue       decimal.Decimal `json:"shipped_value"`
	ShipDate           time.Time       `json:"ship_date"`
	ShipmentNumbers    []string        `json:"shipment_numbers"`
	NotificationStatus string          `json:"notification_status"`
}

// RecallSimulation is the impact of recalling one plate and everything
// made from it
type RecallSimulation struct {
	SimulationID    uuid.UUID                 `json:"simulation_id"`
	RootLP          TraceNode                 `json:"root_lp"`
	BackwardTrace   []TraceNode               `json:"backward_trace"`
	ForwardTrace    []TraceNode               `json:"forward_trace"`
	Summary         RecallSummary             `json:"summary"`
	Locations       []RecallLocation          `json:"locations"`
	Customers       []RecallCustomer          `json:"customers"`
	Financial       services.RecallFinancial  `json:"financial"`
	Regulatory      services.RecallRegulatory `json:"regulatory"`
	ExecutionTimeMS int64                     `json:"execution_time_ms"`
	CreatedAt       time.Time                 `json:"created_at"`
}
