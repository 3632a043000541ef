package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

// TraceNode is one license plate reached by a genealogy trace
type TraceNode struct {
	LPID          uuid.UUID              `json:"lp_id"`
	LPNumber      string                 `json:"lp_number"`
	ProductID     uuid.UUID              `json:"product_id"`
	ProductCode   string                 `json:"product_code"`
	ProductName   string                 `json:"product_name"`
	BatchNumber   string                 `json:"batch_number,omitempty"`
	ExpiryDate    *time.Time             `json:"expiry_date,omitempty"`
	Quantity      decimal.Decimal        `json:"quantity"`
	UOM           string                 `json:"uom"`
	Status        entities.LPStatus      `json:"status"`
	QAStatus      entities.QAStatus      `json:"qa_status"`
	LocationID    uuid.UUID              `json:"location_id"`
	WarehouseID   uuid.UUID              `json:"warehouse_id"`
	OperationType entities.OperationType `json:"operation_type,omitempty"`
	LinkQuantity  decimal.Decimal        `json:"link_quantity"`
	Depth         int                    `json:"depth"`
	ParentID      *uuid.UUID             `json:"parent_id,omitempty"`
}

// TraceResult is a forward or backward trace from one plate
type TraceResult struct {
	RootLPID      uuid.UUID               `json:"root_lp_id"`
	Direction     entities.TraceDirection `json:"direction"`
	MaxDepth      int                     `json:"max_depth"`
	Nodes         []TraceNode             `json:"nodes"`
	TotalCount    int                     `json:"total_count"`
	HasMoreLevels bool                    `json:"has_more_levels"`
}

// GenealogyTree is the root plate with its ancestors and descendants
type GenealogyTree struct {
	Root        TraceNode    `json:"root"`
	Ancestors   *TraceResult `json:"ancestors,omitempty"`
	Descendants *TraceResult `json:"descendants,omitempty"`
}

// WorkOrderGenealogy groups a work order's links by operation
type WorkOrderGenealogy struct {
	WorkOrderID uuid.UUID                                            `json:"work_order_id"`
	Links       map[entities.OperationType][]*entities.GenealogyLink `json:"links"`
	TotalLinks  int                                                  `json:"total_links"`
}
