package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStock is an overview row grouped by product
type ProductStock struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductCode    string          `json:"product_code"`
	ProductName    string          `json:"product_name"`
	UOM            string          `json:"uom"`
	AvailableQty   decimal.Decimal `json:"available_qty"`
	ReservedQty    decimal.Decimal `json:"reserved_qty"`
	BlockedQty     decimal.Decimal `json:"blocked_qty"`
	TotalQty       decimal.Decimal `json:"total_qty"`
	LPCount        int             `json:"lp_count"`
	LocationsCount int             `json:"locations_count"`
	AvgAgeDays     float64         `json:"avg_age_days"`
	TotalValue     decimal.Decimal `json:"total_value"`
}

// LocationStock is an overview row grouped by location
type LocationStock struct {
	LocationID    uuid.UUID       `json:"location_id"`
	LocationCode  string          `json:"location_code"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	TotalLPs      int             `json:"total_lps"`
	ProductsCount int             `json:"products_count"`
	TotalQty      decimal.Decimal `json:"total_qty"`
}

// WarehouseStock is an overview row grouped by warehouse
type WarehouseStock struct {
	WarehouseID    uuid.UUID       `json:"warehouse_id"`
	WarehouseCode  string          `json:"warehouse_code"`
	TotalLPs       int             `json:"total_lps"`
	ProductsCount  int             `json:"products_count"`
	LocationsCount int             `json:"locations_count"`
	TotalQty       decimal.Decimal `json:"total_qty"`
	TotalValue     decimal.Decimal `json:"total_value"`
	ExpiringSoon   int             `json:"expiring_soon"`
	Expired        int             `json:"expired"`
}

// StockSummary totals an overview
type StockSummary struct {
	TotalLPs   int             `json:"total_lps"`
	TotalQty   decimal.Decimal `json:"total_qty"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// InventoryOverview is one page of grouped stock. Only the slice matching
// GroupBy is set.
type InventoryOverview struct {
	GroupBy    string           `json:"group_by"`
	Products   []ProductStock   `json:"products,omitempty"`
	Locations  []LocationStock  `json:"locations,omitempty"`
	Warehouses []WarehouseStock `json:"warehouses,omitempty"`
	Summary    StockSummary     `json:"summary"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// ExpiringLP is a plate close to or past its expiry
type ExpiringLP struct {
	LPID          uuid.UUID       `json:"lp_id"`
	LPNumber      string          `json:"lp_number"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductCode   string          `json:"product_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	UOM           string          `json:"uom"`
	LocationID    uuid.UUID       `json:"location_id"`
	ExpiryDate    time.Time       `json:"expiry_date"`
	DaysRemaining int             `json:"days_remaining"`
	Value         decimal.Decimal `json:"value"`
}
