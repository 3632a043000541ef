package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/monopilot/pkg/application/services/activity"
	"github.com/vsinha/monopilot/pkg/application/services/inventory"
	"github.com/vsinha/monopilot/pkg/application/services/recall"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

func inventoryFilters(c *gin.Context) (inventory.Filters, error) {
	var f inventory.Filters
	var err error
	if f.ProductID, err = queryUUID(c, "product_id"); err != nil {
		return f, err
	}
	if f.WarehouseID, err = queryUUID(c, "warehouse_id"); err != nil {
		return f, err
	}
	f.LocationID, err = queryUUID(c, "location_id")
	return f, err
}

// InventoryOverview groups on-hand stock by product, location or warehouse
func InventoryOverview(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := inventoryFilters(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		page, err := queryPage(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Overview(c.Request.Context(), orgID(c), inventory.OverviewRequest{
			GroupBy: c.Query("group_by"),
			Filters: filters,
			Page:    page,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// InventoryAging buckets stock by receipt age (FIFO) or time to expiry (FEFO)
func InventoryAging(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := inventoryFilters(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		strategy := entities.AllocationStrategy(strings.ToUpper(c.DefaultQuery("strategy", string(entities.FIFO))))
		report, err := svc.Aging(c.Request.Context(), orgID(c), strategy, filters)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func ExpiringInventory(svc *inventory.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := queryInt(c, "days")
		if err != nil {
			badRequest(c, err)
			return
		}
		lps, err := svc.ExpiringSoon(c.Request.Context(), orgID(c), days)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"license_plates": lps})
	}
}

// RecentActivity feeds the warehouse dashboard
func RecentActivity(svc *activity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := queryInt(c, "limit")
		if err != nil {
			badRequest(c, err)
			return
		}
		n := 0
		if limit != nil {
			n = *limit
		}
		events, err := svc.Recent(c.Request.Context(), orgID(c), n, queryList[entities.ActivityType](c, "types"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"activities": events})
	}
}

// SimulateRecall estimates the reach and cost of recalling a plate
func SimulateRecall(svc *recall.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recall.SimulateRequest
		if !bindJSON(c, &req) {
			return
		}
		sim, err := svc.Simulate(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, sim)
	}
}
