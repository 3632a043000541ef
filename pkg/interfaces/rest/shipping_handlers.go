package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/application/services/allocation"
	"github.com/vsinha/monopilot/pkg/application/services/shipping"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

func ListSalesOrders(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		customer, err := queryUUID(c, "customer_id")
		if err != nil {
			badRequest(c, err)
			return
		}
		page, err := queryPage(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.ListSalesOrders(c.Request.Context(), orgID(c), shipping.ListRequest{
			CustomerID: customer,
			Statuses:   queryList[entities.SOStatus](c, "status"),
			Page:       page,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func CreateSalesOrder(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req shipping.SalesOrderRequest
		if !bindJSON(c, &req) {
			return
		}
		so, err := svc.CreateSalesOrder(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, so)
	}
}

func GetSalesOrder(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		so, err := svc.GetSalesOrder(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, so)
	}
}

type linesBody struct {
	Lines []shipping.LineRequest `json:"lines"`
}

// UpdateSalesOrderLines replaces the lines of a draft order
func UpdateSalesOrderLines(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body linesBody
		if !bindJSON(c, &body) {
			return
		}
		so, err := svc.UpdateLines(c.Request.Context(), orgID(c), id, body.Lines)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, so)
	}
}

type soStatusBody struct {
	Status entities.SOStatus `json:"status" binding:"required"`
}

func ChangeSalesOrderStatus(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body soStatusBody
		if !bindJSON(c, &body) {
			return
		}
		so, err := svc.ChangeStatus(c.Request.Context(), orgID(c), id, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, so)
	}
}

func CloneSalesOrder(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		so, err := svc.Clone(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, so)
	}
}

// AvailableLPs lists plates that could fill a line of the order
func AvailableLPs(orders *shipping.Service, svc *allocation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		product, err := queryUUID(c, "product_id")
		if err != nil {
			badRequest(c, err)
			return
		}
		if product == nil {
			badRequest(c, fmt.Errorf("product_id is required"))
			return
		}
		if _, err := orders.GetSalesOrder(c.Request.Context(), orgID(c), id); err != nil {
			respondError(c, err)
			return
		}
		strategy := entities.AllocationStrategy(strings.ToUpper(c.Query("strategy")))
		lps, err := svc.AvailableLPs(c.Request.Context(), orgID(c), *product, strategy)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"license_plates": lps})
	}
}

func AllocateSalesOrder(svc *allocation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req allocation.AllocateRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}
		res, err := svc.AllocateSalesOrder(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func ReleaseAllocations(svc *allocation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req allocation.ReleaseRequest
		if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
			return
		}
		res, err := svc.Release(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func ShipSalesOrder(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		shipment, err := svc.Ship(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, shipment)
	}
}

func ListShipments(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		shipments, err := svc.Shipments(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shipments": shipments})
	}
}

func CreateRMA(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req shipping.RMARequest
		if !bindJSON(c, &req) {
			return
		}
		rma, err := svc.CreateRMA(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rma)
	}
}

func GetRMA(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rma, err := svc.GetRMA(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rma)
	}
}

// RMATransition applies a status change such as svc.ApproveRMA
func RMATransition(apply func(ctx context.Context, orgID, id uuid.UUID) (*entities.RMA, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		rma, err := apply(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rma)
	}
}

// ReceiveRMA books returned goods into blocked, quarantined plates
func ReceiveRMA(svc *shipping.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req shipping.ReceiveRequest
		if !bindJSON(c, &req) {
			return
		}
		rma, lps, err := svc.ReceiveRMA(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rma": rma, "license_plates": lps})
	}
}
