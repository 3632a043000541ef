package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

func ListWorkOrders(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repositories.WOFilter{
			Statuses: queryList[entities.WOStatus](c, "status"),
			LineCode: c.Query("line"),
		}
		var err error
		if filter.From, err = queryDate(c, "from"); err != nil {
			badRequest(c, err)
			return
		}
		if filter.To, err = queryDate(c, "to"); err != nil {
			badRequest(c, err)
			return
		}
		orders, err := svc.ListWorkOrders(c.Request.Context(), orgID(c), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"work_orders": orders})
	}
}

func CreateWorkOrder(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req planning.WorkOrderRequest
		if !bindJSON(c, &req) {
			return
		}
		wo, err := svc.CreateWorkOrder(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, wo)
	}
}

func GetWorkOrder(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		wo, err := svc.GetWorkOrder(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

func UpdateWorkOrder(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req planning.WorkOrderRequest
		if !bindJSON(c, &req) {
			return
		}
		wo, err := svc.UpdateWorkOrder(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

type woStatusBody struct {
	Status entities.WOStatus `json:"status" binding:"required"`
}

func ChangeWorkOrderStatus(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body woStatusBody
		if !bindJSON(c, &body) {
			return
		}
		wo, err := svc.ChangeStatus(c.Request.Context(), orgID(c), id, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

// MaterialAvailability checks BOM requirements against usable stock
func MaterialAvailability(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		av, err := svc.Availability(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, av)
	}
}

func ReserveMaterial(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req planning.ReserveRequest
		if !bindJSON(c, &req) {
			return
		}
		wo, err := svc.Reserve(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, wo)
	}
}

func ReleaseReservation(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		lpID, ok := pathID(c, "lp_id")
		if !ok {
			return
		}
		wo, err := svc.ReleaseReservation(c.Request.Context(), orgID(c), id, lpID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

func RecordConsumption(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req planning.ConsumeRequest
		if !bindJSON(c, &req) {
			return
		}
		wo, err := svc.RecordConsumption(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

func RegisterOutput(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req planning.OutputRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.RegisterOutput(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func WorkOrderGenealogy(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		g, err := svc.Genealogy(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

func RescheduleWorkOrder(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req planning.RescheduleRequest
		if !bindJSON(c, &req) {
			return
		}
		wo, err := svc.Reschedule(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, wo)
	}
}

// GanttChart returns scheduled work orders grouped into production line lanes
func GanttChart(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := planning.GanttRequest{
			Statuses: queryList[entities.WOStatus](c, "status"),
			LineCode: c.Query("line"),
		}
		var err error
		if req.From, err = queryDate(c, "from"); err != nil {
			badRequest(c, err)
			return
		}
		if req.To, err = queryDate(c, "to"); err != nil {
			badRequest(c, err)
			return
		}
		g, err := svc.Gantt(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

// LineAvailability reports work orders that overlap a window on a line
func LineAvailability(svc *planning.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start, err := queryDate(c, "start")
		if err != nil {
			badRequest(c, err)
			return
		}
		end, err := queryDate(c, "end")
		if err != nil {
			badRequest(c, err)
			return
		}
		if start == nil || end == nil {
			badRequest(c, fmt.Errorf("start and end are required"))
			return
		}
		exclude, err := queryUUID(c, "exclude_wo_id")
		if err != nil {
			badRequest(c, err)
			return
		}
		av, err := svc.CheckLineAvailability(c.Request.Context(), orgID(c), c.Param("code"), *start, *end, exclude)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, av)
	}
}
