package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func ListLicensePlates(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := lpListRequest(c)
		if err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.List(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func lpListRequest(c *gin.Context) (licenseplate.ListRequest, error) {
	req := licenseplate.ListRequest{
		Statuses:   queryList[entities.LPStatus](c, "status"),
		QAStatuses: queryList[entities.QAStatus](c, "qa_status"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
	}
	var err error
	if req.ProductID, err = queryUUID(c, "product_id"); err != nil {
		return req, err
	}
	if req.WarehouseID, err = queryUUID(c, "warehouse_id"); err != nil {
		return req, err
	}
	if req.LocationID, err = queryUUID(c, "location_id"); err != nil {
		return req, err
	}
	if req.ExpiringWithinDays, err = queryInt(c, "expiring_within_days"); err != nil {
		return req, err
	}
	if req.SortDesc, err = queryBool(c, "sort_desc"); err != nil {
		return req, err
	}
	req.Page, err = queryPage(c)
	return req, err
}

func CreateLicensePlate(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req licenseplate.CreateRequest
		if !bindJSON(c, &req) {
			return
		}
		lp, err := svc.Create(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lp)
	}
}

func GetLicensePlate(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		lp, err := svc.Get(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lp)
	}
}

type lpStatusBody struct {
	Status entities.LPStatus `json:"status" binding:"required"`
}

func ChangeLPStatus(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body lpStatusBody
		if !bindJSON(c, &body) {
			return
		}
		lp, err := svc.ChangeStatus(c.Request.Context(), orgID(c), id, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lp)
	}
}

type qaStatusBody struct {
	QAStatus entities.QAStatus `json:"qa_status" binding:"required"`
}

func ChangeLPQAStatus(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body qaStatusBody
		if !bindJSON(c, &body) {
			return
		}
		lp, err := svc.ChangeQAStatus(c.Request.Context(), orgID(c), id, body.QAStatus)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lp)
	}
}

// PreviewSplit shows the result of a split without applying it
func PreviewSplit(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		qty, err := decimal.NewFromString(c.Query("quantity"))
		if err != nil {
			badRequest(c, fmt.Errorf("invalid quantity: %q", c.Query("quantity")))
			return
		}
		preview, err := svc.PreviewSplit(c.Request.Context(), orgID(c), id, qty)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func SplitLicensePlate(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req licenseplate.SplitRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Split(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// ValidateMerge reports every rule a merge of the given plates would break
func ValidateMerge(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req licenseplate.MergeRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.ValidateMerge(c.Request.Context(), orgID(c), req.LPIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func MergeLicensePlates(svc *licenseplate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req licenseplate.MergeRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Merge(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// LicensePlateGenealogy returns the ancestors and descendants of a plate
func LicensePlateGenealogy(svc *genealogy.Service, m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		opts := genealogy.TraceOptions{Direction: entities.TraceDirection(c.Query("direction"))}
		depth, err := queryInt(c, "max_depth")
		if err != nil {
			badRequest(c, err)
			return
		}
		if depth != nil {
			opts.MaxDepth = *depth
		}
		if opts.IncludeReversed, err = queryBool(c, "include_reversed"); err != nil {
			badRequest(c, err)
			return
		}

		start := time.Now()
		tree, err := svc.FullTree(c.Request.Context(), orgID(c), id, opts)
		if m != nil {
			dir := string(opts.Direction)
			if dir == "" {
				dir = string(entities.TraceBoth)
			}
			attrs := metric.WithAttributes(attribute.String("direction", dir))
			m.TraceQueries.Add(c.Request.Context(), 1, attrs)
			m.TraceDuration.Record(c.Request.Context(), time.Since(start).Seconds(), attrs)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tree)
	}
}

type linkBody struct {
	OperationType entities.OperationType `json:"operation_type" binding:"required"`
	genealogy.LinkRequest
}

// CreateGenealogyLink records a manual parent to child link
func CreateGenealogyLink(svc *genealogy.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body linkBody
		if !bindJSON(c, &body) {
			return
		}
		link, err := svc.Link(c.Request.Context(), orgID(c), body.OperationType, body.LinkRequest)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	}
}

func ReverseGenealogyLink(svc *genealogy.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		link, err := svc.ReverseLink(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}
