package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/infrastructure/telemetry"
)

// Options configures NewRouter. Zero values are fine.
type Options struct {
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	// Health is consulted by /healthz, typically a database ping
	Health func(ctx context.Context) error
}

// NewRouter builds the JSON API over the service graph
func NewRouter(svc *orchestration.Services, opts Options) *gin.Engine {
	decimal.MarshalJSONWithoutQuotes = true

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(opts.Logger), Instrument(opts.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/onboarding", Onboard(svc.Organizations))

	scoped := api.Group("", RequireOrg(svc.Organizations))

	settings := scoped.Group("/settings")
	{
		settings.GET("/warehouse", GetSettings(svc.Organizations))
		settings.PUT("/warehouse", UpdateSettings(svc.Organizations))
		settings.POST("/onboarding/step/:step", CompleteOnboardingStep(svc.Organizations))
	}

	technical := scoped.Group("/technical")
	{
		technical.GET("/products", ListProducts(svc.Catalog))
		technical.POST("/products", CreateProduct(svc.Catalog))
		technical.GET("/products/:id", GetProduct(svc.Catalog))
		technical.POST("/boms", CreateBOM(svc.Catalog))
		technical.GET("/boms/:id", GetBOM(svc.Catalog))
		technical.PUT("/boms/:id", UpdateBOM(svc.Catalog))
		technical.POST("/boms/:id/activate", ActivateBOM(svc.Catalog))
		technical.GET("/boms/:id/cost", BOMCost(svc.Catalog))
		technical.POST("/traceability/recall", SimulateRecall(svc.Recall))
	}

	warehouse := scoped.Group("/warehouse")
	{
		warehouse.GET("/warehouses", ListWarehouses(svc.Catalog))
		warehouse.POST("/warehouses", CreateWarehouse(svc.Catalog))
		warehouse.GET("/locations", ListLocations(svc.Catalog))
		warehouse.POST("/locations", CreateLocation(svc.Catalog))

		lps := warehouse.Group("/license-plates")
		lps.GET("", ListLicensePlates(svc.LicensePlates))
		lps.POST("", CreateLicensePlate(svc.LicensePlates))
		lps.POST("/merge", MergeLicensePlates(svc.LicensePlates))
		lps.POST("/merge/validate", ValidateMerge(svc.LicensePlates))
		lps.GET("/:id", GetLicensePlate(svc.LicensePlates))
		lps.PUT("/:id/status", ChangeLPStatus(svc.LicensePlates))
		lps.PUT("/:id/qa-status", ChangeLPQAStatus(svc.LicensePlates))
		lps.GET("/:id/split-preview", PreviewSplit(svc.LicensePlates))
		lps.POST("/:id/split", SplitLicensePlate(svc.LicensePlates))
		lps.GET("/:id/genealogy", LicensePlateGenealogy(svc.Genealogy, opts.Metrics))

		warehouse.POST("/genealogy/links", CreateGenealogyLink(svc.Genealogy))
		warehouse.POST("/genealogy/links/:id/reverse", ReverseGenealogyLink(svc.Genealogy))

		warehouse.GET("/inventory", InventoryOverview(svc.Inventory))
		warehouse.GET("/inventory/aging", InventoryAging(svc.Inventory))
		warehouse.GET("/inventory/expiring", ExpiringInventory(svc.Inventory))
		warehouse.GET("/dashboard/activity", RecentActivity(svc.Activity))
	}

	shipping := scoped.Group("/shipping")
	{
		shipping.GET("/customers", ListCustomers(svc.Catalog))
		shipping.POST("/customers", CreateCustomer(svc.Catalog))

		orders := shipping.Group("/sales-orders")
		orders.GET("", ListSalesOrders(svc.Shipping))
		orders.POST("", CreateSalesOrder(svc.Shipping))
		orders.GET("/:id", GetSalesOrder(svc.Shipping))
		orders.PUT("/:id/lines", UpdateSalesOrderLines(svc.Shipping))
		orders.POST("/:id/status", ChangeSalesOrderStatus(svc.Shipping))
		orders.POST("/:id/clone", CloneSalesOrder(svc.Shipping))
		orders.GET("/:id/available-lps", AvailableLPs(svc.Shipping, svc.Allocation))
		orders.POST("/:id/allocate", AllocateSalesOrder(svc.Allocation))
		orders.POST("/:id/release", ReleaseAllocations(svc.Allocation))
		orders.POST("/:id/ship", ShipSalesOrder(svc.Shipping))
		orders.GET("/:id/shipments", ListShipments(svc.Shipping))

		rma := shipping.Group("/rma")
		rma.POST("", CreateRMA(svc.Shipping))
		rma.GET("/:id", GetRMA(svc.Shipping))
		rma.POST("/:id/approve", RMATransition(svc.Shipping.ApproveRMA))
		rma.POST("/:id/reject", RMATransition(svc.Shipping.RejectRMA))
		rma.POST("/:id/receive", ReceiveRMA(svc.Shipping))
		rma.POST("/:id/close", RMATransition(svc.Shipping.CloseRMA))
	}

	planning := scoped.Group("/planning")
	{
		wos := planning.Group("/work-orders")
		wos.GET("", ListWorkOrders(svc.Planning))
		wos.POST("", CreateWorkOrder(svc.Planning))
		wos.GET("/gantt", GanttChart(svc.Planning))
		wos.GET("/:id", GetWorkOrder(svc.Planning))
		wos.PUT("/:id", UpdateWorkOrder(svc.Planning))
		wos.POST("/:id/status", ChangeWorkOrderStatus(svc.Planning))
		wos.GET("/:id/availability", MaterialAvailability(svc.Planning))
		wos.POST("/:id/reservations", ReserveMaterial(svc.Planning))
		wos.DELETE("/:id/reservations/:lp_id", ReleaseReservation(svc.Planning))
		wos.POST("/:id/consume", RecordConsumption(svc.Planning))
		wos.POST("/:id/output", RegisterOutput(svc.Planning))
		wos.GET("/:id/genealogy", WorkOrderGenealogy(svc.Planning))
		wos.POST("/:id/reschedule", RescheduleWorkOrder(svc.Planning))

		planning.GET("/lines/:code/availability", LineAvailability(svc.Planning))
	}

	quality := scoped.Group("/quality")
	{
		quality.GET("/holds", ListHolds(svc.Quality))
		quality.POST("/holds", CreateHold(svc.Quality))
		quality.GET("/holds/:id", GetHold(svc.Quality))
		quality.POST("/holds/:id/release", ReleaseHold(svc.Quality))
	}

	return r
}
