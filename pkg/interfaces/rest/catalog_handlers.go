package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/monopilot/pkg/application/services/catalog"
)

func ListProducts(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListProducts(c.Request.Context(), orgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func CreateProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.ProductRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := svc.CreateProduct(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func GetProduct(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		p, err := svc.GetProduct(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func ListWarehouses(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		warehouses, err := svc.ListWarehouses(c.Request.Context(), orgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"warehouses": warehouses})
	}
}

func CreateWarehouse(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.WarehouseRequest
		if !bindJSON(c, &req) {
			return
		}
		w, err := svc.CreateWarehouse(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, w)
	}
}

func ListLocations(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		locations, err := svc.ListLocations(c.Request.Context(), orgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"locations": locations})
	}
}

func CreateLocation(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.LocationRequest
		if !bindJSON(c, &req) {
			return
		}
		loc, err := svc.CreateLocation(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, loc)
	}
}

func ListCustomers(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := svc.ListCustomers(c.Request.Context(), orgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customers": customers})
	}
}

func CreateCustomer(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.CustomerRequest
		if !bindJSON(c, &req) {
			return
		}
		cust, err := svc.CreateCustomer(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cust)
	}
}

func CreateBOM(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.BOMRequest
		if !bindJSON(c, &req) {
			return
		}
		bom, err := svc.CreateBOM(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, bom)
	}
}

func GetBOM(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		bom, err := svc.GetBOM(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bom)
	}
}

// UpdateBOM replaces a draft BOM's output and items
func UpdateBOM(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req catalog.BOMRequest
		if !bindJSON(c, &req) {
			return
		}
		bom, err := svc.UpdateBOM(c.Request.Context(), orgID(c), id, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bom)
	}
}

func ActivateBOM(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		bom, err := svc.ActivateBOM(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, bom)
	}
}

// BOMCost rolls up component costs for one BOM
func BOMCost(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		cost, err := svc.Cost(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cost)
	}
}
