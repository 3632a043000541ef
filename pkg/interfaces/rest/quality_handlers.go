package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/monopilot/pkg/application/services/quality"
	"github.com/vsinha/monopilot/pkg/domain/entities"
)

func ListHolds(svc *quality.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		holds, err := svc.ListHolds(c.Request.Context(), orgID(c), entities.HoldStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"holds": holds})
	}
}

// CreateHold blocks the given plates pending investigation
func CreateHold(svc *quality.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req quality.HoldRequest
		if !bindJSON(c, &req) {
			return
		}
		hold, err := svc.CreateHold(c.Request.Context(), orgID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, hold)
	}
}

func GetHold(svc *quality.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		hold, err := svc.GetHold(c.Request.Context(), orgID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hold)
	}
}

type releaseHoldBody struct {
	Notes string `json:"notes"`
}

func ReleaseHold(svc *quality.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var body releaseHoldBody
		if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
			return
		}
		hold, err := svc.ReleaseHold(c.Request.Context(), orgID(c), id, body.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, hold)
	}
}
