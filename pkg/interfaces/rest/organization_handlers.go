package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
)

// Onboard creates an organization with its first warehouse and location
func Onboard(svc *organization.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req organization.OnboardRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := svc.Onboard(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

func GetSettings(svc *organization.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := svc.GetSettings(c.Request.Context(), orgID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func UpdateSettings(svc *organization.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd organization.SettingsUpdate
		if !bindJSON(c, &upd) {
			return
		}
		settings, err := svc.UpdateSettings(c.Request.Context(), orgID(c), upd)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// CompleteOnboardingStep advances the onboarding wizard
func CompleteOnboardingStep(svc *organization.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		step, err := strconv.Atoi(c.Param("step"))
		if err != nil {
			badRequest(c, err)
			return
		}
		settings, err := svc.CompleteStep(c.Request.Context(), orgID(c), step)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
