package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/monopilot/pkg/infrastructure/testing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	org    string
}

func newAPI(t *testing.T) *apiClient {
	store := memory.NewStore()
	svc := orchestration.New(store.Repositories(), events.NewRecorder(store.Activity))
	svc.SetClock(func() time.Time { return fixtures.BaseDate })
	return &apiClient{t: t, router: NewRouter(svc, Options{Logger: zerolog.Nop()})}
}

func (a *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.org != "" {
		req.Header.Set(OrgHeader, a.org)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// onboard creates an organization and scopes later requests to it
func (a *apiClient) onboard(name string) *organization.OnboardResult {
	a.t.Helper()
	a.org = ""
	w := a.do(http.MethodPost, "/api/onboarding", gin.H{"name": name, "warehouse_name": "Main"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[organization.OnboardResult](a.t, w)
	a.org = res.Organization.ID.String()
	return &res
}

func TestRouter_Healthz(t *testing.T) {
	api := newAPI(t)
	w := api.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_RequiresOrganization(t *testing.T) {
	api := newAPI(t)

	tests := []struct {
		name   string
		org    string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "not-a-uuid", http.StatusUnauthorized},
		{"unknown organization", uuid.NewString(), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.org = tt.org
			w := api.do(http.MethodGet, "/api/technical/products", nil)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestRouter_LicensePlateLifecycle(t *testing.T) {
	api := newAPI(t)
	org := api.onboard("North Bakery")

	w := api.do(http.MethodPost, "/api/technical/products", gin.H{
		"code": "FLOUR", "name": "Wheat flour", "type": entities.RawMaterial, "uom": "KG",
		"unit_cost": "0.80", "shelf_life_days": 180,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	flour := decode[entities.Product](t, w)

	w = api.do(http.MethodPost, "/api/technical/products", gin.H{"name": "no code", "type": entities.RawMaterial, "uom": "KG"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, "/api/warehouse/license-plates", gin.H{
		"product_id": flour.ID, "quantity": 100, "location_id": org.Location.ID, "qa_status": entities.QAPassed,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lp := decode[entities.LicensePlate](t, w)
	assert.Equal(t, "LP00000001", lp.LPNumber)
	assert.Equal(t, entities.LPAvailable, lp.Status)

	w = api.do(http.MethodGet, "/api/warehouse/license-plates/"+lp.ID.String()+"/split-preview?quantity=40", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/warehouse/license-plates/"+lp.ID.String()+"/split", gin.H{"quantity": 40})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	split := decode[licenseplate.SplitResult](t, w)
	assert.Equal(t, "60", split.Source.Quantity.String())
	assert.Equal(t, "40", split.NewLP.Quantity.String())

	w = api.do(http.MethodGet, "/api/warehouse/license-plates/"+lp.ID.String()+"/genealogy?direction=forward", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tree := decode[dto.GenealogyTree](t, w)
	require.NotNil(t, tree.Descendants)
	assert.Nil(t, tree.Ancestors)
	assert.Equal(t, 1, tree.Descendants.TotalCount)
	assert.Equal(t, split.NewLP.ID, tree.Descendants.Nodes[0].LPID)

	w = api.do(http.MethodGet, "/api/warehouse/license-plates?status=available", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[licenseplate.ListResult](t, w)
	assert.Equal(t, 2, list.Total)

	w = api.do(http.MethodPut, "/api/warehouse/license-plates/"+split.NewLP.ID.String()+"/status", gin.H{"status": entities.LPConsumed})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(http.MethodPut, "/api/warehouse/license-plates/"+split.NewLP.ID.String()+"/status", gin.H{"status": entities.LPAvailable})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/api/warehouse/license-plates/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(http.MethodGet, "/api/warehouse/license-plates/LP00000001", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// another tenant cannot see the plate
	api.onboard("South Bakery")
	w = api.do(http.MethodGet, "/api/warehouse/license-plates/"+lp.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SettingsAndActivity(t *testing.T) {
	api := newAPI(t)
	api.onboard("North Bakery")

	w := api.do(http.MethodPut, "/api/settings/warehouse", gin.H{"lp_number_prefix": "PAL", "default_picking_strategy": entities.FEFO})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settings := decode[entities.WarehouseSettings](t, w)
	assert.Equal(t, "PAL", settings.LPNumberPrefix)
	assert.Equal(t, entities.FEFO, settings.DefaultPickingStrategy)

	w = api.do(http.MethodGet, "/api/warehouse/dashboard/activity?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/api/warehouse/dashboard/activity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"activities"`)

	w = api.do(http.MethodGet, "/api/warehouse/inventory/aging?strategy=fefo", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
