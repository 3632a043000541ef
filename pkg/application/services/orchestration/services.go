package orchestration

import (
	"time"

	"github.com/vsinha/monopilot/pkg/application/services/activity"
	"github.com/vsinha/monopilot/pkg/application/services/allocation"
	"github.com/vsinha/monopilot/pkg/application/services/catalog"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/inventory"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/application/services/organization"
	"github.com/vsinha/monopilot/pkg/application/services/planning"
	"github.com/vsinha/monopilot/pkg/application/services/quality"
	"github.com/vsinha/monopilot/pkg/application/services/recall"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/application/services/shipping"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// Services wires every application service over one repository set so the
// HTTP layer, the CLI and the importer share the same graph
type Services struct {
	Organizations *organization.Service
	Catalog       *catalog.Service
	LicensePlates *licenseplate.Service
	Genealogy     *genealogy.Service
	Inventory     *inventory.Service
	Allocation    *allocation.Service
	Shipping      *shipping.Service
	Planning      *planning.Service
	Quality       *quality.Service
	Recall        *recall.Service
	Activity      *activity.Service

	// Numbers is shared by every service that issues document numbers
	Numbers *shared.Numberer
}

// New builds the service graph. Every state change is published to
// publisher.
func New(repos repositories.Set, publisher shared.Publisher) *Services {
	numbers := shared.NewNumberer(repos.Sequences)
	genealogySvc := genealogy.NewService(repos.Genealogy, repos.LicensePlates, repos.Products, publisher)

	return &Services{
		Organizations: organization.NewService(repos.Organizations, repos.Locations, repos.Transactor),
		Catalog:       catalog.NewService(repos.Products, repos.Locations, repos.Customers, repos.BOMs, repos.Transactor),
		LicensePlates: licenseplate.NewService(repos.LicensePlates, repos.Allocations, repos.Products, repos.Locations, repos.Organizations,
			repos.Transactor, numbers, genealogySvc, publisher),
		Genealogy:  genealogySvc,
		Inventory:  inventory.NewService(repos.LicensePlates, repos.Products, repos.Locations, repos.Organizations),
		Allocation: allocation.NewService(repos.Allocations, repos.SalesOrders, repos.LicensePlates, repos.Organizations, repos.Transactor, publisher),
		Shipping: shipping.NewService(shipping.Repositories{
			Orders:      repos.SalesOrders,
			Customers:   repos.Customers,
			Products:    repos.Products,
			Allocations: repos.Allocations,
			Shipments:   repos.Shipments,
			RMAs:        repos.RMAs,
			LPs:         repos.LicensePlates,
			Locations:   repos.Locations,
			Orgs:        repos.Organizations,
		}, repos.Transactor, numbers, publisher),
		Planning: planning.NewService(planning.Repositories{
			WorkOrders:  repos.WorkOrders,
			Products:    repos.Products,
			BOMs:        repos.BOMs,
			LPs:         repos.LicensePlates,
			Allocations: repos.Allocations,
			Locations:   repos.Locations,
			Orgs:        repos.Organizations,
		}, repos.Transactor, numbers, genealogySvc, publisher),
		Quality: quality.NewService(repos.QualityHolds, repos.LicensePlates, repos.Transactor, numbers, publisher),
		Recall: recall.NewService(genealogySvc, repos.LicensePlates, repos.Products, repos.Locations,
			repos.Shipments, repos.Customers, publisher),
		Activity: activity.NewService(repos.Activity),
		Numbers:  numbers,
	}
}

// SetClock points every service's clock at now
func (s *Services) SetClock(now func() time.Time) {
	s.Organizations.Now = now
	s.Catalog.Now = now
	s.LicensePlates.Now = now
	s.Genealogy.Now = now
	s.Inventory.Now = now
	s.Allocation.Now = now
	s.Shipping.Now = now
	s.Planning.Now = now
	s.Quality.Now = now
	s.Recall.Now = now
}
