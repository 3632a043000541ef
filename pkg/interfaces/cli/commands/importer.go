package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/application/services/catalog"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/licenseplate"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/infrastructure/repositories/csv"
)

// ImportSummary counts what an import created. Rows whose code or number
// already exists in the organization are skipped.
type ImportSummary struct {
	Warehouses    int `json:"warehouses"`
	Locations     int `json:"locations"`
	Products      int `json:"products"`
	BOMs          int `json:"boms"`
	LicensePlates int `json:"license_plates"`
	Links         int `json:"genealogy_links"`
	WorkOrders    int `json:"work_orders"`
	Skipped       int `json:"skipped"`
}

// Importer applies a CSV dataset to one organization. Catalog rows and
// plates go through the services so numbering, validation and activity
// behave as they do over HTTP. Plate statuses and work orders are seeded
// as recorded, bypassing the state machines.
type Importer struct {
	svc   *orchestration.Services
	repos repositories.Set

	warehouses map[string]*entities.Warehouse
	locations  map[string]*entities.Location
	products   map[string]*entities.Product
	plates     map[string]*entities.LicensePlate
}

// NewImporter creates an importer over the service graph built from repos
func NewImporter(svc *orchestration.Services, repos repositories.Set) *Importer {
	return &Importer{svc: svc, repos: repos}
}

// Import loads ds into orgID in dependency order
func (im *Importer) Import(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset) (*ImportSummary, error) {
	if err := im.index(ctx, orgID); err != nil {
		return nil, err
	}
	sum := &ImportSummary{}
	steps := []struct {
		name string
		run  func(context.Context, uuid.UUID, *csv.Dataset, *ImportSummary) error
	}{
		{"locations", im.importLocations},
		{"products", im.importProducts},
		{"boms", im.importBOMs},
		{"license plates", im.importLicensePlates},
		{"genealogy", im.importGenealogy},
		{"work orders", im.importWorkOrders},
	}
	for _, step := range steps {
		if err := step.run(ctx, orgID, ds, sum); err != nil {
			return sum, fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}
	zerolog.Ctx(ctx).Info().
		Str("org_id", orgID.String()).
		Int("products", sum.Products).
		Int("locations", sum.Locations).
		Int("license_plates", sum.LicensePlates).
		Int("genealogy_links", sum.Links).
		Int("work_orders", sum.WorkOrders).
		Int("skipped", sum.Skipped).
		Msg("import complete")
	return sum, nil
}

// index caches what the organization already has, keyed by code
func (im *Importer) index(ctx context.Context, orgID uuid.UUID) error {
	im.warehouses = make(map[string]*entities.Warehouse)
	im.locations = make(map[string]*entities.Location)
	im.products = make(map[string]*entities.Product)
	im.plates = make(map[string]*entities.LicensePlate)

	warehouses, err := im.svc.Catalog.ListWarehouses(ctx, orgID)
	if err != nil {
		return err
	}
	for _, w := range warehouses {
		im.warehouses[w.Code] = w
	}
	locations, err := im.svc.Catalog.ListLocations(ctx, orgID)
	if err != nil {
		return err
	}
	for _, l := range locations {
		im.locations[l.Code] = l
	}
	products, err := im.svc.Catalog.ListProducts(ctx, orgID)
	if err != nil {
		return err
	}
	for _, p := range products {
		im.products[p.Code] = p
	}
	return nil
}

func (im *Importer) importLocations(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	for _, row := range ds.Locations {
		w, ok := im.warehouses[row.WarehouseCode]
		if !ok {
			created, err := im.svc.Catalog.CreateWarehouse(ctx, orgID, catalog.WarehouseRequest{Code: row.WarehouseCode, Name: row.WarehouseCode})
			if err != nil {
				return err
			}
			w = created
			im.warehouses[w.Code] = w
			sum.Warehouses++
		}
		if _, ok := im.locations[row.LocationCode]; ok {
			sum.Skipped++
			continue
		}
		loc, err := im.svc.Catalog.CreateLocation(ctx, orgID, catalog.LocationRequest{
			WarehouseID: w.ID,
			Code:        row.LocationCode,
			Name:        row.Name,
			Type:        row.Type,
		})
		if err != nil {
			return fmt.Errorf("location %s: %w", row.LocationCode, err)
		}
		im.locations[loc.Code] = loc
		sum.Locations++
	}
	return nil
}

func (im *Importer) importProducts(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	for _, row := range ds.Products {
		if _, ok := im.products[row.Code]; ok {
			sum.Skipped++
			continue
		}
		p, err := im.svc.Catalog.CreateProduct(ctx, orgID, catalog.ProductRequest{
			Code:          row.Code,
			Name:          row.Name,
			Type:          row.Type,
			UOM:           row.UOM,
			UnitCost:      row.UnitCost,
			UnitPrice:     row.UnitPrice,
			ShelfLifeDays: row.ShelfLifeDays,
		})
		if err != nil {
			return fmt.Errorf("product %s: %w", row.Code, err)
		}
		im.products[p.Code] = p
		sum.Products++
	}
	return nil
}

func (im *Importer) product(code string) (*entities.Product, error) {
	p, ok := im.products[code]
	if !ok {
		return nil, entities.NotFoundError("product %s not found", code)
	}
	return p, nil
}

// importBOMs creates and activates one BOM per product, components in file
// order. Products that already have an active BOM are skipped.
func (im *Importer) importBOMs(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	var order []string
	reqs := make(map[string]*catalog.BOMRequest)
	for _, row := range ds.BOMs {
		parent, err := im.product(row.ProductCode)
		if err != nil {
			return err
		}
		component, err := im.product(row.ComponentCode)
		if err != nil {
			return err
		}
		req, ok := reqs[row.ProductCode]
		if !ok {
			req = &catalog.BOMRequest{ProductID: parent.ID, OutputQty: row.OutputQty}
			reqs[row.ProductCode] = req
			order = append(order, row.ProductCode)
		}
		req.Items = append(req.Items, catalog.BOMItemRequest{
			ComponentID: component.ID,
			Quantity:    row.Quantity,
			ScrapPct:    row.ScrapPct,
		})
	}

	for _, code := range order {
		req := reqs[code]
		if _, err := im.svc.Catalog.ActiveBOM(ctx, orgID, req.ProductID); err == nil {
			sum.Skipped++
			continue
		} else if !errors.Is(err, entities.ErrNotFound) {
			return err
		}
		bom, err := im.svc.Catalog.CreateBOM(ctx, orgID, *req)
		if err != nil {
			return fmt.Errorf("bom %s: %w", code, err)
		}
		if _, err := im.svc.Catalog.ActivateBOM(ctx, orgID, bom.ID); err != nil {
			return fmt.Errorf("bom %s: %w", code, err)
		}
		sum.BOMs++
	}
	return nil
}

func (im *Importer) importLicensePlates(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	for _, row := range ds.LicensePlates {
		if existing, err := im.svc.LicensePlates.GetByNumber(ctx, orgID, row.LPNumber); err == nil {
			im.plates[row.LPNumber] = existing
			sum.Skipped++
			continue
		} else if !errors.Is(err, entities.ErrNotFound) {
			return err
		}

		p, err := im.product(row.ProductCode)
		if err != nil {
			return err
		}
		loc, ok := im.locations[row.LocationCode]
		if !ok {
			return entities.NotFoundError("location %s not found", row.LocationCode)
		}
		received := row.ReceivedDate
		lp, err := im.svc.LicensePlates.Create(ctx, orgID, licenseplate.CreateRequest{
			LPNumber:    row.LPNumber,
			ProductID:   p.ID,
			Quantity:    row.Quantity,
			UOM:         p.UOM,
			LocationID:  loc.ID,
			BatchNumber: row.BatchNumber,
			ExpiryDate:  row.ExpiryDate,
			Source:      entities.SourceReceipt,
			QAStatus:    row.QAStatus,
			ReceivedAt:  &received,
		})
		if err != nil {
			return fmt.Errorf("license plate %s: %w", row.LPNumber, err)
		}
		if row.Status != "" && row.Status != lp.Status {
			lp.Status = row.Status
			if err := im.repos.LicensePlates.Update(ctx, lp); err != nil {
				return fmt.Errorf("license plate %s: %w", row.LPNumber, err)
			}
		}
		im.plates[lp.LPNumber] = lp
		sum.LicensePlates++
	}
	return nil
}

func (im *Importer) plate(ctx context.Context, orgID uuid.UUID, number string) (*entities.LicensePlate, error) {
	if lp, ok := im.plates[number]; ok {
		return lp, nil
	}
	lp, err := im.svc.LicensePlates.GetByNumber(ctx, orgID, number)
	if err != nil {
		return nil, err
	}
	im.plates[number] = lp
	return lp, nil
}

func (im *Importer) importGenealogy(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	for _, row := range ds.Genealogy {
		parent, err := im.plate(ctx, orgID, row.ParentLP)
		if err != nil {
			return err
		}
		child, err := im.plate(ctx, orgID, row.ChildLP)
		if err != nil {
			return err
		}
		_, err = im.svc.Genealogy.Link(ctx, orgID, row.Operation, genealogy.LinkRequest{
			ParentLPID: parent.ID,
			ChildLPID:  child.ID,
			Quantity:   row.Quantity,
		})
		if errors.Is(err, entities.ErrConflict) {
			sum.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("link %s -> %s: %w", row.ParentLP, row.ChildLP, err)
		}
		sum.Links++
	}
	return nil
}

// importWorkOrders stores orders with their recorded status and progress
func (im *Importer) importWorkOrders(ctx context.Context, orgID uuid.UUID, ds *csv.Dataset, sum *ImportSummary) error {
	for _, row := range ds.WorkOrders {
		p, err := im.product(row.ProductCode)
		if err != nil {
			return err
		}
		var bomID *uuid.UUID
		if bom, err := im.svc.Catalog.ActiveBOM(ctx, orgID, p.ID); err == nil {
			bomID = &bom.ID
		}
		wo, err := entities.NewWorkOrder(orgID, row.WONumber, p.ID, bomID, row.PlannedQty, entities.PriorityNormal, im.svc.Planning.Now().UTC())
		if err != nil {
			return fmt.Errorf("work order %s: %w", row.WONumber, err)
		}
		wo.Status = row.Status
		wo.ProducedQty = row.ProducedQty
		wo.LineCode = row.LineCode
		wo.ScheduledStart = row.ScheduledStart
		wo.ScheduledEnd = row.ScheduledEnd
		if err := im.svc.Numbers.ObserveYearly(ctx, orgID, shared.KindWorkOrder, wo.WONumber); err != nil {
			return err
		}
		err = im.repos.WorkOrders.Create(ctx, wo)
		if errors.Is(err, entities.ErrConflict) {
			sum.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("work order %s: %w", row.WONumber, err)
		}
		sum.WorkOrders++
	}
	return nil
}
