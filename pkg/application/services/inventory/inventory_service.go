package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/dto"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
	"github.com/vsinha/monopilot/pkg/domain/services"
)

// Overview groupings
const (
	GroupByProduct   = "product"
	GroupByLocation  = "location"
	GroupByWarehouse = "warehouse"
)

// Filters narrows the stock a report looks at
type Filters struct {
	ProductID   *uuid.UUID `form:"product_id"`
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	LocationID  *uuid.UUID `form:"location_id"`
}

// OverviewRequest asks for one page of grouped stock
type OverviewRequest struct {
	GroupBy string `form:"group_by"`
	Filters
	shared.Page
}

// Service reports on stock on hand
type Service struct {
	lps       repositories.LicensePlateRepository
	products  repositories.ProductRepository
	locations repositories.LocationRepository
	orgs      repositories.OrganizationRepository
	aging     *services.AgingCalculator
	Now       func() time.Time
}

// NewService creates an inventory reporting service
func NewService(lps repositories.LicensePlateRepository, products repositories.ProductRepository, locations repositories.LocationRepository, orgs repositories.OrganizationRepository) *Service {
	return &Service{
		lps:       lps,
		products:  products,
		locations: locations,
		orgs:      orgs,
		aging:     services.NewAgingCalculator(),
		Now:       time.Now,
	}
}

// activeStock loads every plate still holding stock and its products
func (s *Service) activeStock(ctx context.Context, orgID uuid.UUID, f Filters) ([]*entities.LicensePlate, map[uuid.UUID]*entities.Product, error) {
	lps, _, err := s.lps.List(ctx, orgID, repositories.LPFilter{
		ProductID:   f.ProductID,
		WarehouseID: f.WarehouseID,
		LocationID:  f.LocationID,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stock: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(lps))
	for _, lp := range lps {
		ids = append(ids, lp.ProductID)
	}
	products, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}
	return lps, products, nil
}

// Aging buckets active stock by receipt age (FIFO) or time to expiry (FEFO).
// An empty strategy uses the org's picking strategy.
func (s *Service) Aging(ctx context.Context, orgID uuid.UUID, strategy entities.AllocationStrategy, f Filters) (*services.AgingReport, error) {
	if strategy == "" {
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return nil, err
		}
		strategy = settings.DefaultPickingStrategy
	}
	lps, products, err := s.activeStock(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	report, err := s.aging.Report(strategy, lps, products, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().
		Str("strategy", string(strategy)).
		Int("lps", report.TotalLPs).
		Msg("aging report built")
	return report, nil
}

func valueOf(lp *entities.LicensePlate, products map[uuid.UUID]*entities.Product) decimal.Decimal {
	if p := products[lp.ProductID]; p != nil {
		return lp.Quantity.Mul(p.UnitCost)
	}
	return decimal.Zero
}

// Overview groups active stock by product, location or warehouse
func (s *Service) Overview(ctx context.Context, orgID uuid.UUID, req OverviewRequest) (*dto.InventoryOverview, error) {
	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = GroupByProduct
	}
	if groupBy != GroupByProduct && groupBy != GroupByLocation && groupBy != GroupByWarehouse {
		return nil, entities.ValidationError("group_by must be product, location or warehouse, got %q", groupBy)
	}
	if req.Limit > shared.MaxPageSize {
		return nil, entities.ValidationError("limit cannot exceed %d", shared.MaxPageSize)
	}
	page := req.Page.Normalize()

	lps, products, err := s.activeStock(ctx, orgID, req.Filters)
	if err != nil {
		return nil, err
	}

	out := &dto.InventoryOverview{
		GroupBy: groupBy,
		Page:    page.Page,
		Limit:   page.Limit,
		Summary: dto.StockSummary{TotalQty: decimal.Zero, TotalValue: decimal.Zero},
	}
	for _, lp := range lps {
		out.Summary.TotalLPs++
		out.Summary.TotalQty = out.Summary.TotalQty.Add(lp.Quantity)
		out.Summary.TotalValue = out.Summary.TotalValue.Add(valueOf(lp, products))
	}

	switch groupBy {
	case GroupByProduct:
		rows := s.byProduct(lps, products)
		out.Total = len(rows)
		out.Products = shared.Window(rows, page)
	case GroupByLocation:
		rows, err := s.byLocation(ctx, orgID, lps)
		if err != nil {
			return nil, err
		}
		out.Total = len(rows)
		out.Locations = shared.Window(rows, page)
	case GroupByWarehouse:
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return nil, err
		}
		rows, err := s.byWarehouse(ctx, orgID, lps, products, settings.ExpiringSoonDays)
		if err != nil {
			return nil, err
		}
		out.Total = len(rows)
		out.Warehouses = shared.Window(rows, page)
	}
	return out, nil
}

func (s *Service) byProduct(lps []*entities.LicensePlate, products map[uuid.UUID]*entities.Product) []dto.ProductStock {
	now := s.Now().UTC()
	rows := make(map[uuid.UUID]*dto.ProductStock)
	locations := make(map[uuid.UUID]map[uuid.UUID]bool)
	ageSum := make(map[uuid.UUID]int)
	var order []uuid.UUID

	for _, lp := range lps {
		row, ok := rows[lp.ProductID]
		if !ok {
			row = &dto.ProductStock{
				ProductID:    lp.ProductID,
				UOM:          lp.UOM,
				AvailableQty: decimal.Zero,
				ReservedQty:  decimal.Zero,
				BlockedQty:   decimal.Zero,
				TotalQty:     decimal.Zero,
				TotalValue:   decimal.Zero,
			}
			if p := products[lp.ProductID]; p != nil {
				row.ProductCode, row.ProductName = p.Code, p.Name
			}
			rows[lp.ProductID] = row
			locations[lp.ProductID] = make(map[uuid.UUID]bool)
			order = append(order, lp.ProductID)
		}
		switch lp.Status {
		case entities.LPAvailable:
			row.AvailableQty = row.AvailableQty.Add(lp.Quantity)
		case entities.LPReserved:
			row.ReservedQty = row.ReservedQty.Add(lp.Quantity)
		case entities.LPBlocked:
			row.BlockedQty = row.BlockedQty.Add(lp.Quantity)
		}
		row.TotalQty = row.TotalQty.Add(lp.Quantity)
		row.TotalValue = row.TotalValue.Add(valueOf(lp, products))
		row.LPCount++
		locations[lp.ProductID][lp.LocationID] = true
		ageSum[lp.ProductID] += entities.DaysBetween(lp.CreatedAt, now)
	}

	out := make([]dto.ProductStock, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.LocationsCount = len(locations[id])
		avg := decimal.NewFromInt(int64(ageSum[id])).Div(decimal.NewFromInt(int64(row.LPCount))).Round(1)
		row.AvgAgeDays = avg.InexactFloat64()
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out
}

func (s *Service) byLocation(ctx context.Context, orgID uuid.UUID, lps []*entities.LicensePlate) ([]dto.LocationStock, error) {
	codes, warehouses, err := s.locationCodes(ctx, orgID)
	if err != nil {
		return nil, err
	}
	rows := make(map[uuid.UUID]*dto.LocationStock)
	productSet := make(map[uuid.UUID]map[uuid.UUID]bool)
	var order []uuid.UUID
	for _, lp := range lps {
		row, ok := rows[lp.LocationID]
		if !ok {
			row = &dto.LocationStock{
				LocationID:    lp.LocationID,
				LocationCode:  codes[lp.LocationID],
				WarehouseID:   lp.WarehouseID,
				WarehouseCode: warehouses[lp.WarehouseID],
				TotalQty:      decimal.Zero,
			}
			rows[lp.LocationID] = row
			productSet[lp.LocationID] = make(map[uuid.UUID]bool)
			order = append(order, lp.LocationID)
		}
		row.TotalLPs++
		row.TotalQty = row.TotalQty.Add(lp.Quantity)
		productSet[lp.LocationID][lp.ProductID] = true
	}
	out := make([]dto.LocationStock, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.ProductsCount = len(productSet[id])
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LocationCode < out[j].LocationCode })
	return out, nil
}

func (s *Service) byWarehouse(ctx context.Context, orgID uuid.UUID, lps []*entities.LicensePlate, products map[uuid.UUID]*entities.Product, expiringSoonDays int) ([]dto.WarehouseStock, error) {
	_, warehouses, err := s.locationCodes(ctx, orgID)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	rows := make(map[uuid.UUID]*dto.WarehouseStock)
	productSet := make(map[uuid.UUID]map[uuid.UUID]bool)
	locationSet := make(map[uuid.UUID]map[uuid.UUID]bool)
	var order []uuid.UUID
	for _, lp := range lps {
		row, ok := rows[lp.WarehouseID]
		if !ok {
			row = &dto.WarehouseStock{
				WarehouseID:   lp.WarehouseID,
				WarehouseCode: warehouses[lp.WarehouseID],
				TotalQty:      decimal.Zero,
				TotalValue:    decimal.Zero,
			}
			rows[lp.WarehouseID] = row
			productSet[lp.WarehouseID] = make(map[uuid.UUID]bool)
			locationSet[lp.WarehouseID] = make(map[uuid.UUID]bool)
			order = append(order, lp.WarehouseID)
		}
		row.TotalLPs++
		row.TotalQty = row.TotalQty.Add(lp.Quantity)
		row.TotalValue = row.TotalValue.Add(valueOf(lp, products))
		productSet[lp.WarehouseID][lp.ProductID] = true
		locationSet[lp.WarehouseID][lp.LocationID] = true
		if lp.ExpiryDate != nil {
			d := entities.DaysBetween(now, *lp.ExpiryDate)
			switch {
			case d < 0:
				row.Expired++
			case d <= expiringSoonDays:
				row.ExpiringSoon++
			}
		}
	}
	out := make([]dto.WarehouseStock, 0, len(order))
	for _, id := range order {
		row := rows[id]
		row.ProductsCount = len(productSet[id])
		row.LocationsCount = len(locationSet[id])
		out = append(out, *row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WarehouseCode < out[j].WarehouseCode })
	return out, nil
}

func (s *Service) locationCodes(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	locs, err := s.locations.ListLocations(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load locations: %w", err)
	}
	whs, err := s.locations.ListWarehouses(ctx, orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load warehouses: %w", err)
	}
	locCodes := make(map[uuid.UUID]string, len(locs))
	for _, l := range locs {
		locCodes[l.ID] = l.Code
	}
	whCodes := make(map[uuid.UUID]string, len(whs))
	for _, w := range whs {
		whCodes[w.ID] = w.Code
	}
	return locCodes, whCodes, nil
}

// ExpiringSoon lists active plates expiring within days, soonest first,
// including plates already expired. A nil days uses the org setting.
func (s *Service) ExpiringSoon(ctx context.Context, orgID uuid.UUID, days *int) ([]dto.ExpiringLP, error) {
	window := 0
	if days == nil {
		settings, err := s.orgs.GetSettings(ctx, orgID)
		if err != nil {
			return nil, err
		}
		window = settings.ExpiringSoonDays
	} else {
		window = *days
	}
	if window < 0 || window > 365 {
		return nil, entities.ValidationError("days must be between 0 and 365, got %d", window)
	}

	now := s.Now().UTC()
	before := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, time.UTC).AddDate(0, 0, window)
	lps, _, err := s.lps.List(ctx, orgID, repositories.LPFilter{ExpiringBefore: &before, ActiveOnly: true, SortBy: "expiry_date"})
	if err != nil {
		return nil, fmt.Errorf("failed to load expiring stock: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(lps))
	for _, lp := range lps {
		ids = append(ids, lp.ProductID)
	}
	products, err := s.products.GetMany(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	out := make([]dto.ExpiringLP, 0, len(lps))
	for _, lp := range lps {
		row := dto.ExpiringLP{
			LPID:          lp.ID,
			LPNumber:      lp.LPNumber,
			ProductID:     lp.ProductID,
			Quantity:      lp.Quantity,
			UOM:           lp.UOM,
			LocationID:    lp.LocationID,
			ExpiryDate:    *lp.ExpiryDate,
			DaysRemaining: entities.DaysBetween(now, *lp.ExpiryDate),
			Value:         valueOf(lp, products),
		}
		if p := products[lp.ProductID]; p != nil {
			row.ProductCode = p.Code
		}
		out = append(out, row)
	}
	return out, nil
}
