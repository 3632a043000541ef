package licenseplate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vsinha/monopilot/pkg/application/services/genealogy"
	"github.com/vsinha/monopilot/pkg/application/services/shared"
	"github.com/vsinha/monopilot/pkg/domain/entities"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// CreateRequest receives a new plate into a location
type CreateRequest struct {
	LPNumber          string            `json:"lp_number,omitempty"`
	ProductID         uuid.UUID         `json:"product_id"`
	Quantity          decimal.Decimal   `json:"quantity"`
	UOM               string            `json:"uom,omitempty"`
	LocationID        uuid.UUID         `json:"location_id"`
	BatchNumber       string            `json:"batch_number,omitempty"`
	ExpiryDate        *time.Time        `json:"expiry_date,omitempty"`
	ManufacturingDate *time.Time        `json:"manufacturing_date,omitempty"`
	Source            entities.LPSource `json:"source,omitempty"`
	QAStatus          entities.QAStatus `json:"qa_status,omitempty"`
	ParentLPID        *uuid.UUID        `json:"parent_lp_id,omitempty"`
	WorkOrderID       *uuid.UUID        `json:"work_order_id,omitempty"`
	// ReceivedAt backdates the receipt, used by imports
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// ListRequest filters a plate listing
type ListRequest struct {
	ProductID          *uuid.UUID          `form:"product_id"`
	WarehouseID        *uuid.UUID          `form:"warehouse_id"`
	LocationID         *uuid.UUID          `form:"location_id"`
	Statuses           []entities.LPStatus `form:"status"`
	QAStatuses         []entities.QAStatus `form:"qa_status"`
	Search             string              `form:"search"`
	ExpiringWithinDays *int                `form:"expiring_within_days"`
	SortBy             string              `form:"sort_by"`
	SortDesc           bool                `form:"sort_desc"`
	shared.Page
}

// ListResult is one page of plates
type ListResult struct {
	Items []*entities.LicensePlate `json:"items"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

var sortable = map[string]bool{"": true, "lp_number": true, "quantity": true, "expiry_date": true, "created_at": true}

// Service manages license plates
type Service struct {
	lps         repositories.LicensePlateRepository
	allocations repositories.AllocationRepository
	products    repositories.ProductRepository
	locations   repositories.LocationRepository
	orgs        repositories.OrganizationRepository
	transactor  repositories.Transactor
	numbers     *shared.Numberer
	genealogy   *genealogy.Service
	publisher   shared.Publisher
	Now         func() time.Time
}

// NewService creates a license plate service
func NewService(
	lps repositories.LicensePlateRepository,
	allocations repositories.AllocationRepository,
	products repositories.ProductRepository,
	locations repositories.LocationRepository,
	orgs repositories.OrganizationRepository,
	transactor repositories.Transactor,
	numbers *shared.Numberer,
	genealogySvc *genealogy.Service,
	publisher shared.Publisher,
) *Service {
	return &Service{
		lps:         lps,
		allocations: allocations,
		products:    products,
		locations:   locations,
		orgs:        orgs,
		transactor:  transactor,
		numbers:     numbers,
		genealogy:   genealogySvc,
		publisher:   publisher,
		Now:         time.Now,
	}
}

// Create receives a plate. The number is generated from the org prefix when
// not supplied and expiry defaults to receipt + shelf life.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req CreateRequest) (*entities.LicensePlate, error) {
	product, err := s.products.Get(ctx, orgID, req.ProductID)
	if err != nil {
		return nil, err
	}
	loc, err := s.locations.GetLocation(ctx, orgID, req.LocationID)
	if err != nil {
		return nil, err
	}
	settings, err := s.orgs.GetSettings(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	receivedAt := now
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}
	uom := req.UOM
	if uom == "" {
		uom = product.UOM
	}
	source := req.Source
	if source == "" {
		source = entities.SourceReceipt
	}

	var lp *entities.LicensePlate
	err = s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		number := req.LPNumber
		if number == "" {
			if number, err = s.numbers.LPNumber(ctx, orgID, settings.LPNumberPrefix); err != nil {
				return err
			}
		} else if err := s.numbers.ObserveLPNumber(ctx, orgID, settings.LPNumberPrefix, number); err != nil {
			return err
		}

		lp, err = entities.NewLicensePlate(orgID, number, product.ID, req.Quantity, uom, loc.WarehouseID, loc.ID, source, receivedAt)
		if err != nil {
			return err
		}
		lp.BatchNumber = req.BatchNumber
		lp.ManufacturingDate = req.ManufacturingDate
		lp.ParentLPID = req.ParentLPID
		lp.WorkOrderID = req.WorkOrderID
		lp.ExpiryDate = req.ExpiryDate
		if lp.ExpiryDate == nil && product.ShelfLifeDays > 0 {
			expiry := receivedAt.AddDate(0, 0, product.ShelfLifeDays)
			lp.ExpiryDate = &expiry
		}
		if req.QAStatus != "" {
			if !req.QAStatus.Valid() {
				return entities.ValidationError("unknown qa status %q", req.QAStatus)
			}
			lp.QAStatus = req.QAStatus
		}
		return s.lps.Create(ctx, lp)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("lp_id", lp.ID.String()).
		Str("lp_number", lp.LPNumber).
		Str("quantity", lp.Quantity.String()).
		Msg("license plate created")
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPCreated, lp.ID,
		fmt.Sprintf("%s received: %s %s of %s", lp.LPNumber, lp.Quantity, lp.UOM, product.Code),
		map[string]any{"source": lp.Source})
	return lp, nil
}

// Get returns one plate
func (s *Service) Get(ctx context.Context, orgID, id uuid.UUID) (*entities.LicensePlate, error) {
	return s.lps.Get(ctx, orgID, id)
}

// GetByNumber returns the plate with the given number
func (s *Service) GetByNumber(ctx context.Context, orgID uuid.UUID, number string) (*entities.LicensePlate, error) {
	return s.lps.GetByNumber(ctx, orgID, number)
}

// List returns a filtered page of plates
func (s *Service) List(ctx context.Context, orgID uuid.UUID, req ListRequest) (*ListResult, error) {
	if !sortable[req.SortBy] {
		return nil, entities.ValidationError("cannot sort by %q", req.SortBy)
	}
	page := req.Page.Normalize()
	filter := repositories.LPFilter{
		ProductID:    req.ProductID,
		WarehouseID:  req.WarehouseID,
		LocationID:   req.LocationID,
		Statuses:     req.Statuses,
		QAStatuses:   req.QAStatuses,
		NumberPrefix: req.Search,
		SortBy:       req.SortBy,
		SortDesc:     req.SortDesc,
		Offset:       page.Offset(),
		Limit:        page.Limit,
	}
	if req.ExpiringWithinDays != nil {
		if *req.ExpiringWithinDays < 0 {
			return nil, entities.ValidationError("expiring_within_days cannot be negative")
		}
		before := s.Now().UTC().AddDate(0, 0, *req.ExpiringWithinDays)
		filter.ExpiringBefore = &before
		filter.ActiveOnly = true
	}
	items, total, err := s.lps.List(ctx, orgID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list license plates: %w", err)
	}
	return &ListResult{Items: items, Total: total, Page: page.Page, Limit: page.Limit}, nil
}

// ChangeStatus moves a plate through its status machine
func (s *Service) ChangeStatus(ctx context.Context, orgID, id uuid.UUID, next entities.LPStatus) (*entities.LicensePlate, error) {
	var lp *entities.LicensePlate
	var prev entities.LPStatus
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if lp, err = s.lps.Get(ctx, orgID, id); err != nil {
			return err
		}
		prev = lp.Status
		if err := lp.ChangeStatus(next, s.Now().UTC()); err != nil {
			return err
		}
		return s.lps.Update(ctx, lp)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPStatusChanged, lp.ID,
		fmt.Sprintf("%s status %s -> %s", lp.LPNumber, prev, next), nil)
	return lp, nil
}

// ChangeQAStatus moves a plate through its QA machine
func (s *Service) ChangeQAStatus(ctx context.Context, orgID, id uuid.UUID, next entities.QAStatus) (*entities.LicensePlate, error) {
	var lp *entities.LicensePlate
	var prev entities.QAStatus
	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if lp, err = s.lps.Get(ctx, orgID, id); err != nil {
			return err
		}
		prev = lp.QAStatus
		if err := lp.ChangeQAStatus(next, s.Now().UTC()); err != nil {
			return err
		}
		return s.lps.Update(ctx, lp)
	})
	if err != nil {
		return nil, err
	}
	shared.Emit(ctx, s.publisher, orgID, entities.ActivityLPQAChanged, lp.ID,
		fmt.Sprintf("%s qa %s -> %s", lp.LPNumber, prev, next), nil)
	return lp, nil
}
