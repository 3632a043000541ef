package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// Store bundles every in-memory repository behind one transactor
type Store struct {
	txMu sync.Mutex

	Organizations *OrganizationRepository
	Sequences     *SequenceRepository
	Products      *ProductRepository
	Customers     *CustomerRepository
	Locations     *LocationRepository
	BOMs          *BOMRepository
	LicensePlates *LicensePlateRepository
	Genealogy     *GenealogyRepository
	Allocations   *AllocationRepository
	SalesOrders   *SalesOrderRepository
	Shipments     *ShipmentRepository
	RMAs          *RMARepository
	WorkOrders    *WorkOrderRepository
	QualityHolds  *QualityHoldRepository
	Activity      *ActivityRepository
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Organizations: NewOrganizationRepository(),
		Sequences:     NewSequenceRepository(),
		Products:      NewProductRepository(),
		Customers:     NewCustomerRepository(),
		Locations:     NewLocationRepository(),
		BOMs:          NewBOMRepository(),
		LicensePlates: NewLicensePlateRepository(),
		Genealogy:     NewGenealogyRepository(),
		Allocations:   NewAllocationRepository(),
		SalesOrders:   NewSalesOrderRepository(),
		Shipments:     NewShipmentRepository(),
		RMAs:          NewRMARepository(),
		WorkOrders:    NewWorkOrderRepository(),
		QualityHolds:  NewQualityHoldRepository(),
		Activity:      NewActivityRepository(),
	}
}

var _ repositories.Transactor = (*Store)(nil)

type txKey struct{}

// WithinTx serialises multi-step operations. There is no rollback: a failing
// fn keeps the writes it already made, so services validate before writing.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

// SequenceRepository hands out per-org counters
type SequenceRepository struct {
	mu       sync.Mutex
	counters map[uuid.UUID]map[string]int64
}

// NewSequenceRepository creates an empty sequence repository
func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{counters: make(map[uuid.UUID]map[string]int64)}
}

var _ repositories.SequenceRepository = (*SequenceRepository)(nil)

// Next returns the next value of the org's key, starting at 1
func (r *SequenceRepository) Next(ctx context.Context, orgID uuid.UUID, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKey, ok := r.counters[orgID]
	if !ok {
		byKey = make(map[string]int64)
		r.counters[orgID] = byKey
	}
	byKey[key]++
	return byKey[key], nil
}

// Peek returns the value Next would hand out
func (r *SequenceRepository) Peek(ctx context.Context, orgID uuid.UUID, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[orgID][key] + 1, nil
}

// Bump raises the counter to at least value, so imported numbers are never
// reissued
func (r *SequenceRepository) Bump(ctx context.Context, orgID uuid.UUID, key string, value int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byKey, ok := r.counters[orgID]
	if !ok {
		byKey = make(map[string]int64)
		r.counters[orgID] = byKey
	}
	if value > byKey[key] {
		byKey[key] = value
	}
	return nil
}

// Repositories exposes the store as a repository set
func (s *Store) Repositories() repositories.Set {
	return repositories.Set{
		Transactor:    s,
		Organizations: s.Organizations,
		Sequences:     s.Sequences,
		Products:      s.Products,
		Customers:     s.Customers,
		Locations:     s.Locations,
		BOMs:          s.BOMs,
		LicensePlates: s.LicensePlates,
		Genealogy:     s.Genealogy,
		Allocations:   s.Allocations,
		SalesOrders:   s.SalesOrders,
		Shipments:     s.Shipments,
		RMAs:          s.RMAs,
		WorkOrders:    s.WorkOrders,
		QualityHolds:  s.QualityHolds,
		Activity:      s.Activity,
	}
}
