package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/vsinha/monopilot/pkg/domain/repositories"
)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// db resolves the transaction carried in ctx, falling back to the pool
type db struct {
	pool *pgxpool.Pool
}

func (d db) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.pool
}

// Store bundles every PostgreSQL repository over one pool
type Store struct {
	pool *pgxpool.Pool

	// TxAttempts bounds reruns of a transaction aborted by a serialization
	// failure or deadlock. Default: 5
	TxAttempts uint

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

// NewStore creates repositories sharing pool
func NewStore(pool *pgxpool.Pool) *Store {
	d := db{pool: pool}
	return &Store{
		pool:          pool,
		TxAttempts:    5,
		Organizations: &OrganizationRepository{db: d},
		Sequences:     &SequenceRepository{db: d},
		Products:      &ProductRepository{db: d},
		Customers:     &CustomerRepository{db: d},
		Locations:     &LocationRepository{db: d},
		BOMs:          &BOMRepository{db: d},
		LicensePlates: &LicensePlateRepository{db: d},
		Genealogy:     &GenealogyRepository{db: d},
		Allocations:   &AllocationRepository{db: d},
		SalesOrders:   &SalesOrderRepository{db: d},
		Shipments:     &ShipmentRepository{db: d},
		RMAs:          &RMARepository{db: d},
		WorkOrders:    &WorkOrderRepository{db: d},
		QualityHolds:  &QualityHoldRepository{db: d},
		Activity:      &ActivityRepository{db: d},
	}
}

var _ repositories.Transactor = (*Store)(nil)

// Close releases the pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithinTx runs fn in a serializable transaction carried by ctx. Nested calls
// join the outer transaction. Serialization failures and deadlocks rerun fn
// with exponential backoff; any other error rolls back and is returned.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	attempt := 0
	run := func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if isRetryable(err) {
			zerolog.Ctx(ctx).Debug().Err(err).Int("attempt", attempt).Msg("retrying transaction")
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	_, err := backoff.Retry(ctx, run, backoff.WithBackOff(b), backoff.WithMaxTries(s.TxAttempts))
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
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
