package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	maxTxAttempts = 3

	drawerLockKey int64 = 720401
	relayLockKey  int64 = 720402
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type leaseRepository struct {
	storage *Storage
}

type paymentRepository struct {
	storage *Storage
}

type drawerRepository struct {
	storage *Storage
}

type salesRepository struct {
	storage *Storage
}

type eventRepository struct {
	storage *Storage
}

var _ repository.Factory = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Leases() repository.LeaseRepository {
	return &leaseRepository{storage: s}
}

func (s *Storage) Payments() repository.PaymentRepository {
	return &paymentRepository{storage: s}
}

func (s *Storage) Drawer() repository.DrawerRepository {
	return &drawerRepository{storage: s}
}

func (s *Storage) Sales() repository.SalesRepository {
	return &salesRepository{storage: s}
}

func (s *Storage) Events() repository.EventRepository {
	return &eventRepository{storage: s}
}

var schemaStatements = []string{
	`CREATE SEQUENCE IF NOT EXISTS order_number_seq`,
	`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            number BIGINT NOT NULL UNIQUE DEFAULT nextval('order_number_seq'),
            status TEXT NOT NULL CHECK (status IN ('open', 'pending', 'closed', 'cancelled')),
            customer_name TEXT NOT NULL DEFAULT '',
            total_weight NUMERIC(12,3) NOT NULL DEFAULT 0 CHECK (total_weight >= 0),
            food_total NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (food_total >= 0),
            extras_total NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (extras_total >= 0),
            total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
            opened_by BIGINT NOT NULL,
            lease_holder TEXT,
            lease_expires_at TIMESTAMPTZ,
            opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            closed_at TIMESTAMPTZ,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (total_amount = food_total + extras_total)
        )`,
	`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            item_type TEXT NOT NULL CHECK (item_type IN ('food_weight', 'extra')),
            product_id TEXT NOT NULL DEFAULT '',
            quantity NUMERIC(12,3) NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(12,2) NOT NULL CHECK (unit_price > 0),
            total_price NUMERIC(12,2) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS payments (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL UNIQUE REFERENCES orders(id),
            attempt_id UUID NOT NULL UNIQUE,
            method TEXT NOT NULL CHECK (method IN ('cash', 'credit', 'debit', 'pix')),
            amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
            tendered_amount NUMERIC(12,2) NOT NULL,
            change_amount NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (change_amount >= 0),
            processed_by BIGINT NOT NULL,
            processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS cash_register_operations (
            id BIGSERIAL PRIMARY KEY,
            seq BIGSERIAL NOT NULL UNIQUE,
            op_type TEXT NOT NULL CHECK (op_type IN ('open', 'close')),
            amount NUMERIC(12,2) NOT NULL,
            opening_balance NUMERIC(12,2),
            closing_balance NUMERIC(12,2),
            expected_balance NUMERIC(12,2),
            difference NUMERIC(12,2),
            operator_id BIGINT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
	`CREATE TABLE IF NOT EXISTS change_events (
            id BIGSERIAL PRIMARY KEY,
            kind TEXT NOT NULL,
            aggregate_id BIGINT NOT NULL,
            payload JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            claimed_until TIMESTAMPTZ,
            delivered_at TIMESTAMPTZ
        )`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_lease ON orders(lease_expires_at) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS idx_orders_closed ON orders(closed_at) WHERE status = 'closed'`,
	`CREATE INDEX IF NOT EXISTS idx_payments_cash ON payments(processed_at) WHERE method = 'cash'`,
	`CREATE INDEX IF NOT EXISTS idx_change_events_pending ON change_events(id) WHERE delivered_at IS NULL`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// WithinTransaction runs fn in a transaction. Serialization failures and
// deadlocks roll back and rerun fn from scratch, up to maxTxAttempts times.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !isRetryable(err) || ctx.Err() != nil || attempt == maxTxAttempts {
			return err
		}
		s.logger.Warn("transaction aborted, retrying",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func (s *Storage) runTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	return fn(tx)
}

func isRetryable(err error) bool {
	return isPgError(err, pgSerializationFailure) || isPgError(err, pgDeadlockDetected)
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}

// appendEvent writes an outbox row inside the caller's transaction.
func appendEvent(ctx context.Context, q queryer, kind model.EventKind, aggregateID int64, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", kind, err)
	}
	const query = `INSERT INTO change_events (kind, aggregate_id, payload) VALUES ($1, $2, $3::jsonb)`
	if _, err := q.Exec(ctx, query, string(kind), aggregateID, string(raw)); err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.NotFound(format, args...)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, domainErrors.ErrNotFound)
}
