package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

// DrawerRepository keeps the append-only cash register log. Open and Close
// serialize on a database lock.
type DrawerRepository interface {
	Latest(ctx context.Context) (*model.CashRegisterOperation, error)
	Open(ctx context.Context, openingFloat decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error)
	Close(ctx context.Context, counted decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error)
	CashSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	History(ctx context.Context, limit int) ([]model.CashRegisterOperation, error)
}

// SalesRepository aggregates settled orders.
type SalesRepository interface {
	Totals(ctx context.Context, from, to time.Time) ([]model.MethodTotal, error)
}

// EventRepository reads the change outbox.
type EventRepository interface {
	ClaimBatch(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error)
	MarkDelivered(ctx context.Context, ids []int64) error
}
