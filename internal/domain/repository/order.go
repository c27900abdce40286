package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

// OrderRepository describes persistence operations with tabs and their lines.
// Mutations lock the order row, check its status and lease against holder and
// apply the totals delta in one transaction.
type OrderRepository interface {
	Create(ctx context.Context, customerName string, openedBy int64) (*model.Order, error)
	Get(ctx context.Context, orderID int64) (*model.Order, error)
	Items(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	AddItem(ctx context.Context, item model.OrderItem, holder string) (*model.OrderItem, *model.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID int64, holder string) (*model.OrderItem, *model.Order, error)
	Cancel(ctx context.Context, orderID int64) (*model.Order, error)
}

// LeaseRepository stores edit leases on the order row.
type LeaseRepository interface {
	Acquire(ctx context.Context, orderID int64, holder string, ttl time.Duration) (*model.EditLease, error)
	Release(ctx context.Context, orderID int64, holder string) (*model.Order, error)
	ReleaseExpired(ctx context.Context, limit int) ([]int64, error)
}

// PaymentRepository settles orders.
type PaymentRepository interface {
	// Settle inserts the payment and closes the order in one transaction provided
	// the order total still equals payment.Amount.
	Settle(ctx context.Context, payment model.Payment, holder string) (*model.Payment, *model.Order, error)
	// Reconcile resolves an attempt with unknown outcome. It returns the payment when
	// it exists and its order is closed. A payment attached to an unclosed
	// order is deleted by id.
	Reconcile(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.Payment, error)
}
