package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

const maxCustomerNameLen = 120

// AddItemInput describes a line to append to a tab.
type AddItemInput struct {
	OrderID   int64
	Type      model.ItemType
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LedgerUseCase maintains the running bill of open tabs.
type LedgerUseCase struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
}

// NewLedgerUseCase constructs LedgerUseCase.
func NewLedgerUseCase(orders repository.OrderRepository, payments repository.PaymentRepository) *LedgerUseCase {
	return &LedgerUseCase{orders: orders, payments: payments}
}

// CreateOrder opens a new tab with zero totals.
func (u *LedgerUseCase) CreateOrder(ctx context.Context, actor model.Actor, customerName string) (*model.Order, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	customerName = strings.TrimSpace(customerName)
	if len(customerName) > maxCustomerNameLen {
		return nil, domainErrors.Validation("customer name longer than %d characters", maxCustomerNameLen)
	}
	return u.orders.Create(ctx, customerName, actor.OperatorID)
}

// GetOrder returns the order with its lines and payments.
func (u *LedgerUseCase) GetOrder(ctx context.Context, orderID int64) (*model.OrderDetails, error) {
	order, err := u.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := u.orders.Items(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := u.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &model.OrderDetails{Order: *order, Items: items, Payments: payments}, nil
}

// AddItem appends a line and applies its contribution to the totals atomically.
func (u *LedgerUseCase) AddItem(ctx context.Context, actor model.Actor, in AddItemInput) (*model.OrderItem, *model.Order, error) {
	if !actor.Identified() {
		return nil, nil, domainErrors.ErrUnauthorized
	}
	if !in.Type.Valid() {
		return nil, nil, domainErrors.Validation("unknown item type %q", in.Type)
	}
	if !in.Quantity.IsPositive() {
		return nil, nil, domainErrors.Validation("quantity must be positive")
	}
	if !in.UnitPrice.IsPositive() {
		return nil, nil, domainErrors.Validation("unit price must be positive")
	}
	if in.Type == model.ItemTypeExtra && !in.Quantity.Equal(in.Quantity.Truncate(0)) {
		return nil, nil, domainErrors.Validation("extra quantity must be a whole number")
	}

	item := model.NewOrderItem(in.OrderID, in.Type, in.Quantity, in.UnitPrice)
	item.ProductID = in.ProductID
	if !item.Quantity.IsPositive() || !item.TotalPrice.IsPositive() {
		return nil, nil, domainErrors.Validation("line total rounds to zero")
	}
	return u.orders.AddItem(ctx, item, actor.TerminalID)
}

// RemoveItem deletes a line and subtracts its contribution atomically. A negative
// total is reported as a critical inconsistency and nothing is written.
func (u *LedgerUseCase) RemoveItem(ctx context.Context, actor model.Actor, orderID, itemID int64) (*model.OrderItem, *model.Order, error) {
	if !actor.Identified() {
		return nil, nil, domainErrors.ErrUnauthorized
	}
	item, order, err := u.orders.RemoveItem(ctx, orderID, itemID, actor.TerminalID)
	if err != nil {
		var critical *domainErrors.CriticalInconsistencyError
		if errors.As(err, &critical) {
			critical.OperatorID = actor.OperatorID
		}
		return nil, nil, err
	}
	return item, order, nil
}

// CancelOrder moves an open tab to cancelled.
func (u *LedgerUseCase) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	return u.orders.Cancel(ctx, orderID)
}
