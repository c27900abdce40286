package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/adapter/catalog"
	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/usecase"
)

// PriceProvider resolves catalog prices for add-on items.
type PriceProvider interface {
	Price(ctx context.Context, productID string) (decimal.Decimal, error)
}

// PosFacade is the single entry point used by transports and workers.
type PosFacade struct {
	operators *usecase.OperatorUseCase
	ledger    *usecase.LedgerUseCase
	lock      *usecase.LockUseCase
	payments  *usecase.PaymentUseCase
	drawer    *usecase.DrawerUseCase
	sales     *usecase.SalesUseCase
	events    *usecase.EventUseCase
	prices    PriceProvider
}

// Services groups the use cases behind the facade.
type Services struct {
	Operators *usecase.OperatorUseCase
	Ledger    *usecase.LedgerUseCase
	Lock      *usecase.LockUseCase
	Payments  *usecase.PaymentUseCase
	Drawer    *usecase.DrawerUseCase
	Sales     *usecase.SalesUseCase
	Events    *usecase.EventUseCase
}

func NewPosFacade(s Services, prices PriceProvider) *PosFacade {
	return &PosFacade{
		operators: s.Operators,
		ledger:    s.Ledger,
		lock:      s.Lock,
		payments:  s.Payments,
		drawer:    s.Drawer,
		sales:     s.Sales,
		events:    s.Events,
		prices:    prices,
	}
}

func (f *PosFacade) IssueToken(operatorID int64) (string, error) {
	return f.operators.IssueToken(operatorID)
}

func (f *PosFacade) ParseToken(token string) (int64, error) {
	return f.operators.ParseToken(token)
}

func (f *PosFacade) CreateOrder(ctx context.Context, actor model.Actor, customerName string) (*model.Order, error) {
	return f.ledger.CreateOrder(ctx, actor, customerName)
}

func (f *PosFacade) Order(ctx context.Context, orderID int64) (*model.OrderDetails, error) {
	return f.ledger.GetOrder(ctx, orderID)
}

// AddItem appends a line. Extras given by product id without a price are priced
// from the catalog.
func (f *PosFacade) AddItem(ctx context.Context, actor model.Actor, in usecase.AddItemInput) (*model.OrderItem, *model.Order, error) {
	if in.Type == model.ItemTypeExtra && in.ProductID != "" && in.UnitPrice.IsZero() {
		price, err := f.price(ctx, in.ProductID)
		if err != nil {
			return nil, nil, err
		}
		in.UnitPrice = price
	}
	return f.ledger.AddItem(ctx, actor, in)
}

func (f *PosFacade) price(ctx context.Context, productID string) (decimal.Decimal, error) {
	if f.prices == nil {
		return decimal.Zero, domainErrors.Validation("unit price required for product %q", productID)
	}
	price, err := f.prices.Price(ctx, productID)
	switch {
	case err == nil:
		return price, nil
	case errors.Is(err, catalog.ErrProductNotFound):
		return decimal.Zero, domainErrors.NotFound("product %q", productID)
	case errors.Is(err, catalog.ErrNotConfigured):
		return decimal.Zero, domainErrors.Validation("unit price required for product %q", productID)
	default:
		return decimal.Zero, fmt.Errorf("price lookup for %q: %w", productID, err)
	}
}

func (f *PosFacade) RemoveItem(ctx context.Context, actor model.Actor, orderID, itemID int64) (*model.OrderItem, *model.Order, error) {
	return f.ledger.RemoveItem(ctx, actor, orderID, itemID)
}

func (f *PosFacade) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.ledger.CancelOrder(ctx, actor, orderID)
}

func (f *PosFacade) BeginEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.EditLease, error) {
	return f.lock.BeginEdit(ctx, actor, orderID)
}

func (f *PosFacade) EndEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.lock.EndEdit(ctx, actor, orderID)
}

func (f *PosFacade) CloseOrder(ctx context.Context, actor model.Actor, in usecase.CloseOrderInput) (*model.Payment, *model.Order, error) {
	return f.payments.CloseOrder(ctx, actor, in)
}

func (f *PosFacade) OpenDrawer(ctx context.Context, actor model.Actor, openingFloat decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	return f.drawer.OpenDrawer(ctx, actor, openingFloat, notes)
}

func (f *PosFacade) CloseDrawer(ctx context.Context, actor model.Actor, counted decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	return f.drawer.CloseDrawer(ctx, actor, counted, notes)
}

func (f *PosFacade) DrawerStatus(ctx context.Context) (*model.DrawerStatus, error) {
	return f.drawer.Status(ctx)
}

func (f *PosFacade) DrawerHistory(ctx context.Context, limit int) ([]model.CashRegisterOperation, error) {
	return f.drawer.History(ctx, limit)
}

func (f *PosFacade) DailySummary(ctx context.Context, from, to time.Time) (*model.DailySummary, error) {
	return f.sales.DailySummary(ctx, from, to)
}

func (f *PosFacade) DayRange(t time.Time) (time.Time, time.Time) {
	return f.sales.DayRange(t)
}

func (f *PosFacade) ReportLocation() *time.Location {
	return f.sales.Location()
}

func (f *PosFacade) ReleaseExpiredLeases(ctx context.Context, limit int) ([]int64, error) {
	return f.lock.ReleaseExpired(ctx, limit)
}

func (f *PosFacade) ClaimEvents(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error) {
	return f.events.Claim(ctx, limit, claimFor)
}

func (f *PosFacade) EventsDelivered(ctx context.Context, ids []int64) error {
	return f.events.Delivered(ctx, ids)
}
