// Package facades holds handler facade stubs for HTTP tests.
package facades

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/domain/model"
	testhelpers "github.com/polkiloo/kilopos/internal/test"
	"github.com/polkiloo/kilopos/internal/usecase"
)

// Fixed timestamps used by facade stubs.
var (
	StubTime    = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	StubAttempt = uuid.MustParse("0b7e6c1e-6a52-4f4e-9d83-1f1c8b5a2d10")
)

func stubOrder(id int64) *model.Order {
	return &model.Order{
		ID:          id,
		Number:      id,
		Status:      model.OrderStatusOpen,
		TotalWeight: decimal.Zero,
		FoodTotal:   decimal.Zero,
		ExtrasTotal: decimal.Zero,
		TotalAmount: decimal.Zero,
		OpenedBy:    1,
		OpenedAt:    StubTime,
		UpdatedAt:   StubTime,
	}
}

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	CreateFn     func(context.Context, model.Actor, string) (*model.Order, error)
	OrderFn      func(context.Context, int64) (*model.OrderDetails, error)
	AddItemFn    func(context.Context, model.Actor, usecase.AddItemInput) (*model.OrderItem, *model.Order, error)
	RemoveItemFn func(context.Context, model.Actor, int64, int64) (*model.OrderItem, *model.Order, error)
	CancelFn     func(context.Context, model.Actor, int64) (*model.Order, error)
	BeginEditFn  func(context.Context, model.Actor, int64) (*model.EditLease, error)
	EndEditFn    func(context.Context, model.Actor, int64) (*model.Order, error)
	CloseFn      func(context.Context, model.Actor, usecase.CloseOrderInput) (*model.Payment, *model.Order, error)
}

// CreateOrder delegates to CreateFn or returns an empty open order.
func (s OrderFacadeStub) CreateOrder(ctx context.Context, actor model.Actor, customerName string) (*model.Order, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, actor, customerName)
	}
	order := stubOrder(1)
	order.CustomerName = customerName
	order.OpenedBy = actor.OperatorID
	return order, nil
}

// Order delegates to OrderFn or returns an order without lines.
func (s OrderFacadeStub) Order(ctx context.Context, orderID int64) (*model.OrderDetails, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID)
	}
	return &model.OrderDetails{Order: *stubOrder(orderID)}, nil
}

// AddItem delegates to AddItemFn or echoes the line.
func (s OrderFacadeStub) AddItem(ctx context.Context, actor model.Actor, in usecase.AddItemInput) (*model.OrderItem, *model.Order, error) {
	if s.AddItemFn != nil {
		return s.AddItemFn(ctx, actor, in)
	}
	item := model.NewOrderItem(in.OrderID, in.Type, in.Quantity, in.UnitPrice)
	item.ID = 1
	item.ProductID = in.ProductID
	item.CreatedAt = StubTime
	order := stubOrder(in.OrderID).Apply(item, 1)
	return &item, &order, nil
}

// RemoveItem delegates to RemoveItemFn or returns an empty order.
func (s OrderFacadeStub) RemoveItem(ctx context.Context, actor model.Actor, orderID, itemID int64) (*model.OrderItem, *model.Order, error) {
	if s.RemoveItemFn != nil {
		return s.RemoveItemFn(ctx, actor, orderID, itemID)
	}
	return &model.OrderItem{ID: itemID, OrderID: orderID, Type: model.ItemTypeExtra}, stubOrder(orderID), nil
}

// CancelOrder delegates to CancelFn or returns a cancelled order.
func (s OrderFacadeStub) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if s.CancelFn != nil {
		return s.CancelFn(ctx, actor, orderID)
	}
	order := stubOrder(orderID)
	order.Status = model.OrderStatusCancelled
	return order, nil
}

// BeginEdit delegates to BeginEditFn or grants a two minute lease.
func (s OrderFacadeStub) BeginEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.EditLease, error) {
	if s.BeginEditFn != nil {
		return s.BeginEditFn(ctx, actor, orderID)
	}
	return &model.EditLease{OrderID: orderID, Holder: actor.TerminalID, ExpiresAt: StubTime.Add(2 * time.Minute)}, nil
}

// EndEdit delegates to EndEditFn or returns an open order.
func (s OrderFacadeStub) EndEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if s.EndEditFn != nil {
		return s.EndEditFn(ctx, actor, orderID)
	}
	return stubOrder(orderID), nil
}

// CloseOrder delegates to CloseFn or settles by card.
func (s OrderFacadeStub) CloseOrder(ctx context.Context, actor model.Actor, in usecase.CloseOrderInput) (*model.Payment, *model.Order, error) {
	if s.CloseFn != nil {
		return s.CloseFn(ctx, actor, in)
	}
	order := stubOrder(in.OrderID)
	order.Status = model.OrderStatusClosed
	closedAt := StubTime
	order.ClosedAt = &closedAt
	payment := &model.Payment{
		ID:             1,
		OrderID:        in.OrderID,
		AttemptID:      StubAttempt,
		Method:         in.Method,
		Amount:         decimal.Zero,
		TenderedAmount: decimal.Zero,
		ChangeAmount:   decimal.Zero,
		ProcessedBy:    actor.OperatorID,
		ProcessedAt:    StubTime,
	}
	return payment, order, nil
}

// DrawerFacadeStub simulates cash drawer operations.
type DrawerFacadeStub struct {
	OpenFn    func(context.Context, model.Actor, decimal.Decimal, string) (*model.CashRegisterOperation, error)
	CloseFn   func(context.Context, model.Actor, decimal.Decimal, string) (*model.CashRegisterOperation, error)
	StatusFn  func(context.Context) (*model.DrawerStatus, error)
	HistoryFn func(context.Context, int) ([]model.CashRegisterOperation, error)
}

// OpenDrawer delegates to OpenFn or records an open operation.
func (s DrawerFacadeStub) OpenDrawer(ctx context.Context, actor model.Actor, openingFloat decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	if s.OpenFn != nil {
		return s.OpenFn(ctx, actor, openingFloat, notes)
	}
	return &model.CashRegisterOperation{
		ID: 1, Seq: 1, Type: model.OperationOpen, Amount: openingFloat, OpeningBalance: &openingFloat,
		OperatorID: actor.OperatorID, Notes: notes, CreatedAt: StubTime,
	}, nil
}

// CloseDrawer delegates to CloseFn or balances exactly.
func (s DrawerFacadeStub) CloseDrawer(ctx context.Context, actor model.Actor, counted decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	if s.CloseFn != nil {
		return s.CloseFn(ctx, actor, counted, notes)
	}
	zero := decimal.Zero
	return &model.CashRegisterOperation{
		ID: 2, Seq: 2, Type: model.OperationClose, Amount: counted, ClosingBalance: &counted,
		ExpectedBalance: &counted, Difference: &zero, OperatorID: actor.OperatorID, Notes: notes, CreatedAt: StubTime,
	}, nil
}

// DrawerStatus delegates to StatusFn or reports a closed drawer.
func (s DrawerFacadeStub) DrawerStatus(ctx context.Context) (*model.DrawerStatus, error) {
	if s.StatusFn != nil {
		return s.StatusFn(ctx)
	}
	return &model.DrawerStatus{CashReceived: decimal.Zero, Expected: decimal.Zero}, nil
}

// DrawerHistory delegates to HistoryFn or returns nothing.
func (s DrawerFacadeStub) DrawerHistory(ctx context.Context, limit int) ([]model.CashRegisterOperation, error) {
	if s.HistoryFn != nil {
		return s.HistoryFn(ctx, limit)
	}
	return nil, nil
}

// ReportFacadeStub simulates sales reporting. Business days are counted in
// Location, UTC when nil.
type ReportFacadeStub struct {
	SummaryFn func(context.Context, time.Time, time.Time) (*model.DailySummary, error)
	Location  *time.Location
}

// DailySummary delegates to SummaryFn or returns an empty summary.
func (s ReportFacadeStub) DailySummary(ctx context.Context, from, to time.Time) (*model.DailySummary, error) {
	if s.SummaryFn != nil {
		return s.SummaryFn(ctx, from, to)
	}
	return &model.DailySummary{From: from, To: to, Total: decimal.Zero, CashTotal: decimal.Zero, DrawerCash: decimal.Zero, CashDiscrepancy: decimal.Zero}, nil
}

// DayRange returns the calendar day containing t.
func (s ReportFacadeStub) DayRange(t time.Time) (time.Time, time.Time) {
	loc := s.ReportLocation()
	t = t.In(loc)
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}

// ReportLocation returns Location or UTC.
func (s ReportFacadeStub) ReportLocation() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// PosFacadeStub composes every handler facade with a token parser.
type PosFacadeStub struct {
	OrderFacadeStub
	DrawerFacadeStub
	ReportFacadeStub
	testhelpers.TokenParserStub
}

// HealthCheckerStub returns Err from HealthCheck.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck reports the configured outcome.
func (s HealthCheckerStub) HealthCheck(ctx context.Context) error {
	return s.Err
}
