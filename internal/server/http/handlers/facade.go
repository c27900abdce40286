package handlers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/usecase"
)

// OrderFacade covers the tab lifecycle exposed via HTTP.
type OrderFacade interface {
	CreateOrder(ctx context.Context, actor model.Actor, customerName string) (*model.Order, error)
	Order(ctx context.Context, orderID int64) (*model.OrderDetails, error)
	AddItem(ctx context.Context, actor model.Actor, in usecase.AddItemInput) (*model.OrderItem, *model.Order, error)
	RemoveItem(ctx context.Context, actor model.Actor, orderID, itemID int64) (*model.OrderItem, *model.Order, error)
	CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	BeginEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.EditLease, error)
	EndEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	CloseOrder(ctx context.Context, actor model.Actor, in usecase.CloseOrderInput) (*model.Payment, *model.Order, error)
}

// DrawerFacade provides cash drawer operations.
type DrawerFacade interface {
	OpenDrawer(ctx context.Context, actor model.Actor, openingFloat decimal.Decimal, notes string) (*model.CashRegisterOperation, error)
	CloseDrawer(ctx context.Context, actor model.Actor, counted decimal.Decimal, notes string) (*model.CashRegisterOperation, error)
	DrawerStatus(ctx context.Context) (*model.DrawerStatus, error)
	DrawerHistory(ctx context.Context, limit int) ([]model.CashRegisterOperation, error)
}

// ReportFacade provides sales reporting.
type ReportFacade interface {
	DailySummary(ctx context.Context, from, to time.Time) (*model.DailySummary, error)
	DayRange(t time.Time) (time.Time, time.Time)
	ReportLocation() *time.Location
}

// PosFacade aggregates the full set of operations used across handlers.
type PosFacade interface {
	OrderFacade
	DrawerFacade
	ReportFacade
	ParseToken(token string) (int64, error)
}
