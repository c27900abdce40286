package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the tab lifecycle.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusClosed    OrderStatus = "closed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusOpen:    {OrderStatusPending, OrderStatusClosed, OrderStatusCancelled},
	OrderStatusPending: {OrderStatusOpen, OrderStatusClosed},
}

// Valid reports whether s belongs to the closed status set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusPending, OrderStatusClosed, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusClosed || s == OrderStatusCancelled
}

// Editable reports whether line items may be added or removed in s.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusOpen || s == OrderStatusPending
}

// CanTransition checks the transition table.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the running bill of one tab.
type Order struct {
	ID             int64
	Number         int64
	Status         OrderStatus
	CustomerName   string
	TotalWeight    decimal.Decimal
	FoodTotal      decimal.Decimal
	ExtrasTotal    decimal.Decimal
	TotalAmount    decimal.Decimal
	OpenedBy       int64
	LeaseHolder    string
	LeaseExpiresAt *time.Time
	OpenedAt       time.Time
	ClosedAt       *time.Time
	UpdatedAt      time.Time
}

// LeaseActive reports whether a lease held by someone is still valid at now.
func (o *Order) LeaseActive(now time.Time) bool {
	return o.Status == OrderStatusPending && o.LeaseHolder != "" &&
		o.LeaseExpiresAt != nil && o.LeaseExpiresAt.After(now)
}

// WritableBy reports whether holder may mutate the order at now: open orders are
// writable by anyone, pending ones only by the lease holder or after expiry.
func (o *Order) WritableBy(holder string, now time.Time) bool {
	if !o.Status.Editable() {
		return false
	}
	if !o.LeaseActive(now) {
		return true
	}
	return holder != "" && o.LeaseHolder == holder
}

// CheckTotals verifies the arithmetic invariants of the snapshot.
func (o *Order) CheckTotals() error {
	for name, v := range map[string]decimal.Decimal{
		"total weight": o.TotalWeight,
		"food total":   o.FoodTotal,
		"extras total": o.ExtrasTotal,
		"total amount": o.TotalAmount,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s is negative (%s)", name, v.String())
		}
	}
	if !o.TotalAmount.Equal(o.FoodTotal.Add(o.ExtrasTotal)) {
		return fmt.Errorf("total amount %s differs from food %s + extras %s",
			o.TotalAmount.StringFixed(2), o.FoodTotal.StringFixed(2), o.ExtrasTotal.StringFixed(2))
	}
	return nil
}

// Apply returns the totals after adding (sign > 0) or removing (sign < 0) item.
// The result is not validated; callers decide how to treat a broken invariant.
func (o Order) Apply(item OrderItem, sign int) Order {
	delta := item.Delta()
	if sign < 0 {
		delta = delta.Neg()
	}
	o.TotalWeight = o.TotalWeight.Add(delta.Weight)
	o.FoodTotal = o.FoodTotal.Add(delta.Food)
	o.ExtrasTotal = o.ExtrasTotal.Add(delta.Extras)
	o.TotalAmount = o.FoodTotal.Add(o.ExtrasTotal)
	return o
}

// OrderDetails bundles an order with its current lines and payments.
type OrderDetails struct {
	Order    Order
	Items    []OrderItem
	Payments []Payment
}
