package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MethodTotal aggregates closed orders settled with one method.
type MethodTotal struct {
	Method       PaymentMethod
	Orders       int64
	Amount       decimal.Decimal
	ChangeAmount decimal.Decimal
}

// DailySummary is a read-only rollup of closed orders in [From, To).
type DailySummary struct {
	From            time.Time
	To              time.Time
	Orders          int64
	Total           decimal.Decimal
	ByMethod        []MethodTotal
	CashTotal       decimal.Decimal
	DrawerOpen      bool
	DrawerCash      decimal.Decimal
	CashDiscrepancy decimal.Decimal
}
