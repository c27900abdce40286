package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType tags entries of the cash register log.
type OperationType string

const (
	OperationOpen  OperationType = "open"
	OperationClose OperationType = "close"
)

// CashRegisterOperation is an append-only drawer log entry. Seq is assigned by the
// store and orders the log.
type CashRegisterOperation struct {
	ID              int64
	Seq             int64
	Type            OperationType
	Amount          decimal.Decimal
	OpeningBalance  *decimal.Decimal
	ClosingBalance  *decimal.Decimal
	ExpectedBalance *decimal.Decimal
	Difference      *decimal.Decimal
	OperatorID      int64
	Notes           string
	CreatedAt       time.Time
}

// DrawerStatus is derived from the latest log entry.
type DrawerStatus struct {
	IsOpen        bool
	Session       *CashRegisterOperation
	LastOperation *CashRegisterOperation
	CashReceived  decimal.Decimal
	Expected      decimal.Decimal
}

// Reconciliation is the outcome of counting a drawer.
type Reconciliation struct {
	OpeningBalance  decimal.Decimal
	CashReceived    decimal.Decimal
	ExpectedBalance decimal.Decimal
	CountedAmount   decimal.Decimal
	Difference      decimal.Decimal
}

// Reconcile computes expected = opening + cash and difference = counted - expected.
func Reconcile(opening, cashReceived, counted decimal.Decimal) Reconciliation {
	expected := RoundMoney(opening.Add(cashReceived))
	counted = RoundMoney(counted)
	return Reconciliation{
		OpeningBalance:  RoundMoney(opening),
		CashReceived:    RoundMoney(cashReceived),
		ExpectedBalance: expected,
		CountedAmount:   counted,
		Difference:      counted.Sub(expected),
	}
}
