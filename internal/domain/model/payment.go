package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the tender used to close an order.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
	PaymentMethodDebit  PaymentMethod = "debit"
	PaymentMethodPix    PaymentMethod = "pix"
)

// Valid reports whether m is an accepted method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCredit, PaymentMethodDebit, PaymentMethodPix:
		return true
	}
	return false
}

// Payment settles exactly one order. AttemptID identifies the close attempt that
// produced it and is unique across payments.
type Payment struct {
	ID             int64
	OrderID        int64
	AttemptID      uuid.UUID
	Method         PaymentMethod
	Amount         decimal.Decimal
	TenderedAmount decimal.Decimal
	ChangeAmount   decimal.Decimal
	ProcessedBy    int64
	ProcessedAt    time.Time
}
