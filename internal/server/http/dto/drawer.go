package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawerRequest carries the opening float or the counted amount.
type DrawerRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// OperationResponse renders a drawer log entry.
type OperationResponse struct {
	ID              int64     `json:"id"`
	Seq             int64     `json:"seq"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	OpeningBalance  *string   `json:"opening_balance,omitempty"`
	ClosingBalance  *string   `json:"closing_balance,omitempty"`
	ExpectedBalance *string   `json:"expected_balance,omitempty"`
	Difference      *string   `json:"difference,omitempty"`
	OperatorID      int64     `json:"operator_id"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DrawerStatusResponse renders the derived drawer state.
type DrawerStatusResponse struct {
	IsOpen        bool               `json:"is_open"`
	Session       *OperationResponse `json:"session,omitempty"`
	LastOperation *OperationResponse `json:"last_operation,omitempty"`
	CashReceived  string             `json:"cash_received"`
	Expected      string             `json:"expected"`
}
