package dto

import "time"

// MethodTotalResponse is one row of the daily summary.
type MethodTotalResponse struct {
	Method       string `json:"method"`
	Orders       int64  `json:"orders"`
	Amount       string `json:"amount"`
	ChangeAmount string `json:"change_amount"`
}

// DailySummaryResponse renders the sales rollup.
type DailySummaryResponse struct {
	From            time.Time             `json:"from"`
	To              time.Time             `json:"to"`
	Orders          int64                 `json:"orders"`
	Total           string                `json:"total"`
	ByMethod        []MethodTotalResponse `json:"by_method"`
	CashTotal       string                `json:"cash_total"`
	DrawerOpen      bool                  `json:"drawer_open"`
	DrawerCash      string                `json:"drawer_cash"`
	CashDiscrepancy string                `json:"cash_discrepancy"`
}
