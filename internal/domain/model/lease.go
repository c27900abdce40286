package model

import "time"

// EditLease is the exclusive edit right of one terminal on an order.
type EditLease struct {
	OrderID   int64
	Holder    string
	ExpiresAt time.Time
}
