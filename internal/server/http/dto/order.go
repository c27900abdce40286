package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest opens a tab.
type CreateOrderRequest struct {
	CustomerName string `json:"customer_name"`
}

// AddItemRequest appends a line. UnitPrice may be omitted for catalog extras.
type AddItemRequest struct {
	Type      string          `json:"type"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CloseOrderRequest pays a tab.
type CloseOrderRequest struct {
	Method         string          `json:"method"`
	TenderedAmount decimal.Decimal `json:"tendered_amount"`
}

// OrderResponse renders an order snapshot. Amounts are fixed-point strings.
type OrderResponse struct {
	ID             int64      `json:"id"`
	Number         int64      `json:"number"`
	Status         string     `json:"status"`
	CustomerName   string     `json:"customer_name,omitempty"`
	TotalWeight    string     `json:"total_weight"`
	FoodTotal      string     `json:"food_total"`
	ExtrasTotal    string     `json:"extras_total"`
	TotalAmount    string     `json:"total_amount"`
	OpenedBy       int64      `json:"opened_by"`
	LeaseHolder    string     `json:"lease_holder,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	OpenedAt       time.Time  `json:"opened_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ItemResponse renders one line.
type ItemResponse struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id,omitempty"`
	Quantity   string    `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// PaymentResponse renders a settlement.
type PaymentResponse struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	AttemptID      string    `json:"attempt_id"`
	Method         string    `json:"method"`
	Amount         string    `json:"amount"`
	TenderedAmount string    `json:"tendered_amount"`
	ChangeAmount   string    `json:"change_amount"`
	ProcessedBy    int64     `json:"processed_by"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// OrderDetailsResponse is returned by GET /api/orders/:id.
type OrderDetailsResponse struct {
	Order    OrderResponse     `json:"order"`
	Items    []ItemResponse    `json:"items"`
	Payments []PaymentResponse `json:"payments"`
}

// ItemChangeResponse is returned after adding or removing a line.
type ItemChangeResponse struct {
	Item  ItemResponse  `json:"item"`
	Order OrderResponse `json:"order"`
}

// CloseOrderResponse is returned after a successful close.
type CloseOrderResponse struct {
	Payment PaymentResponse `json:"payment"`
	Order   OrderResponse   `json:"order"`
}

// LeaseResponse describes a granted edit lease.
type LeaseResponse struct {
	OrderID   int64     `json:"order_id"`
	Holder    string    `json:"holder"`
	ExpiresAt time.Time `json:"expires_at"`
}
