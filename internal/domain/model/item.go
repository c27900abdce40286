package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType distinguishes weight-priced food from unit-priced add-ons.
type ItemType string

const (
	ItemTypeFoodWeight ItemType = "food_weight"
	ItemTypeExtra      ItemType = "extra"
)

const (
	moneyPlaces  = 2
	weightPlaces = 3
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeFoodWeight || t == ItemTypeExtra
}

// OrderItem is one line of a tab. Lines are never edited in place.
type OrderItem struct {
	ID         int64
	OrderID    int64
	Type       ItemType
	ProductID  string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

// NewOrderItem builds a line with its price rounded to cents. Food quantities are
// kilograms kept to grams.
func NewOrderItem(orderID int64, itemType ItemType, quantity, unitPrice decimal.Decimal) OrderItem {
	if itemType == ItemTypeFoodWeight {
		quantity = quantity.Round(weightPlaces)
	}
	unitPrice = RoundMoney(unitPrice)
	return OrderItem{
		OrderID:    orderID,
		Type:       itemType,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: RoundMoney(quantity.Mul(unitPrice)),
	}
}

// TotalsDelta is the contribution of one line to the order totals.
type TotalsDelta struct {
	Weight decimal.Decimal
	Food   decimal.Decimal
	Extras decimal.Decimal
}

// Neg flips the sign of every component.
func (d TotalsDelta) Neg() TotalsDelta {
	return TotalsDelta{Weight: d.Weight.Neg(), Food: d.Food.Neg(), Extras: d.Extras.Neg()}
}

// Amount is the change to the order total.
func (d TotalsDelta) Amount() decimal.Decimal {
	return d.Food.Add(d.Extras)
}

// Delta returns the line contribution.
func (i OrderItem) Delta() TotalsDelta {
	switch i.Type {
	case ItemTypeFoodWeight:
		return TotalsDelta{Weight: i.Quantity, Food: i.TotalPrice, Extras: decimal.Zero}
	default:
		return TotalsDelta{Weight: decimal.Zero, Food: decimal.Zero, Extras: i.TotalPrice}
	}
}

// RoundMoney rounds to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// MoneyString formats an amount with exactly two decimals.
func MoneyString(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}

// WeightString formats a weight with exactly three decimals.
func WeightString(d decimal.Decimal) string {
	return d.StringFixed(weightPlaces)
}
