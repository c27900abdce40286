package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

func TestLedgerRunningTotals(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	order, err := e.ledger.CreateOrder(ctx, cashier, "  Ana  ")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.Status != model.OrderStatusOpen || order.CustomerName != "Ana" || order.Number != 1 {
		t.Fatalf("unexpected order %+v", order)
	}

	food, order, err := e.ledger.AddItem(ctx, cashier, AddItemInput{
		OrderID: order.ID, Type: model.ItemTypeFoodWeight, Quantity: dec("2.500"), UnitPrice: dec("59.90"),
	})
	if err != nil {
		t.Fatalf("add food: %v", err)
	}
	if !food.TotalPrice.Equal(dec("149.75")) || !order.FoodTotal.Equal(dec("149.75")) || !order.TotalAmount.Equal(dec("149.75")) {
		t.Fatalf("unexpected totals after food: item=%s order=%+v", food.TotalPrice, order)
	}

	_, order, err = e.ledger.AddItem(ctx, cashier, AddItemInput{
		OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("2"), UnitPrice: dec("7.00"), ProductID: "soda",
	})
	if err != nil {
		t.Fatalf("add extra: %v", err)
	}
	if !order.ExtrasTotal.Equal(dec("14.00")) || !order.TotalAmount.Equal(dec("163.75")) {
		t.Fatalf("unexpected totals after extras: %+v", order)
	}
	if !order.TotalWeight.Equal(dec("2.5")) {
		t.Fatalf("expected weight 2.5, got %s", order.TotalWeight)
	}

	_, order, err = e.ledger.RemoveItem(ctx, cashier, order.ID, food.ID)
	if err != nil {
		t.Fatalf("remove food: %v", err)
	}
	if !order.FoodTotal.IsZero() || !order.TotalWeight.IsZero() || !order.TotalAmount.Equal(dec("14")) {
		t.Fatalf("unexpected totals after removal: %+v", order)
	}

	details, err := e.ledger.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(details.Items) != 1 || details.Items[0].ProductID != "soda" || len(details.Payments) != 0 {
		t.Fatalf("unexpected details %+v", details)
	}
	if err := details.Order.CheckTotals(); err != nil {
		t.Fatalf("totals invariant broken: %v", err)
	}
}

func TestLedgerAddItemValidation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	cases := []struct {
		name string
		in   AddItemInput
	}{
		{"zero quantity", AddItemInput{OrderID: order.ID, Type: model.ItemTypeFoodWeight, Quantity: dec("0"), UnitPrice: dec("10")}},
		{"negative price", AddItemInput{OrderID: order.ID, Type: model.ItemTypeFoodWeight, Quantity: dec("1"), UnitPrice: dec("-1")}},
		{"unknown type", AddItemInput{OrderID: order.ID, Type: "drink", Quantity: dec("1"), UnitPrice: dec("1")}},
		{"fractional extra", AddItemInput{OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("1.5"), UnitPrice: dec("1")}},
		{"rounds to zero", AddItemInput{OrderID: order.ID, Type: model.ItemTypeFoodWeight, Quantity: dec("0.0001"), UnitPrice: dec("1")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := e.ledger.AddItem(ctx, cashier, tc.in); !errors.Is(err, domainErrors.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLedgerRequiresOperator(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	anonymous := model.Actor{TerminalID: "till-1"}

	if _, err := e.ledger.CreateOrder(ctx, anonymous, "x"); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, _, err := e.ledger.AddItem(ctx, anonymous, AddItemInput{}); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, _, err := e.ledger.RemoveItem(ctx, anonymous, 1, 1); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := e.ledger.CancelOrder(ctx, anonymous, 1); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLedgerCustomerNameTooLong(t *testing.T) {
	e := newEngine()
	if _, err := e.ledger.CreateOrder(context.Background(), cashier, strings.Repeat("a", maxCustomerNameLen+1)); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLedgerNotFound(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	if _, _, err := e.ledger.RemoveItem(ctx, cashier, order.ID, 999); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for missing item, got %v", err)
	}
	if _, err := e.ledger.GetOrder(ctx, 999); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for missing order, got %v", err)
	}
	if _, _, err := e.ledger.AddItem(ctx, cashier, AddItemInput{OrderID: 999, Type: model.ItemTypeExtra, Quantity: dec("1"), UnitPrice: dec("1")}); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found for missing order, got %v", err)
	}
}

func TestLedgerRemoveItemDetectsDrift(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")
	item, _, err := e.ledger.AddItem(ctx, cashier, AddItemInput{OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("1"), UnitPrice: dec("5")})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	e.store.Mutate(order.ID, func(o *model.Order) {
		o.ExtrasTotal = dec("2")
		o.TotalAmount = dec("2")
	})

	_, _, err = e.ledger.RemoveItem(ctx, cashier, order.ID, item.ID)
	var critical *domainErrors.CriticalInconsistencyError
	if !errors.As(err, &critical) {
		t.Fatalf("expected critical inconsistency, got %v", err)
	}
	if critical.OrderID != order.ID || critical.OperatorID != cashier.OperatorID {
		t.Fatalf("unexpected details %+v", critical)
	}

	details, _ := e.ledger.GetOrder(ctx, order.ID)
	if len(details.Items) != 1 || !details.Order.TotalAmount.Equal(dec("2")) {
		t.Fatalf("expected nothing written, got %+v", details)
	}
}

func TestLedgerTerminalOrdersAreImmutable(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	cancelled, err := e.ledger.CancelOrder(ctx, cashier, order.ID)
	if err != nil || cancelled.Status != model.OrderStatusCancelled {
		t.Fatalf("cancel: %+v %v", cancelled, err)
	}

	if _, _, err := e.ledger.AddItem(ctx, cashier, AddItemInput{OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("1"), UnitPrice: dec("1")}); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict on cancelled order, got %v", err)
	}
	if _, err := e.ledger.CancelOrder(ctx, cashier, order.ID); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict on second cancel, got %v", err)
	}
	if _, err := e.lock.BeginEdit(ctx, cashier, order.ID); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict on lease for cancelled order, got %v", err)
	}
}
