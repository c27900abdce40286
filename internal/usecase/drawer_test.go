package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

func TestDrawerReconciliation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	status, err := e.drawer.Status(ctx)
	if err != nil || status.IsOpen {
		t.Fatalf("expected closed drawer before first session, got %+v %v", status, err)
	}

	open, err := e.drawer.OpenDrawer(ctx, cashier, dec("100.00"), "morning shift")
	if err != nil {
		t.Fatalf("open drawer: %v", err)
	}
	if open.Type != model.OperationOpen || !open.OpeningBalance.Equal(dec("100")) {
		t.Fatalf("unexpected open operation %+v", open)
	}

	e.clock.Advance(time.Hour)
	order := seedTab(t, e)
	if _, _, err := e.payments.CloseOrder(ctx, cashier, CloseOrderInput{OrderID: order.ID, Method: model.PaymentMethodCash, TenderedAmount: dec("200")}); err != nil {
		t.Fatalf("close order: %v", err)
	}
	card := seedTab(t, e)
	if _, _, err := e.payments.CloseOrder(ctx, cashier, CloseOrderInput{OrderID: card.ID, Method: model.PaymentMethodCredit}); err != nil {
		t.Fatalf("close card order: %v", err)
	}

	status, err = e.drawer.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsOpen || !status.CashReceived.Equal(dec("163.75")) || !status.Expected.Equal(dec("263.75")) {
		t.Fatalf("unexpected running status %+v", status)
	}

	closed, err := e.drawer.CloseDrawer(ctx, cashier, dec("260.00"), "")
	if err != nil {
		t.Fatalf("close drawer: %v", err)
	}
	if !closed.ExpectedBalance.Equal(dec("263.75")) || !closed.Difference.Equal(dec("-3.75")) || !closed.ClosingBalance.Equal(dec("260")) {
		t.Fatalf("unexpected reconciliation %+v", closed)
	}
	if closed.Seq <= open.Seq {
		t.Fatalf("expected close after open in sequence, got %d <= %d", closed.Seq, open.Seq)
	}

	status, _ = e.drawer.Status(ctx)
	if status.IsOpen || status.LastOperation.Type != model.OperationClose {
		t.Fatalf("expected closed drawer, got %+v", status)
	}
}

func TestDrawerSingleOpen(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	if _, err := e.drawer.CloseDrawer(ctx, cashier, dec("0"), ""); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict closing a closed drawer, got %v", err)
	}
	if _, err := e.drawer.OpenDrawer(ctx, cashier, dec("50"), ""); err != nil {
		t.Fatalf("open drawer: %v", err)
	}
	if _, err := e.drawer.OpenDrawer(ctx, waiter, dec("50"), ""); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict on second open, got %v", err)
	}
}

func TestDrawerValidation(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	if _, err := e.drawer.OpenDrawer(ctx, cashier, dec("-1"), ""); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := e.drawer.CloseDrawer(ctx, cashier, dec("-1"), ""); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := e.drawer.OpenDrawer(ctx, model.Actor{}, dec("1"), ""); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestDrawerHistory(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.drawer.OpenDrawer(ctx, cashier, dec("10"), ""); err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := e.drawer.CloseDrawer(ctx, cashier, dec("10"), ""); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	history, err := e.drawer.History(ctx, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 6 || history[0].Type != model.OperationClose || history[0].Seq != 6 {
		t.Fatalf("expected newest first, got %+v", history)
	}
	history, _ = e.drawer.History(ctx, 2)
	if len(history) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(history))
	}
}
