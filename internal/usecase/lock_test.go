package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

func TestBeginEditSecondTerminalConflicts(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	lease, err := e.lock.BeginEdit(ctx, cashier, order.ID)
	if err != nil {
		t.Fatalf("first begin edit: %v", err)
	}
	if lease.Holder != cashier.TerminalID || !lease.ExpiresAt.Equal(e.clock.Now().Add(2*time.Minute)) {
		t.Fatalf("unexpected lease %+v", lease)
	}

	if _, err := e.lock.BeginEdit(ctx, waiter, order.ID); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict for second terminal, got %v", err)
	}
	if _, _, err := e.ledger.AddItem(ctx, waiter, AddItemInput{OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("1"), UnitPrice: dec("3")}); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict for foreign edit, got %v", err)
	}
	if _, _, err := e.ledger.AddItem(ctx, cashier, AddItemInput{OrderID: order.ID, Type: model.ItemTypeExtra, Quantity: dec("1"), UnitPrice: dec("3")}); err != nil {
		t.Fatalf("holder must be able to edit: %v", err)
	}
	if _, err := e.ledger.CancelOrder(ctx, cashier, order.ID); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("pending order must not be cancelled, got %v", err)
	}
}

func TestBeginEditRenewsAndExpires(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	if _, err := e.lock.BeginEdit(ctx, cashier, order.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	e.clock.Advance(time.Minute)
	renewed, err := e.lock.BeginEdit(ctx, cashier, order.ID)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if !renewed.ExpiresAt.Equal(e.clock.Now().Add(2 * time.Minute)) {
		t.Fatalf("expected renewed expiry, got %v", renewed.ExpiresAt)
	}

	e.clock.Advance(3 * time.Minute)
	taken, err := e.lock.BeginEdit(ctx, waiter, order.ID)
	if err != nil {
		t.Fatalf("expired lease must be reclaimable: %v", err)
	}
	if taken.Holder != waiter.TerminalID {
		t.Fatalf("unexpected holder %q", taken.Holder)
	}
}

func TestEndEditIsIdempotent(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	order, _ := e.ledger.CreateOrder(ctx, cashier, "")

	if _, err := e.lock.EndEdit(ctx, cashier, order.ID); err != nil {
		t.Fatalf("end edit on open order: %v", err)
	}
	if _, err := e.lock.BeginEdit(ctx, cashier, order.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if _, err := e.lock.EndEdit(ctx, waiter, order.ID); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict for foreign release, got %v", err)
	}
	released, err := e.lock.EndEdit(ctx, cashier, order.ID)
	if err != nil || released.Status != model.OrderStatusOpen || released.LeaseHolder != "" {
		t.Fatalf("unexpected release %+v %v", released, err)
	}
	if _, err := e.lock.EndEdit(ctx, cashier, order.ID); err != nil {
		t.Fatalf("second release must succeed: %v", err)
	}
}

func TestReleaseExpired(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	first, _ := e.ledger.CreateOrder(ctx, cashier, "")
	second, _ := e.ledger.CreateOrder(ctx, cashier, "")

	if _, err := e.lock.BeginEdit(ctx, cashier, first.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	e.clock.Advance(90 * time.Second)
	if _, err := e.lock.BeginEdit(ctx, waiter, second.ID); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	e.clock.Advance(time.Minute)

	ids, err := e.lock.ReleaseExpired(ctx, 10)
	if err != nil {
		t.Fatalf("release expired: %v", err)
	}
	if len(ids) != 1 || ids[0] != first.ID {
		t.Fatalf("expected only first order to expire, got %v", ids)
	}
	details, _ := e.ledger.GetOrder(ctx, first.ID)
	if details.Order.Status != model.OrderStatusOpen {
		t.Fatalf("expected open after expiry, got %s", details.Order.Status)
	}
}

func TestBeginEditRequiresTerminal(t *testing.T) {
	e := newEngine()
	if _, err := e.lock.BeginEdit(context.Background(), model.Actor{OperatorID: 1}, 1); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := e.lock.BeginEdit(context.Background(), model.Actor{TerminalID: "x"}, 1); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if NewLockUseCase(e.store, 0).ttl != 2*time.Minute {
		t.Fatal("expected default ttl")
	}
}
