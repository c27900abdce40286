package usecase

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/test"
)

var (
	cashier = model.Actor{OperatorID: 3, TerminalID: "till-1"}
	waiter  = model.Actor{OperatorID: 4, TerminalID: "till-2"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type engine struct {
	store    *test.LedgerStore
	clock    *clock
	ledger   *LedgerUseCase
	lock     *LockUseCase
	payments *PaymentUseCase
	drawer   *DrawerUseCase
	sales    *SalesUseCase
}

func newEngine() *engine {
	store := test.NewLedgerStore()
	c := newClock()
	store.Now = c.Now
	drawer := NewDrawerUseCase(store)
	return &engine{
		store:    store,
		clock:    c,
		ledger:   NewLedgerUseCase(store, store),
		lock:     NewLockUseCase(store, 2*time.Minute),
		payments: NewPaymentUseCase(store, store, discardLogger()),
		drawer:   drawer,
		sales:    NewSalesUseCase(store, drawer, time.UTC),
	}
}
