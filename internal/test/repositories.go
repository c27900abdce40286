package test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

// SettleFailure selects how LedgerStore.Settle misbehaves.
type SettleFailure int

const (
	// SettleOK settles normally.
	SettleOK SettleFailure = iota
	// SettleLost fails before anything is written.
	SettleLost
	// SettleCommittedLost commits the settlement and then reports an error.
	SettleCommittedLost
	// SettleOrphaned writes the payment without closing the order and reports an error.
	SettleOrphaned
)

// LedgerStore is an in-memory implementation of every ledger repository. It
// applies the same guards as the SQL store, serialized by one mutex.
type LedgerStore struct {
	mu sync.Mutex

	Now func() time.Time

	SettleFailure SettleFailure
	SettleErr     error
	ReconcileErr  error
	Err           error

	orders     map[int64]*model.Order
	items      map[int64]*model.OrderItem
	payments   []model.Payment
	operations []model.CashRegisterOperation
	events     []model.ChangeEvent
	delivered  map[int64]bool

	reconcileCalls int
	nextID         int64
	nextNumber     int64
}

// NewLedgerStore creates an empty store using the wall clock.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		Now:       time.Now,
		orders:    make(map[int64]*model.Order),
		items:     make(map[int64]*model.OrderItem),
		delivered: make(map[int64]bool),
	}
}

var (
	_ repository.Factory           = (*LedgerStore)(nil)
	_ repository.OrderRepository   = (*LedgerStore)(nil)
	_ repository.LeaseRepository   = (*LedgerStore)(nil)
	_ repository.PaymentRepository = (*LedgerStore)(nil)
	_ repository.DrawerRepository  = (*LedgerStore)(nil)
	_ repository.SalesRepository   = (*LedgerStore)(nil)
	_ repository.EventRepository   = (*LedgerStore)(nil)
)

func (s *LedgerStore) Orders() repository.OrderRepository     { return s }
func (s *LedgerStore) Leases() repository.LeaseRepository     { return s }
func (s *LedgerStore) Payments() repository.PaymentRepository { return s }
func (s *LedgerStore) Drawer() repository.DrawerRepository    { return s }
func (s *LedgerStore) Sales() repository.SalesRepository      { return s }
func (s *LedgerStore) Events() repository.EventRepository     { return s }

func (s *LedgerStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *LedgerStore) emit(kind model.EventKind, aggregateID int64, payload any) {
	raw, _ := json.Marshal(payload)
	s.events = append(s.events, model.ChangeEvent{
		ID:          int64(len(s.events) + 1),
		Kind:        kind,
		AggregateID: aggregateID,
		Payload:     raw,
		CreatedAt:   s.Now(),
	})
}

func (s *LedgerStore) order(orderID int64) (*model.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, domainErrors.NotFound("order %d", orderID)
	}
	return o, nil
}

func (s *LedgerStore) writable(o *model.Order, holder string) error {
	if !o.Status.Editable() {
		return domainErrors.Conflict("order %d is %s", o.ID, o.Status)
	}
	if !o.WritableBy(holder, s.Now()) {
		return domainErrors.Conflict("order %d is being edited by %s", o.ID, o.LeaseHolder)
	}
	return nil
}

func copyOrder(o *model.Order) *model.Order {
	c := *o
	return &c
}

// Create opens a tab.
func (s *LedgerStore) Create(ctx context.Context, customerName string, openedBy int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	s.nextNumber++
	now := s.Now()
	o := &model.Order{
		ID:           s.id(),
		Number:       s.nextNumber,
		Status:       model.OrderStatusOpen,
		CustomerName: customerName,
		TotalWeight:  decimal.Zero,
		FoodTotal:    decimal.Zero,
		ExtrasTotal:  decimal.Zero,
		TotalAmount:  decimal.Zero,
		OpenedBy:     openedBy,
		OpenedAt:     now,
		UpdatedAt:    now,
	}
	s.orders[o.ID] = o
	s.emit(model.EventOrderCreated, o.ID, o)
	return copyOrder(o), nil
}

// Get returns a snapshot of the order.
func (s *LedgerStore) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, err := s.order(orderID)
	if err != nil {
		return nil, err
	}
	return copyOrder(o), nil
}

// Items lists order lines in insertion order.
func (s *LedgerStore) Items(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.OrderItem
	for _, it := range s.items {
		if it.OrderID == orderID {
			result = append(result, *it)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// AddItem inserts the line and applies its delta.
func (s *LedgerStore) AddItem(ctx context.Context, item model.OrderItem, holder string) (*model.OrderItem, *model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, nil, s.Err
	}
	o, err := s.order(item.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.writable(o, holder); err != nil {
		return nil, nil, err
	}

	item.ID = s.id()
	item.CreatedAt = s.Now()
	updated := o.Apply(item, 1)
	updated.UpdatedAt = item.CreatedAt
	*o = updated
	stored := item
	s.items[item.ID] = &stored
	s.emit(model.EventOrderUpdated, o.ID, o)
	return &item, copyOrder(o), nil
}

// RemoveItem deletes the line and subtracts its delta. Nothing changes when the
// result would break the totals invariants.
func (s *LedgerStore) RemoveItem(ctx context.Context, orderID, itemID int64, holder string) (*model.OrderItem, *model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, nil, s.Err
	}
	o, err := s.order(orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.writable(o, holder); err != nil {
		return nil, nil, err
	}
	it, ok := s.items[itemID]
	if !ok || it.OrderID != orderID {
		return nil, nil, domainErrors.NotFound("item %d on order %d", itemID, orderID)
	}

	updated := o.Apply(*it, -1)
	if err := updated.CheckTotals(); err != nil {
		return nil, nil, &domainErrors.CriticalInconsistencyError{OrderID: orderID, Detail: "totals drift on item removal", Cause: err}
	}
	updated.UpdatedAt = s.Now()
	*o = updated
	removed := *it
	delete(s.items, itemID)
	s.emit(model.EventOrderUpdated, o.ID, o)
	return &removed, copyOrder(o), nil
}

// Cancel moves an open order to cancelled.
func (s *LedgerStore) Cancel(ctx context.Context, orderID int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, err := s.order(orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransition(model.OrderStatusCancelled) {
		return nil, domainErrors.Conflict("order %d is %s and cannot be cancelled", orderID, o.Status)
	}
	now := s.Now()
	o.Status = model.OrderStatusCancelled
	o.ClosedAt = &now
	o.UpdatedAt = now
	s.emit(model.EventOrderCancelled, o.ID, o)
	return copyOrder(o), nil
}

// Acquire grants or renews the lease of holder.
func (s *LedgerStore) Acquire(ctx context.Context, orderID int64, holder string, ttl time.Duration) (*model.EditLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, err := s.order(orderID)
	if err != nil {
		return nil, err
	}
	if err := s.writable(o, holder); err != nil {
		return nil, err
	}
	now := s.Now()
	expires := now.Add(ttl)
	o.Status = model.OrderStatusPending
	o.LeaseHolder = holder
	o.LeaseExpiresAt = &expires
	o.UpdatedAt = now
	lease := &model.EditLease{OrderID: orderID, Holder: holder, ExpiresAt: expires}
	s.emit(model.EventLeaseAcquired, o.ID, lease)
	return lease, nil
}

// Release reverts the order to open unless another holder owns a valid lease.
func (s *LedgerStore) Release(ctx context.Context, orderID int64, holder string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	o, err := s.order(orderID)
	if err != nil {
		return nil, err
	}
	switch o.Status {
	case model.OrderStatusOpen:
		return copyOrder(o), nil
	case model.OrderStatusPending:
		if err := s.writable(o, holder); err != nil {
			return nil, err
		}
	default:
		return nil, domainErrors.Conflict("order %d is %s", orderID, o.Status)
	}
	o.Status = model.OrderStatusOpen
	o.LeaseHolder = ""
	o.LeaseExpiresAt = nil
	o.UpdatedAt = s.Now()
	s.emit(model.EventLeaseReleased, o.ID, o)
	return copyOrder(o), nil
}

// ReleaseExpired reverts expired leases, oldest first.
func (s *LedgerStore) ReleaseExpired(ctx context.Context, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	now := s.Now()
	var ids []int64
	for id, o := range s.orders {
		if o.Status == model.OrderStatusPending && !o.LeaseActive(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	for _, id := range ids {
		o := s.orders[id]
		o.Status = model.OrderStatusOpen
		o.LeaseHolder = ""
		o.LeaseExpiresAt = nil
		o.UpdatedAt = now
		s.emit(model.EventLeaseExpired, id, o)
	}
	return ids, nil
}

// Settle records the payment and closes the order.
func (s *LedgerStore) Settle(ctx context.Context, payment model.Payment, holder string) (*model.Payment, *model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, nil, s.Err
	}
	if s.SettleFailure == SettleLost {
		return nil, nil, s.settleErr()
	}
	o, err := s.order(payment.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.writable(o, holder); err != nil {
		return nil, nil, err
	}
	if !o.TotalAmount.Equal(payment.Amount) {
		return nil, nil, domainErrors.Conflict("order %d total changed to %s", o.ID, model.MoneyString(o.TotalAmount))
	}
	for _, p := range s.payments {
		if p.OrderID == o.ID {
			return nil, nil, domainErrors.Conflict("order %d already has a payment", o.ID)
		}
	}

	now := s.Now()
	payment.ID = s.id()
	payment.ProcessedAt = now
	s.payments = append(s.payments, payment)
	if s.SettleFailure == SettleOrphaned {
		return nil, nil, s.settleErr()
	}

	o.Status = model.OrderStatusClosed
	o.ClosedAt = &now
	o.LeaseHolder = ""
	o.LeaseExpiresAt = nil
	o.UpdatedAt = now
	s.emit(model.EventPaymentRecorded, o.ID, payment)
	s.emit(model.EventOrderClosed, o.ID, o)
	if s.SettleFailure == SettleCommittedLost {
		return nil, nil, s.settleErr()
	}
	return &payment, copyOrder(o), nil
}

func (s *LedgerStore) settleErr() error {
	if s.SettleErr != nil {
		return s.SettleErr
	}
	return context.DeadlineExceeded
}

// Reconcile resolves a settlement attempt by id.
func (s *LedgerStore) Reconcile(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcileCalls++
	if s.ReconcileErr != nil {
		return nil, s.ReconcileErr
	}
	for i, p := range s.payments {
		if p.AttemptID != attemptID {
			continue
		}
		if o, ok := s.orders[p.OrderID]; ok && o.Status == model.OrderStatusClosed {
			found := p
			return &found, nil
		}
		s.payments = append(s.payments[:i], s.payments[i+1:]...)
		return nil, nil
	}
	return nil, nil
}

// ReconcileCalls reports how many reconciliations were attempted.
func (s *LedgerStore) ReconcileCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcileCalls
}

// ListByOrder returns payments of an order.
func (s *LedgerStore) ListByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			result = append(result, p)
		}
	}
	return result, nil
}

// Latest returns the newest drawer operation.
func (s *LedgerStore) Latest(ctx context.Context) (*model.CashRegisterOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.latest()
}

func (s *LedgerStore) latest() (*model.CashRegisterOperation, error) {
	if len(s.operations) == 0 {
		return nil, domainErrors.NotFound("drawer operations")
	}
	op := s.operations[len(s.operations)-1]
	return &op, nil
}

func (s *LedgerStore) appendOperation(op model.CashRegisterOperation) *model.CashRegisterOperation {
	op.ID = s.id()
	op.Seq = int64(len(s.operations) + 1)
	op.CreatedAt = s.Now()
	s.operations = append(s.operations, op)
	return &op
}

// Open appends an open operation unless a session is running.
func (s *LedgerStore) Open(ctx context.Context, openingFloat decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if latest, err := s.latest(); err == nil && latest.Type == model.OperationOpen {
		return nil, domainErrors.Conflict("drawer is already open since operation %d", latest.Seq)
	}
	opening := openingFloat
	op := s.appendOperation(model.CashRegisterOperation{
		Type:           model.OperationOpen,
		Amount:         openingFloat,
		OpeningBalance: &opening,
		OperatorID:     operatorID,
		Notes:          notes,
	})
	s.emit(model.EventDrawerOpened, op.ID, op)
	return op, nil
}

// Close reconciles the session and appends a close operation.
func (s *LedgerStore) Close(ctx context.Context, counted decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	latest, err := s.latest()
	if err != nil || latest.Type != model.OperationOpen {
		return nil, domainErrors.Conflict("drawer is not open")
	}
	opening := decimal.Zero
	if latest.OpeningBalance != nil {
		opening = *latest.OpeningBalance
	}
	r := model.Reconcile(opening, s.cashSince(latest.CreatedAt), counted)
	op := s.appendOperation(model.CashRegisterOperation{
		Type:            model.OperationClose,
		Amount:          r.CountedAmount,
		OpeningBalance:  &r.OpeningBalance,
		ClosingBalance:  &r.CountedAmount,
		ExpectedBalance: &r.ExpectedBalance,
		Difference:      &r.Difference,
		OperatorID:      operatorID,
		Notes:           notes,
	})
	s.emit(model.EventDrawerClosed, op.ID, op)
	return op, nil
}

// CashSince sums cash payments processed at or after since.
func (s *LedgerStore) CashSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	return s.cashSince(since), nil
}

func (s *LedgerStore) cashSince(since time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.payments {
		if p.Method == model.PaymentMethodCash && !p.ProcessedAt.Before(since) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// History lists drawer operations newest first.
func (s *LedgerStore) History(ctx context.Context, limit int) ([]model.CashRegisterOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.CashRegisterOperation
	for i := len(s.operations) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.operations[i])
	}
	return result, nil
}

// Totals groups closed orders in [from, to) by payment method.
func (s *LedgerStore) Totals(ctx context.Context, from, to time.Time) ([]model.MethodTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	byMethod := make(map[model.PaymentMethod]*model.MethodTotal)
	for _, p := range s.payments {
		o, ok := s.orders[p.OrderID]
		if !ok || o.Status != model.OrderStatusClosed || o.ClosedAt == nil {
			continue
		}
		if o.ClosedAt.Before(from) || !o.ClosedAt.Before(to) {
			continue
		}
		t, ok := byMethod[p.Method]
		if !ok {
			t = &model.MethodTotal{Method: p.Method, Amount: decimal.Zero, ChangeAmount: decimal.Zero}
			byMethod[p.Method] = t
		}
		t.Orders++
		t.Amount = t.Amount.Add(o.TotalAmount)
		t.ChangeAmount = t.ChangeAmount.Add(p.ChangeAmount)
	}
	result := make([]model.MethodTotal, 0, len(byMethod))
	for _, t := range byMethod {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Method < result[j].Method })
	return result, nil
}

// ClaimBatch returns undelivered events in id order.
func (s *LedgerStore) ClaimBatch(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.ChangeEvent
	for _, e := range s.events {
		if s.delivered[e.ID] {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// MarkDelivered flags events as published.
func (s *LedgerStore) MarkDelivered(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, id := range ids {
		s.delivered[id] = true
	}
	return nil
}

// EventKinds lists emitted event kinds in order.
func (s *LedgerStore) EventKinds() []model.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]model.EventKind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// PaymentCount reports stored payments.
func (s *LedgerStore) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

// Mutate edits a stored order directly, bypassing every guard.
func (s *LedgerStore) Mutate(orderID int64, fn func(*model.Order)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[orderID]; ok {
		fn(o)
	}
}
