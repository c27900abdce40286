package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

const reconcileTimeout = 5 * time.Second

var newAttemptID = uuid.New

// CloseOrderInput describes how a tab is paid. TenderedAmount is only
// meaningful for cash.
type CloseOrderInput struct {
	OrderID        int64
	Method         model.PaymentMethod
	TenderedAmount decimal.Decimal
}

// PaymentUseCase closes tabs against payments.
type PaymentUseCase struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	logger   *slog.Logger
}

// NewPaymentUseCase constructs PaymentUseCase.
func NewPaymentUseCase(orders repository.OrderRepository, payments repository.PaymentRepository, logger *slog.Logger) *PaymentUseCase {
	return &PaymentUseCase{orders: orders, payments: payments, logger: logger}
}

// CloseOrder settles the order in one store transaction. When the outcome of that
// transaction is unknown the attempt is reconciled exactly once by its id.
func (u *PaymentUseCase) CloseOrder(ctx context.Context, actor model.Actor, in CloseOrderInput) (*model.Payment, *model.Order, error) {
	if !actor.Identified() {
		return nil, nil, domainErrors.ErrUnauthorized
	}
	if !in.Method.Valid() {
		return nil, nil, domainErrors.Validation("unknown payment method %q", in.Method)
	}

	order, err := u.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status.Terminal() {
		return nil, nil, domainErrors.Conflict("order %d is %s", order.ID, order.Status)
	}
	if !order.TotalAmount.IsPositive() {
		return nil, nil, domainErrors.Validation("order %d has nothing to pay", order.ID)
	}

	payment, err := buildPayment(order, in, actor)
	if err != nil {
		return nil, nil, err
	}

	settled, closed, err := u.payments.Settle(ctx, payment, actor.TerminalID)
	if err == nil {
		u.logger.Info("order closed",
			slog.Int64("order_id", closed.ID),
			slog.String("method", string(settled.Method)),
			slog.String("amount", model.MoneyString(settled.Amount)),
			slog.String("attempt_id", settled.AttemptID.String()),
		)
		return settled, closed, nil
	}
	if domainErrors.IsDomain(err) {
		return nil, nil, err
	}

	return u.reconcile(ctx, actor, payment, err)
}

func buildPayment(order *model.Order, in CloseOrderInput, actor model.Actor) (model.Payment, error) {
	total := model.RoundMoney(order.TotalAmount)
	payment := model.Payment{
		OrderID:        order.ID,
		AttemptID:      newAttemptID(),
		Method:         in.Method,
		Amount:         total,
		TenderedAmount: total,
		ChangeAmount:   decimal.Zero,
		ProcessedBy:    actor.OperatorID,
	}
	if in.Method != model.PaymentMethodCash {
		return payment, nil
	}

	tendered := model.RoundMoney(in.TenderedAmount)
	if tendered.LessThan(total) {
		return model.Payment{}, domainErrors.Validation("tendered %s is below total %s",
			model.MoneyString(tendered), model.MoneyString(total))
	}
	payment.TenderedAmount = tendered
	payment.ChangeAmount = tendered.Sub(total)
	return payment, nil
}

func (u *PaymentUseCase) reconcile(ctx context.Context, actor model.Actor, payment model.Payment, settleErr error) (*model.Payment, *model.Order, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()

	u.logger.Warn("settlement outcome unknown, reconciling",
		slog.Int64("order_id", payment.OrderID),
		slog.String("attempt_id", payment.AttemptID.String()),
		slog.String("error", settleErr.Error()),
	)

	found, err := u.payments.Reconcile(rctx, payment.AttemptID)
	if err != nil {
		critical := &domainErrors.CriticalInconsistencyError{
			OrderID:    payment.OrderID,
			AttemptID:  payment.AttemptID,
			OperatorID: actor.OperatorID,
			Detail:     "settlement failed and its reconciliation failed",
			Cause:      errors.Join(settleErr, err),
		}
		u.logger.Error("manual reconciliation required",
			slog.Int64("order_id", critical.OrderID),
			slog.String("attempt_id", critical.AttemptID.String()),
			slog.Int64("operator_id", critical.OperatorID),
			slog.String("error", critical.Cause.Error()),
		)
		return nil, nil, critical
	}
	if found == nil {
		return nil, nil, fmt.Errorf("settle order %d: %w", payment.OrderID, settleErr)
	}

	order, err := u.orders.Get(rctx, payment.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load settled order %d: %w", payment.OrderID, err)
	}
	u.logger.Info("settlement confirmed by reconciliation",
		slog.Int64("order_id", order.ID),
		slog.String("attempt_id", found.AttemptID.String()),
	)
	return found, order, nil
}
