package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

const paymentColumns = `id, order_id, attempt_id, method, amount, tendered_amount, change_amount, processed_by, processed_at`

type paymentEvent struct {
	ID             int64               `json:"id"`
	OrderID        int64               `json:"order_id"`
	AttemptID      string              `json:"attempt_id"`
	Method         model.PaymentMethod `json:"method"`
	Amount         string              `json:"amount"`
	TenderedAmount string              `json:"tendered_amount"`
	ChangeAmount   string              `json:"change_amount"`
	ProcessedBy    int64               `json:"processed_by"`
}

func paymentPayload(p *model.Payment) paymentEvent {
	return paymentEvent{
		ID:             p.ID,
		OrderID:        p.OrderID,
		AttemptID:      p.AttemptID.String(),
		Method:         p.Method,
		Amount:         model.MoneyString(p.Amount),
		TenderedAmount: model.MoneyString(p.TenderedAmount),
		ChangeAmount:   model.MoneyString(p.ChangeAmount),
		ProcessedBy:    p.ProcessedBy,
	}
}

func scanPayment(row pgx.Row, extra ...any) (*model.Payment, error) {
	var p model.Payment
	dest := append([]any{&p.ID, &p.OrderID, &p.AttemptID, &p.Method, &p.Amount, &p.TenderedAmount, &p.ChangeAmount,
		&p.ProcessedBy, &p.ProcessedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Settle(ctx context.Context, payment model.Payment, holder string) (*model.Payment, *model.Order, error) {
	const insertPayment = `INSERT INTO payments (order_id, attempt_id, method, amount, tendered_amount, change_amount, processed_by, processed_at)
                           VALUES ($1, $2::uuid, $3, $4::numeric, $5::numeric, $6::numeric, $7, clock_timestamp())
                           RETURNING id, processed_at`
	const closeOrder = `UPDATE orders
                        SET status=$2, closed_at=$3, lease_holder=NULL, lease_expires_at=NULL, updated_at=NOW()
                        WHERE id=$1
                        RETURNING ` + orderColumns

	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, now, err := lockOrder(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}
		if err := checkWritable(current, holder, now); err != nil {
			return err
		}
		if !current.TotalAmount.Equal(payment.Amount) {
			return domainErrors.Conflict("order %d total changed to %s", current.ID, model.MoneyString(current.TotalAmount))
		}
		if payment.Method == model.PaymentMethodCash {
			// Drawer open and close wait for in-flight cash, so processed_at orders
			// cash against the operation log.
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, drawerLockKey); err != nil {
				return err
			}
		}

		err = tx.QueryRow(ctx, insertPayment, payment.OrderID, payment.AttemptID.String(), string(payment.Method),
			model.MoneyString(payment.Amount), model.MoneyString(payment.TenderedAmount), model.MoneyString(payment.ChangeAmount),
			payment.ProcessedBy,
		).Scan(&payment.ID, &payment.ProcessedAt)
		if err != nil {
			if isPgError(err, pgUniqueViolation) {
				return domainErrors.Conflict("order %d already has a payment", payment.OrderID)
			}
			return err
		}

		if order, err = scanOrder(tx.QueryRow(ctx, closeOrder, payment.OrderID, string(model.OrderStatusClosed), payment.ProcessedAt)); err != nil {
			return err
		}
		if err := appendEvent(ctx, tx, model.EventPaymentRecorded, order.ID, paymentPayload(&payment)); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventOrderClosed, order.ID, orderPayload(order))
	})
	if err != nil {
		return nil, nil, err
	}
	return &payment, order, nil
}

func (r *paymentRepository) Reconcile(ctx context.Context, attemptID uuid.UUID) (*model.Payment, error) {
	const query = `SELECT p.id, p.order_id, p.attempt_id, p.method, p.amount, p.tendered_amount, p.change_amount,
                          p.processed_by, p.processed_at, o.status
                   FROM payments p JOIN orders o ON o.id = p.order_id
                   WHERE p.attempt_id = $1::uuid
                   FOR UPDATE`

	var found *model.Payment
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var status model.OrderStatus
		payment, err := scanPayment(tx.QueryRow(ctx, query, attemptID.String()), &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return err
		}
		if status == model.OrderStatusClosed {
			found = payment
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE id=$1`, payment.ID); err != nil {
			return err
		}
		r.storage.logger.Warn("removed orphaned payment",
			slog.Int64("payment_id", payment.ID),
			slog.Int64("order_id", payment.OrderID),
			slog.String("attempt_id", attemptID.String()),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.Payment, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
