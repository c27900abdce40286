package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

type leaseEvent struct {
	OrderID   int64      `json:"order_id"`
	Holder    string     `json:"holder,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (r *leaseRepository) Acquire(ctx context.Context, orderID int64, holder string, ttl time.Duration) (*model.EditLease, error) {
	const query = `UPDATE orders SET status=$2, lease_holder=$3, lease_expires_at=$4, updated_at=NOW() WHERE id=$1`
	var lease *model.EditLease
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, now, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := checkWritable(current, holder, now); err != nil {
			return err
		}

		lease = &model.EditLease{OrderID: orderID, Holder: holder, ExpiresAt: now.Add(ttl)}
		if _, err := tx.Exec(ctx, query, orderID, string(model.OrderStatusPending), holder, lease.ExpiresAt); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventLeaseAcquired, orderID, leaseEvent{OrderID: orderID, Holder: holder, ExpiresAt: &lease.ExpiresAt})
	})
	if err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *leaseRepository) Release(ctx context.Context, orderID int64, holder string) (*model.Order, error) {
	const query = `UPDATE orders SET status=$2, lease_holder=NULL, lease_expires_at=NULL, updated_at=NOW()
                   WHERE id=$1 RETURNING ` + orderColumns
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, now, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		switch current.Status {
		case model.OrderStatusOpen:
			order = current
			return nil
		case model.OrderStatusPending:
			if err := checkWritable(current, holder, now); err != nil {
				return err
			}
		default:
			return domainErrors.Conflict("order %d is %s", orderID, current.Status)
		}

		if order, err = scanOrder(tx.QueryRow(ctx, query, orderID, string(model.OrderStatusOpen))); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventLeaseReleased, orderID, leaseEvent{OrderID: orderID, Holder: current.LeaseHolder})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *leaseRepository) ReleaseExpired(ctx context.Context, limit int) ([]int64, error) {
	const query = `UPDATE orders SET status='open', lease_holder=NULL, lease_expires_at=NULL, updated_at=NOW()
                   WHERE id IN (
                       SELECT id FROM orders
                       WHERE status='pending' AND lease_expires_at <= NOW()
                       ORDER BY lease_expires_at
                       LIMIT $1
                       FOR UPDATE SKIP LOCKED
                   )
                   RETURNING id`

	var ids []int64
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, id := range ids {
			if err := appendEvent(ctx, tx, model.EventLeaseExpired, id, leaseEvent{OrderID: id}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
