package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

const orderColumns = `id, number, status, customer_name, total_weight, food_total, extras_total, total_amount,
                      opened_by, lease_holder, lease_expires_at, opened_at, closed_at, updated_at`

const itemColumns = `id, order_id, item_type, product_id, quantity, unit_price, total_price, created_at`

type orderEvent struct {
	ID          int64             `json:"id"`
	Number      int64             `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
	TotalWeight string            `json:"total_weight"`
	FoodTotal   string            `json:"food_total"`
	ExtrasTotal string            `json:"extras_total"`
	TotalAmount string            `json:"total_amount"`
	LeaseHolder string            `json:"lease_holder,omitempty"`
}

func orderPayload(o *model.Order) orderEvent {
	return orderEvent{
		ID:          o.ID,
		Number:      o.Number,
		Status:      o.Status,
		TotalWeight: model.WeightString(o.TotalWeight),
		FoodTotal:   model.MoneyString(o.FoodTotal),
		ExtrasTotal: model.MoneyString(o.ExtrasTotal),
		TotalAmount: model.MoneyString(o.TotalAmount),
		LeaseHolder: o.LeaseHolder,
	}
}

func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	var (
		o      model.Order
		holder *string
	)
	dest := append([]any{&o.ID, &o.Number, &o.Status, &o.CustomerName, &o.TotalWeight, &o.FoodTotal, &o.ExtrasTotal, &o.TotalAmount,
		&o.OpenedBy, &holder, &o.LeaseExpiresAt, &o.OpenedAt, &o.ClosedAt, &o.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if holder != nil {
		o.LeaseHolder = *holder
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*model.OrderItem, error) {
	var it model.OrderItem
	if err := row.Scan(&it.ID, &it.OrderID, &it.Type, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

// lockOrder reads the order row under FOR UPDATE together with the database
// clock, which is the only clock lease expiry is judged by.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, time.Time, error) {
	var dbNow time.Time
	order, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+`, clock_timestamp() FROM orders WHERE id=$1 FOR UPDATE`, orderID), &dbNow)
	if err != nil {
		return nil, time.Time{}, notFound(err, "order %d", orderID)
	}
	return order, dbNow, nil
}

func checkWritable(order *model.Order, holder string, now time.Time) error {
	if !order.Status.Editable() {
		return domainErrors.Conflict("order %d is %s", order.ID, order.Status)
	}
	if !order.WritableBy(holder, now) {
		return domainErrors.Conflict("order %d is being edited by %s", order.ID, order.LeaseHolder)
	}
	return nil
}

// applyDelta adds delta to the stored totals in one statement and verifies the result.
func applyDelta(ctx context.Context, tx pgx.Tx, orderID int64, delta model.TotalsDelta) (*model.Order, error) {
	const query = `UPDATE orders
                   SET total_weight = total_weight + $2::numeric,
                       food_total = food_total + $3::numeric,
                       extras_total = extras_total + $4::numeric,
                       total_amount = total_amount + $3::numeric + $4::numeric,
                       updated_at = NOW()
                   WHERE id = $1
                   RETURNING ` + orderColumns
	order, err := scanOrder(tx.QueryRow(ctx, query, orderID,
		model.WeightString(delta.Weight), model.MoneyString(delta.Food), model.MoneyString(delta.Extras)))
	if err != nil {
		if isPgError(err, pgCheckViolation) {
			return nil, &domainErrors.CriticalInconsistencyError{OrderID: orderID, Detail: "totals drift rejected by store", Cause: err}
		}
		return nil, err
	}
	if err := order.CheckTotals(); err != nil {
		return nil, &domainErrors.CriticalInconsistencyError{OrderID: orderID, Detail: "totals drift", Cause: err}
	}
	return order, nil
}

func (r *orderRepository) Create(ctx context.Context, customerName string, openedBy int64) (*model.Order, error) {
	const query = `INSERT INTO orders (status, customer_name, opened_by) VALUES ($1, $2, $3) RETURNING ` + orderColumns
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = scanOrder(tx.QueryRow(ctx, query, string(model.OrderStatusOpen), customerName, openedBy))
		if err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventOrderCreated, order.ID, orderPayload(order))
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, orderID int64) (*model.Order, error) {
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return nil, notFound(err, "order %d", orderID)
	}
	return order, nil
}

func (r *orderRepository) Items(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) AddItem(ctx context.Context, item model.OrderItem, holder string) (*model.OrderItem, *model.Order, error) {
	const insertItem = `INSERT INTO order_items (order_id, item_type, product_id, quantity, unit_price, total_price)
                        VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric)
                        RETURNING id, created_at`
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, now, err := lockOrder(ctx, tx, item.OrderID)
		if err != nil {
			return err
		}
		if err := checkWritable(current, holder, now); err != nil {
			return err
		}

		err = tx.QueryRow(ctx, insertItem, item.OrderID, string(item.Type), item.ProductID,
			model.WeightString(item.Quantity), model.MoneyString(item.UnitPrice), model.MoneyString(item.TotalPrice),
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return err
		}

		if order, err = applyDelta(ctx, tx, item.OrderID, item.Delta()); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventOrderUpdated, order.ID, orderPayload(order))
	})
	if err != nil {
		return nil, nil, err
	}
	return &item, order, nil
}

func (r *orderRepository) RemoveItem(ctx context.Context, orderID, itemID int64, holder string) (*model.OrderItem, *model.Order, error) {
	const deleteItem = `DELETE FROM order_items WHERE id=$1 AND order_id=$2 RETURNING ` + itemColumns
	var (
		item  *model.OrderItem
		order *model.Order
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, now, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := checkWritable(current, holder, now); err != nil {
			return err
		}

		if item, err = scanItem(tx.QueryRow(ctx, deleteItem, itemID, orderID)); err != nil {
			return notFound(err, "item %d on order %d", itemID, orderID)
		}

		if order, err = applyDelta(ctx, tx, orderID, item.Delta().Neg()); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventOrderUpdated, order.ID, orderPayload(order))
	})
	if err != nil {
		return nil, nil, err
	}
	return item, order, nil
}

func (r *orderRepository) Cancel(ctx context.Context, orderID int64) (*model.Order, error) {
	const query = `UPDATE orders SET status=$2, closed_at=NOW(), updated_at=NOW() WHERE id=$1 RETURNING ` + orderColumns
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		current, _, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(model.OrderStatusCancelled) {
			return domainErrors.Conflict("order %d is %s and cannot be cancelled", orderID, current.Status)
		}
		if order, err = scanOrder(tx.QueryRow(ctx, query, orderID, string(model.OrderStatusCancelled))); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventOrderCancelled, order.ID, orderPayload(order))
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
