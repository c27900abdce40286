package postgres

import (
	"context"
	"time"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

func (r *salesRepository) Totals(ctx context.Context, from, to time.Time) ([]model.MethodTotal, error) {
	const query = `SELECT p.method, COUNT(*), COALESCE(SUM(p.amount), 0), COALESCE(SUM(p.change_amount), 0)
                   FROM payments p JOIN orders o ON o.id = p.order_id
                   WHERE o.status = 'closed' AND o.closed_at >= $1 AND o.closed_at < $2
                   GROUP BY p.method
                   ORDER BY p.method`

	rows, err := r.storage.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.MethodTotal
	for rows.Next() {
		var t model.MethodTotal
		if err := rows.Scan(&t.Method, &t.Orders, &t.Amount, &t.ChangeAmount); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
