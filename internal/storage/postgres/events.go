package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

// ClaimBatch hands out undelivered events in id order. A claim hides the rows from
// other relays until it lapses, so an event is redelivered if its relay dies.
// An event is held back while an earlier event of the same aggregate is claimed
// and undelivered, so a failed event is never overtaken by a later one.
func (r *eventRepository) ClaimBatch(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error) {
	const selectQuery = `SELECT e.id, e.kind, e.aggregate_id, e.payload, e.created_at
                         FROM change_events e
                         WHERE e.delivered_at IS NULL
                           AND (e.claimed_until IS NULL OR e.claimed_until < NOW())
                           AND NOT EXISTS (
                               SELECT 1 FROM change_events prev
                               WHERE prev.aggregate_id = e.aggregate_id
                                 AND prev.id < e.id
                                 AND prev.delivered_at IS NULL
                                 AND prev.claimed_until >= NOW()
                           )
                         ORDER BY e.id
                         LIMIT $1`
	const claimQuery = `UPDATE change_events SET claimed_until = NOW() + $2::bigint * INTERVAL '1 millisecond' WHERE id = ANY($1)`

	var events []model.ChangeEvent
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		// Claims are serialized so two relays never split one aggregate's backlog.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, relayLockKey); err != nil {
			return err
		}
		events = nil

		rows, err := tx.Query(ctx, selectQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []int64
		for rows.Next() {
			var (
				ev      model.ChangeEvent
				payload []byte
			)
			if err := rows.Scan(&ev.ID, &ev.Kind, &ev.AggregateID, &payload, &ev.CreatedAt); err != nil {
				return err
			}
			ev.Payload = payload
			events = append(events, ev)
			ids = append(ids, ev.ID)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		if len(ids) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, claimQuery, ids, claimFor.Milliseconds())
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) MarkDelivered(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.storage.pool.Exec(ctx, `UPDATE change_events SET delivered_at=NOW() WHERE id = ANY($1)`, ids)
	return err
}
