package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

const operationColumns = `id, seq, op_type, amount, opening_balance, closing_balance, expected_balance, difference,
                          operator_id, notes, created_at`

const cashSinceQuery = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE method='cash' AND processed_at >= $1`

type operationEvent struct {
	ID              int64               `json:"id"`
	Seq             int64               `json:"seq"`
	Type            model.OperationType `json:"op_type"`
	Amount          string              `json:"amount"`
	ExpectedBalance string              `json:"expected_balance,omitempty"`
	Difference      string              `json:"difference,omitempty"`
	OperatorID      int64               `json:"operator_id"`
}

func operationPayload(op *model.CashRegisterOperation) operationEvent {
	ev := operationEvent{ID: op.ID, Seq: op.Seq, Type: op.Type, Amount: model.MoneyString(op.Amount), OperatorID: op.OperatorID}
	if op.ExpectedBalance != nil {
		ev.ExpectedBalance = model.MoneyString(*op.ExpectedBalance)
	}
	if op.Difference != nil {
		ev.Difference = model.MoneyString(*op.Difference)
	}
	return ev
}

func scanOperation(row pgx.Row) (*model.CashRegisterOperation, error) {
	var (
		op                                    model.CashRegisterOperation
		opening, closing, expected, diff decimal.NullDecimal
	)
	err := row.Scan(&op.ID, &op.Seq, &op.Type, &op.Amount, &opening, &closing, &expected, &diff,
		&op.OperatorID, &op.Notes, &op.CreatedAt)
	if err != nil {
		return nil, err
	}
	op.OpeningBalance = nullable(opening)
	op.ClosingBalance = nullable(closing)
	op.ExpectedBalance = nullable(expected)
	op.Difference = nullable(diff)
	return &op, nil
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func moneyArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return model.MoneyString(*d)
}

func latestOperation(ctx context.Context, q queryer) (*model.CashRegisterOperation, error) {
	op, err := scanOperation(q.QueryRow(ctx, `SELECT `+operationColumns+` FROM cash_register_operations ORDER BY seq DESC LIMIT 1`))
	if err != nil {
		return nil, notFound(err, "drawer operations")
	}
	return op, nil
}

func insertOperation(ctx context.Context, tx pgx.Tx, op *model.CashRegisterOperation) error {
	const query = `INSERT INTO cash_register_operations
                       (op_type, amount, opening_balance, closing_balance, expected_balance, difference, operator_id, notes, created_at)
                   VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7, $8, clock_timestamp())
                   RETURNING id, seq, created_at`
	return tx.QueryRow(ctx, query, string(op.Type), model.MoneyString(op.Amount),
		moneyArg(op.OpeningBalance), moneyArg(op.ClosingBalance), moneyArg(op.ExpectedBalance), moneyArg(op.Difference),
		op.OperatorID, op.Notes,
	).Scan(&op.ID, &op.Seq, &op.CreatedAt)
}

// lockDrawer takes the drawer lock exclusively; cash settlements hold it shared.
func lockDrawer(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, drawerLockKey)
	return err
}

func (r *drawerRepository) Latest(ctx context.Context) (*model.CashRegisterOperation, error) {
	return latestOperation(ctx, r.storage.pool)
}

func (r *drawerRepository) Open(ctx context.Context, openingFloat decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error) {
	opening := openingFloat
	op := &model.CashRegisterOperation{
		Type:           model.OperationOpen,
		Amount:         openingFloat,
		OpeningBalance: &opening,
		OperatorID:     operatorID,
		Notes:          notes,
	}
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockDrawer(ctx, tx); err != nil {
			return err
		}
		latest, err := latestOperation(ctx, tx)
		switch {
		case err == nil && latest.Type == model.OperationOpen:
			return domainErrors.Conflict("drawer is already open since operation %d", latest.Seq)
		case err != nil && !isNotFound(err):
			return err
		}

		if err := insertOperation(ctx, tx, op); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventDrawerOpened, op.ID, operationPayload(op))
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (r *drawerRepository) Close(ctx context.Context, counted decimal.Decimal, operatorID int64, notes string) (*model.CashRegisterOperation, error) {
	var op *model.CashRegisterOperation
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockDrawer(ctx, tx); err != nil {
			return err
		}
		latest, err := latestOperation(ctx, tx)
		if err != nil {
			if isNotFound(err) {
				return domainErrors.Conflict("drawer is not open")
			}
			return err
		}
		if latest.Type != model.OperationOpen {
			return domainErrors.Conflict("drawer is not open")
		}

		var cash decimal.Decimal
		if err := tx.QueryRow(ctx, cashSinceQuery, latest.CreatedAt).Scan(&cash); err != nil {
			return err
		}
		opening := decimal.Zero
		if latest.OpeningBalance != nil {
			opening = *latest.OpeningBalance
		}
		rec := model.Reconcile(opening, cash, counted)

		op = &model.CashRegisterOperation{
			Type:            model.OperationClose,
			Amount:          rec.CountedAmount,
			OpeningBalance:  &rec.OpeningBalance,
			ClosingBalance:  &rec.CountedAmount,
			ExpectedBalance: &rec.ExpectedBalance,
			Difference:      &rec.Difference,
			OperatorID:      operatorID,
			Notes:           notes,
		}
		if err := insertOperation(ctx, tx, op); err != nil {
			return err
		}
		return appendEvent(ctx, tx, model.EventDrawerClosed, op.ID, operationPayload(op))
	})
	if err != nil {
		return nil, err
	}
	return op, nil
}

func (r *drawerRepository) CashSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var cash decimal.Decimal
	if err := r.storage.pool.QueryRow(ctx, cashSinceQuery, since).Scan(&cash); err != nil {
		return decimal.Zero, err
	}
	return cash, nil
}

func (r *drawerRepository) History(ctx context.Context, limit int) ([]model.CashRegisterOperation, error) {
	rows, err := r.storage.pool.Query(ctx, `SELECT `+operationColumns+` FROM cash_register_operations ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.CashRegisterOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
