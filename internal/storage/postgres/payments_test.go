package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

var attemptID = uuid.MustParse("6f1c2b9e-8d4a-4c1e-9b7a-2f3e4d5c6b7a")

func cashPayment() model.Payment {
	return model.Payment{
		OrderID:        1,
		AttemptID:      attemptID,
		Method:         model.PaymentMethodCash,
		Amount:         decimal.RequireFromString("163.75"),
		TenderedAmount: decimal.RequireFromString("200"),
		ChangeAmount:   decimal.RequireFromString("36.25"),
		ProcessedBy:    3,
	}
}

func expectInsertPayment(mock pgxmockv3.PgxPoolIface) *pgxmockv3.ExpectedQuery {
	return mock.ExpectQuery("INSERT INTO payments").
		WithArgs(int64(1), attemptID.String(), "cash", "163.75", "200.00", "36.25", int64(3))
}

func expectCashLock(mock pgxmockv3.PgxPoolIface) {
	mock.ExpectExec("pg_advisory_xact_lock_shared").WithArgs(drawerLockKey).WillReturnResult(pgxmockv3.NewResult("SELECT", 1))
}

func TestPaymentRepositorySettle(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentRepository{storage: storage}

	tab := orderRow{weight: "1.250", food: "150.75", extras: "13.00", total: "163.75"}

	t.Run("closes order", func(t *testing.T) {
		mock.ExpectBegin()
		expectLock(mock, 1, tab)
		expectCashLock(mock)
		expectInsertPayment(mock).WillReturnRows(pgxmockv3.NewRows([]string{"id", "processed_at"}).AddRow(int64(9), testNow))
		closed := tab
		closed.status = model.OrderStatusClosed
		mock.ExpectQuery("UPDATE orders").WithArgs(int64(1), "closed", testNow).WillReturnRows(orderRows(1, closed))
		expectEvent(mock, model.EventPaymentRecorded, 1)
		expectEvent(mock, model.EventOrderClosed, 1)
		mock.ExpectCommit()

		payment, order, err := repo.Settle(context.Background(), cashPayment(), "till-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payment.ID != 9 || !payment.ProcessedAt.Equal(testNow) || order.Status != model.OrderStatusClosed {
			t.Fatalf("unexpected result: payment=%+v order=%+v", payment, order)
		}
	})

	t.Run("card payment skips drawer lock", func(t *testing.T) {
		pix := model.Payment{
			OrderID:        1,
			AttemptID:      attemptID,
			Method:         model.PaymentMethodPix,
			Amount:         decimal.RequireFromString("163.75"),
			TenderedAmount: decimal.RequireFromString("163.75"),
			ChangeAmount:   decimal.Zero,
			ProcessedBy:    3,
		}
		mock.ExpectBegin()
		expectLock(mock, 1, tab)
		mock.ExpectQuery("INSERT INTO payments").
			WithArgs(int64(1), attemptID.String(), "pix", "163.75", "163.75", "0.00", int64(3)).
			WillReturnRows(pgxmockv3.NewRows([]string{"id", "processed_at"}).AddRow(int64(10), testNow))
		closed := tab
		closed.status = model.OrderStatusClosed
		mock.ExpectQuery("UPDATE orders").WithArgs(int64(1), "closed", testNow).WillReturnRows(orderRows(1, closed))
		expectEvent(mock, model.EventPaymentRecorded, 1)
		expectEvent(mock, model.EventOrderClosed, 1)
		mock.ExpectCommit()

		if _, _, err := repo.Settle(context.Background(), pix, "till-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("drawer lock fails", func(t *testing.T) {
		mock.ExpectBegin()
		expectLock(mock, 1, tab)
		mock.ExpectExec("pg_advisory_xact_lock_shared").WithArgs(drawerLockKey).WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		if _, _, err := repo.Settle(context.Background(), cashPayment(), "till-1"); err == nil || err.Error() != "lock timeout" {
			t.Fatalf("expected lock error, got %v", err)
		}
	})

	t.Run("total changed", func(t *testing.T) {
		mock.ExpectBegin()
		expectLock(mock, 1, orderRow{weight: "1.250", food: "150.75", extras: "19.50", total: "170.25"})
		mock.ExpectRollback()

		if _, _, err := repo.Settle(context.Background(), cashPayment(), "till-1"); !errors.Is(err, domainErrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("duplicate payment", func(t *testing.T) {
		mock.ExpectBegin()
		expectLock(mock, 1, tab)
		expectCashLock(mock)
		expectInsertPayment(mock).WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
		mock.ExpectRollback()

		if _, _, err := repo.Settle(context.Background(), cashPayment(), "till-1"); !errors.Is(err, domainErrors.ErrConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("commit lost", func(t *testing.T) {
		mock.ExpectBegin()
		expectLock(mock, 1, tab)
		expectCashLock(mock)
		expectInsertPayment(mock).WillReturnRows(pgxmockv3.NewRows([]string{"id", "processed_at"}).AddRow(int64(9), testNow))
		mock.ExpectQuery("UPDATE orders").WithArgs(int64(1), "closed", testNow).WillReturnRows(orderRows(1, tab))
		expectEvent(mock, model.EventPaymentRecorded, 1)
		expectEvent(mock, model.EventOrderClosed, 1)
		mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

		_, _, err := repo.Settle(context.Background(), cashPayment(), "till-1")
		if err == nil || domainErrors.IsDomain(err) {
			t.Fatalf("expected infrastructure error, got %v", err)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPaymentRepositoryReconcile(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentRepository{storage: storage}

	cols := []string{"id", "order_id", "attempt_id", "method", "amount", "tendered_amount", "change_amount",
		"processed_by", "processed_at", "status"}
	row := func(status model.OrderStatus) *pgxmockv3.Rows {
		return pgxmockv3.NewRows(cols).AddRow(int64(9), int64(1), attemptID.String(), model.PaymentMethodCash,
			"163.75", "200.00", "36.25", int64(3), testNow, status)
	}

	t.Run("settled", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(attemptID.String()).WillReturnRows(row(model.OrderStatusClosed))
		mock.ExpectCommit()

		payment, err := repo.Reconcile(context.Background(), attemptID)
		if err != nil || payment == nil || payment.AttemptID != attemptID {
			t.Fatalf("unexpected result: %+v err=%v", payment, err)
		}
	})

	t.Run("orphan removed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(attemptID.String()).WillReturnRows(row(model.OrderStatusOpen))
		mock.ExpectExec("DELETE FROM payments").WithArgs(int64(9)).WillReturnResult(pgxmockv3.NewResult("DELETE", 1))
		mock.ExpectCommit()

		payment, err := repo.Reconcile(context.Background(), attemptID)
		if err != nil || payment != nil {
			t.Fatalf("unexpected result: %+v err=%v", payment, err)
		}
	})

	t.Run("never written", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(attemptID.String()).WillReturnError(pgx.ErrNoRows)
		mock.ExpectCommit()

		payment, err := repo.Reconcile(context.Background(), attemptID)
		if err != nil || payment != nil {
			t.Fatalf("unexpected result: %+v err=%v", payment, err)
		}
	})

	t.Run("delete fails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT p.id").WithArgs(attemptID.String()).WillReturnRows(row(model.OrderStatusOpen))
		mock.ExpectExec("DELETE FROM payments").WithArgs(int64(9)).WillReturnError(errors.New("delete"))
		mock.ExpectRollback()

		if _, err := repo.Reconcile(context.Background(), attemptID); err == nil {
			t.Fatal("expected error")
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPaymentRepositoryListByOrder(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := &paymentRepository{storage: storage}

	mock.ExpectQuery("SELECT id, order_id, attempt_id").WithArgs(int64(1)).WillReturnRows(
		pgxmockv3.NewRows([]string{"id", "order_id", "attempt_id", "method", "amount", "tendered_amount", "change_amount", "processed_by", "processed_at"}).
			AddRow(int64(9), int64(1), attemptID.String(), model.PaymentMethodPix, "163.75", "163.75", "0.00", int64(3), testNow))
	list, err := repo.ListByOrder(context.Background(), 1)
	if err != nil || len(list) != 1 || list[0].Method != model.PaymentMethodPix {
		t.Fatalf("unexpected list: %+v err=%v", list, err)
	}

	mock.ExpectQuery("SELECT id, order_id, attempt_id").WithArgs(int64(2)).WillReturnError(errors.New("query"))
	if _, err := repo.ListByOrder(context.Background(), 2); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
