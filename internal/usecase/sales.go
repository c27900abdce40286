package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

// SalesUseCase builds read-only sales rollups.
type SalesUseCase struct {
	sales  repository.SalesRepository
	drawer *DrawerUseCase
	loc    *time.Location
}

// NewSalesUseCase constructs SalesUseCase. Day boundaries are taken in loc.
func NewSalesUseCase(sales repository.SalesRepository, drawer *DrawerUseCase, loc *time.Location) *SalesUseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &SalesUseCase{sales: sales, drawer: drawer, loc: loc}
}

// Location is the zone business days are counted in.
func (u *SalesUseCase) Location() *time.Location {
	return u.loc
}

// DayRange returns [start of day, start of next day) for the calendar day of t.
func (u *SalesUseCase) DayRange(t time.Time) (time.Time, time.Time) {
	t = t.In(u.loc)
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, u.loc)
	return from, from.AddDate(0, 0, 1)
}

// DailySummary sums closed orders with closedAt in [from, to) by payment method and
// compares the cash share with the cash accumulated by the open drawer session.
// With the drawer closed DrawerCash is zero, so the whole cash share is reported
// as discrepancy.
func (u *SalesUseCase) DailySummary(ctx context.Context, from, to time.Time) (*model.DailySummary, error) {
	if !to.After(from) {
		return nil, domainErrors.Validation("range end must be after its start")
	}

	totals, err := u.sales.Totals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &model.DailySummary{
		From:            from,
		To:              to,
		Total:           decimal.Zero,
		ByMethod:        totals,
		CashTotal:       decimal.Zero,
		DrawerCash:      decimal.Zero,
		CashDiscrepancy: decimal.Zero,
	}
	for _, t := range totals {
		summary.Orders += t.Orders
		summary.Total = summary.Total.Add(t.Amount)
		if t.Method == model.PaymentMethodCash {
			summary.CashTotal = summary.CashTotal.Add(t.Amount)
		}
	}

	status, err := u.drawer.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status.IsOpen {
		summary.DrawerOpen = true
		summary.DrawerCash = status.CashReceived
	}
	summary.CashDiscrepancy = summary.CashTotal.Sub(summary.DrawerCash)
	return summary, nil
}
