package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	maxNotesLen         = 500
)

// DrawerUseCase runs cash drawer sessions.
type DrawerUseCase struct {
	drawer repository.DrawerRepository
}

// NewDrawerUseCase constructs DrawerUseCase.
func NewDrawerUseCase(drawer repository.DrawerRepository) *DrawerUseCase {
	return &DrawerUseCase{drawer: drawer}
}

// OpenDrawer starts a session with the given float.
func (u *DrawerUseCase) OpenDrawer(ctx context.Context, actor model.Actor, openingFloat decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	if openingFloat.IsNegative() {
		return nil, domainErrors.Validation("opening float must not be negative")
	}
	if len(notes) > maxNotesLen {
		return nil, domainErrors.Validation("notes longer than %d characters", maxNotesLen)
	}
	return u.drawer.Open(ctx, model.RoundMoney(openingFloat), actor.OperatorID, notes)
}

// CloseDrawer reconciles counted cash against the expected balance and ends the session.
func (u *DrawerUseCase) CloseDrawer(ctx context.Context, actor model.Actor, counted decimal.Decimal, notes string) (*model.CashRegisterOperation, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	if counted.IsNegative() {
		return nil, domainErrors.Validation("counted amount must not be negative")
	}
	if len(notes) > maxNotesLen {
		return nil, domainErrors.Validation("notes longer than %d characters", maxNotesLen)
	}
	return u.drawer.Close(ctx, model.RoundMoney(counted), actor.OperatorID, notes)
}

// Status projects the drawer state from the latest log entry.
func (u *DrawerUseCase) Status(ctx context.Context) (*model.DrawerStatus, error) {
	latest, err := u.drawer.Latest(ctx)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return &model.DrawerStatus{CashReceived: decimal.Zero, Expected: decimal.Zero}, nil
		}
		return nil, err
	}

	status := &model.DrawerStatus{LastOperation: latest, CashReceived: decimal.Zero, Expected: decimal.Zero}
	if latest.Type != model.OperationOpen {
		return status, nil
	}

	cash, err := u.drawer.CashSince(ctx, latest.CreatedAt)
	if err != nil {
		return nil, err
	}
	opening := decimal.Zero
	if latest.OpeningBalance != nil {
		opening = *latest.OpeningBalance
	}
	status.IsOpen = true
	status.Session = latest
	status.CashReceived = model.RoundMoney(cash)
	status.Expected = model.RoundMoney(opening.Add(cash))
	return status, nil
}

// History lists operations newest first.
func (u *DrawerUseCase) History(ctx context.Context, limit int) ([]model.CashRegisterOperation, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return u.drawer.History(ctx, limit)
}
