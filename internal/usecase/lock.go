package usecase

import (
	"context"
	"time"

	domainErrors "github.com/polkiloo/kilopos/internal/domain/errors"
	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

// LockUseCase grants terminals exclusive edit leases on orders.
type LockUseCase struct {
	leases repository.LeaseRepository
	ttl    time.Duration
}

// NewLockUseCase constructs LockUseCase with the given lease duration.
func NewLockUseCase(leases repository.LeaseRepository, ttl time.Duration) *LockUseCase {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &LockUseCase{leases: leases, ttl: ttl}
}

// BeginEdit acquires or renews the lease of the actor's terminal.
func (u *LockUseCase) BeginEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.EditLease, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	if actor.TerminalID == "" {
		return nil, domainErrors.Validation("terminal id is required to edit an order")
	}
	return u.leases.Acquire(ctx, orderID, actor.TerminalID, u.ttl)
}

// EndEdit releases the lease. Releasing an order that is not leased succeeds.
func (u *LockUseCase) EndEdit(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if !actor.Identified() {
		return nil, domainErrors.ErrUnauthorized
	}
	return u.leases.Release(ctx, orderID, actor.TerminalID)
}

// ReleaseExpired reverts up to limit expired leases and returns the affected orders.
func (u *LockUseCase) ReleaseExpired(ctx context.Context, limit int) ([]int64, error) {
	return u.leases.ReleaseExpired(ctx, limit)
}
