package usecase

import (
	"context"
	"time"

	"github.com/polkiloo/kilopos/internal/domain/model"
	"github.com/polkiloo/kilopos/internal/domain/repository"
)

// EventUseCase hands committed change events to the relay.
type EventUseCase struct {
	events repository.EventRepository
}

// NewEventUseCase constructs EventUseCase.
func NewEventUseCase(events repository.EventRepository) *EventUseCase {
	return &EventUseCase{events: events}
}

// Claim reserves up to limit undelivered events for claimFor.
func (u *EventUseCase) Claim(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error) {
	return u.events.ClaimBatch(ctx, limit, claimFor)
}

// Delivered marks events as published.
func (u *EventUseCase) Delivered(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return u.events.MarkDelivered(ctx, ids)
}
