package test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

// ErrPublish is returned by PublisherStub for failing events.
var ErrPublish = errors.New("broker unavailable")

// LeaseFacadeStub replays prepared sweep results.
type LeaseFacadeStub struct {
	sync.Mutex
	Batches [][]int64
	Err     error
	Limits  []int
}

// ReleaseExpiredLeases pops the next prepared batch.
func (s *LeaseFacadeStub) ReleaseExpiredLeases(ctx context.Context, limit int) ([]int64, error) {
	s.Lock()
	defer s.Unlock()
	s.Limits = append(s.Limits, limit)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Batches) == 0 {
		return nil, nil
	}
	batch := s.Batches[0]
	s.Batches = s.Batches[1:]
	return batch, nil
}

// Calls reports how many sweeps ran.
func (s *LeaseFacadeStub) Calls() int {
	s.Lock()
	defer s.Unlock()
	return len(s.Limits)
}

// EventFacadeStub serves a fixed outbox and records acknowledgements. With
// ClaimTTL set, claimed events stay hidden until the TTL lapses and later
// events of a claimed aggregate are held back, as in the outbox table.
type EventFacadeStub struct {
	sync.Mutex
	Events   []model.ChangeEvent
	ClaimErr error
	ClaimTTL time.Duration

	delivered []int64
	acked     map[int64]bool
	claimed   map[int64]time.Time
}

// ClaimEvents returns unacknowledged events in order.
func (s *EventFacadeStub) ClaimEvents(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error) {
	s.Lock()
	defer s.Unlock()
	if s.ClaimErr != nil {
		return nil, s.ClaimErr
	}
	if s.claimed == nil {
		s.claimed = make(map[int64]time.Time)
	}
	now := time.Now()
	blocked := make(map[int64]bool)
	var result []model.ChangeEvent
	for _, ev := range s.Events {
		if s.acked[ev.ID] {
			continue
		}
		if s.ClaimTTL > 0 {
			held := s.claimed[ev.ID].After(now)
			if held || blocked[ev.AggregateID] {
				blocked[ev.AggregateID] = true
				continue
			}
			s.claimed[ev.ID] = now.Add(s.ClaimTTL)
		}
		result = append(result, ev)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// EventsDelivered records acknowledged ids.
func (s *EventFacadeStub) EventsDelivered(ctx context.Context, ids []int64) error {
	s.Lock()
	defer s.Unlock()
	if s.acked == nil {
		s.acked = make(map[int64]bool)
	}
	for _, id := range ids {
		s.acked[id] = true
	}
	s.delivered = append(s.delivered, ids...)
	return nil
}

// Delivered returns acknowledged ids in acknowledgement order.
func (s *EventFacadeStub) Delivered() []int64 {
	s.Lock()
	defer s.Unlock()
	return append([]int64(nil), s.delivered...)
}

// PublisherStub records published events. Events listed in Failures fail that
// many times before succeeding.
type PublisherStub struct {
	sync.Mutex
	Failures map[int64]int

	published []model.ChangeEvent
	closed    bool
}

// Publish records ev or fails per Failures.
func (p *PublisherStub) Publish(ctx context.Context, ev model.ChangeEvent) error {
	p.Lock()
	defer p.Unlock()
	if p.Failures[ev.ID] > 0 {
		p.Failures[ev.ID]--
		return ErrPublish
	}
	p.published = append(p.published, ev)
	return nil
}

// Close marks the publisher closed.
func (p *PublisherStub) Close() error {
	p.Lock()
	defer p.Unlock()
	p.closed = true
	return nil
}

// Published returns recorded events.
func (p *PublisherStub) Published() []model.ChangeEvent {
	p.Lock()
	defer p.Unlock()
	return append([]model.ChangeEvent(nil), p.published...)
}

// Closed reports whether Close was called.
func (p *PublisherStub) Closed() bool {
	p.Lock()
	defer p.Unlock()
	return p.closed
}
