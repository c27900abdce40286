package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/kilopos/internal/adapter/notify"
	"github.com/polkiloo/kilopos/internal/domain/model"
)

// EventFacade exposes the change outbox to the relay.
type EventFacade interface {
	ClaimEvents(ctx context.Context, limit int, claimFor time.Duration) ([]model.ChangeEvent, error)
	EventsDelivered(ctx context.Context, ids []int64) error
}

const minClaimFor = 30 * time.Second

// EventRelay publishes outbox events. Events of one aggregate always go to the
// same lane and are published in id order. A failed publish stops its lane for
// the rest of the batch; unacknowledged events are claimed again once their
// claim lapses.
type EventRelay struct {
	facade       EventFacade
	publisher    notify.Publisher
	pollInterval time.Duration
	batchSize    int
	workers      int
	claimFor     time.Duration
	logger       *slog.Logger

	lanes  []chan lane
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

type lane struct {
	events    []model.ChangeEvent
	delivered chan<- []int64
}

// NewEventRelay constructs the relay worker pool.
func NewEventRelay(facade EventFacade, publisher notify.Publisher, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *EventRelay {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	claimFor := 10 * pollInterval
	if claimFor < minClaimFor {
		claimFor = minClaimFor
	}
	lanes := make([]chan lane, workers)
	for i := range lanes {
		lanes[i] = make(chan lane, 1)
	}
	return &EventRelay{
		facade:       facade,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		claimFor:     claimFor,
		logger:       logger,
		lanes:        lanes,
	}
}

// Start launches background publishing.
func (r *EventRelay) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := range r.lanes {
		r.wg.Add(1)
		go r.worker(runCtx, r.lanes[i])
	}

	r.wg.Add(1)
	go r.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (r *EventRelay) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *EventRelay) dispatch(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain keeps relaying while batches come back full.
func (r *EventRelay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		if r.relayBatch(ctx) < r.batchSize {
			return
		}
	}
}

// relayBatch claims, publishes and acknowledges one batch. It returns the number
// of events claimed.
func (r *EventRelay) relayBatch(ctx context.Context) int {
	events, err := r.facade.ClaimEvents(ctx, r.batchSize, r.claimFor)
	if err != nil {
		r.logger.Error("claim change events failed", slog.String("error", err.Error()))
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	parts := make([][]model.ChangeEvent, r.workers)
	for _, ev := range events {
		idx := int(uint64(ev.AggregateID) % uint64(r.workers))
		parts[idx] = append(parts[idx], ev)
	}

	results := make(chan []int64, r.workers)
	sent := 0
	for i, part := range parts {
		if len(part) == 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return len(events)
		case r.lanes[i] <- lane{events: part, delivered: results}:
			sent++
		}
	}

	var delivered []int64
	for ; sent > 0; sent-- {
		select {
		case <-ctx.Done():
			return len(events)
		case ids := <-results:
			delivered = append(delivered, ids...)
		}
	}

	if len(delivered) == 0 {
		return 0
	}
	if err := r.facade.EventsDelivered(ctx, delivered); err != nil {
		r.logger.Error("mark events delivered failed", slog.String("error", err.Error()))
		return 0
	}
	if len(delivered) < len(events) {
		return 0
	}
	return len(events)
}

func (r *EventRelay) worker(ctx context.Context, jobs <-chan lane) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jobs:
			job.delivered <- r.publish(ctx, job.events)
		}
	}
}

func (r *EventRelay) publish(ctx context.Context, events []model.ChangeEvent) []int64 {
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.logger.Warn("publish change event failed",
				slog.Int64("event_id", ev.ID),
				slog.String("kind", string(ev.Kind)),
				slog.String("error", err.Error()),
			)
			break
		}
		ids = append(ids, ev.ID)
	}
	return ids
}
