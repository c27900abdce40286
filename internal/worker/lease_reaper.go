package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LeaseFacade exposes the lease sweep to the reaper.
type LeaseFacade interface {
	ReleaseExpiredLeases(ctx context.Context, limit int) ([]int64, error)
}

// LeaseReaper periodically returns orders with lapsed edit leases to open.
type LeaseReaper struct {
	facade    LeaseFacade
	interval  time.Duration
	batchSize int
	logger    *slog.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewLeaseReaper constructs the reaper.
func NewLeaseReaper(facade LeaseFacade, interval time.Duration, batchSize int, logger *slog.Logger) *LeaseReaper {
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &LeaseReaper{facade: facade, interval: interval, batchSize: batchSize, logger: logger}
}

// Start launches the sweep loop.
func (r *LeaseReaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(runCtx)
}

// Stop waits for the loop to finish.
func (r *LeaseReaper) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *LeaseReaper) loop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep drains expired leases batch by batch.
func (r *LeaseReaper) sweep(ctx context.Context) {
	for ctx.Err() == nil {
		ids, err := r.facade.ReleaseExpiredLeases(ctx, r.batchSize)
		if err != nil {
			r.logger.Error("release expired leases failed", slog.String("error", err.Error()))
			return
		}
		if len(ids) > 0 {
			r.logger.Info("expired leases released", slog.Int("count", len(ids)), slog.Any("order_ids", ids))
		}
		if len(ids) < r.batchSize {
			return
		}
	}
}
