package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polkiloo/kilopos/internal/domain/model"
	testhelpers "github.com/polkiloo/kilopos/internal/test"
)

func outbox() []model.ChangeEvent {
	return []model.ChangeEvent{
		{ID: 1, Kind: model.EventOrderCreated, AggregateID: 10},
		{ID: 2, Kind: model.EventOrderCreated, AggregateID: 11},
		{ID: 3, Kind: model.EventOrderUpdated, AggregateID: 10},
		{ID: 4, Kind: model.EventOrderUpdated, AggregateID: 11},
		{ID: 5, Kind: model.EventOrderClosed, AggregateID: 10},
	}
}

func startRelay(t *testing.T, relay *EventRelay) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		relay.Stop()
	})
	relay.Start(ctx)
}

func waitDelivered(t *testing.T, facade *testhelpers.EventFacadeStub, n int) []int64 {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if ids := facade.Delivered(); len(ids) >= n {
			return ids
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %d deliveries, got %v", n, facade.Delivered())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewEventRelayDefaults(t *testing.T) {
	relay := NewEventRelay(&testhelpers.EventFacadeStub{}, &testhelpers.PublisherStub{}, 0, 0, 0, discardLogger())
	if relay.workers != 1 || relay.batchSize != 1 || relay.pollInterval != time.Second {
		t.Fatalf("unexpected defaults: %+v", relay)
	}
	if relay.claimFor != minClaimFor {
		t.Fatalf("expected claim window %v, got %v", minClaimFor, relay.claimFor)
	}
}

func TestEventRelayPublishesInAggregateOrder(t *testing.T) {
	facade := &testhelpers.EventFacadeStub{Events: outbox()}
	publisher := &testhelpers.PublisherStub{}
	relay := NewEventRelay(facade, publisher, 5*time.Millisecond, 2, 2, discardLogger())
	startRelay(t, relay)

	waitDelivered(t, facade, 5)

	last := map[int64]int64{}
	for _, ev := range publisher.Published() {
		if ev.ID < last[ev.AggregateID] {
			t.Fatalf("event %d of aggregate %d published after %d", ev.ID, ev.AggregateID, last[ev.AggregateID])
		}
		last[ev.AggregateID] = ev.ID
	}
	if len(publisher.Published()) != 5 {
		t.Fatalf("expected every event published once, got %d", len(publisher.Published()))
	}
}

func TestEventRelayRetriesFailedPublish(t *testing.T) {
	facade := &testhelpers.EventFacadeStub{Events: outbox()}
	publisher := &testhelpers.PublisherStub{Failures: map[int64]int{3: 2}}
	relay := NewEventRelay(facade, publisher, 5*time.Millisecond, 10, 2, discardLogger())
	startRelay(t, relay)

	waitDelivered(t, facade, 5)

	var order []int64
	for _, ev := range publisher.Published() {
		if ev.AggregateID == 10 {
			order = append(order, ev.ID)
		}
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 3 || order[2] != 5 {
		t.Fatalf("expected aggregate 10 published as 1,3,5, got %v", order)
	}
}

func TestEventRelayKeepsOrderAcrossBatches(t *testing.T) {
	facade := &testhelpers.EventFacadeStub{
		Events: []model.ChangeEvent{
			{ID: 1, Kind: model.EventOrderCreated, AggregateID: 10},
			{ID: 2, Kind: model.EventOrderUpdated, AggregateID: 10},
		},
		ClaimTTL: 30 * time.Millisecond,
	}
	publisher := &testhelpers.PublisherStub{Failures: map[int64]int{1: 1}}
	relay := NewEventRelay(facade, publisher, 5*time.Millisecond, 1, 1, discardLogger())
	startRelay(t, relay)

	waitDelivered(t, facade, 2)

	published := publisher.Published()
	if len(published) != 2 || published[0].ID != 1 || published[1].ID != 2 {
		t.Fatalf("expected 1 then 2 once the failed claim lapsed, got %v", published)
	}
}

func TestEventRelayBatchSurvivesClaimError(t *testing.T) {
	facade := &testhelpers.EventFacadeStub{ClaimErr: errors.New("db down")}
	relay := NewEventRelay(facade, &testhelpers.PublisherStub{}, time.Hour, 2, 1, discardLogger())

	if n := relay.relayBatch(context.Background()); n != 0 {
		t.Fatalf("expected empty batch on claim error, got %d", n)
	}
}
