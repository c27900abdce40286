package model

import (
	"encoding/json"
	"time"
)

// EventKind names a committed state change; it doubles as the routing key.
type EventKind string

const (
	EventOrderCreated    EventKind = "order.created"
	EventOrderUpdated    EventKind = "order.updated"
	EventOrderClosed     EventKind = "order.closed"
	EventOrderCancelled  EventKind = "order.cancelled"
	EventPaymentRecorded EventKind = "payment.recorded"
	EventDrawerOpened    EventKind = "drawer.opened"
	EventDrawerClosed    EventKind = "drawer.closed"
	EventLeaseAcquired   EventKind = "lease.acquired"
	EventLeaseReleased   EventKind = "lease.released"
	EventLeaseExpired    EventKind = "lease.expired"
)

// ChangeEvent is an outbox entry written with the change it describes.
type ChangeEvent struct {
	ID          int64
	Kind        EventKind
	AggregateID int64
	Payload     json.RawMessage
	CreatedAt   time.Time
}
