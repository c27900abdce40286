package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/polkiloo/kilopos/internal/domain/model"
)

// ErrNacked is returned when the broker refuses a message.
var ErrNacked = errors.New("publish NACK from broker")

// Publisher delivers committed change events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
	Close() error
}

// Envelope is the wire shape of a change event.
type Envelope struct {
	ID          int64           `json:"id"`
	Kind        model.EventKind `json:"kind"`
	AggregateID int64           `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Encode builds the message body for ev.
func Encode(ev model.ChangeEvent) ([]byte, error) {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return json.Marshal(Envelope{
		ID:          ev.ID,
		Kind:        ev.Kind,
		AggregateID: ev.AggregateID,
		Payload:     payload,
		CreatedAt:   ev.CreatedAt.UTC(),
	})
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes to a topic exchange keyed by event kind and waits for
// the broker confirm of every message.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	acks     <-chan amqp.Confirmation
	exchange string

	mu sync.Mutex
}

// DialAMQP connects, declares the exchange and enables publisher confirms.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	p := newAMQPPublisher(ch, acks, exchange)
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(ch amqpChannel, acks <-chan amqp.Confirmation, exchange string) *AMQPPublisher {
	return &AMQPPublisher{ch: ch, acks: acks, exchange: exchange}
}

// Publish sends ev and blocks until it is confirmed. Calls are serialized so
// confirms pair with their messages.
func (p *AMQPPublisher) Publish(ctx context.Context, ev model.ChangeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Kind), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    strconv.FormatInt(ev.ID, 10),
		Type:         string(ev.Kind),
		Timestamp:    ev.CreatedAt.UTC(),
		Headers:      amqp.Table{"x-source": "kilopos", "x-aggregate-id": ev.AggregateID},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}

	select {
	case conf, ok := <-p.acks:
		if !ok {
			return errors.New("amqp channel closed before confirm")
		}
		if !conf.Ack {
			return ErrNacked
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down the channel and connection.
func (p *AMQPPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the application log. It is used when no broker
// is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, ev model.ChangeEvent) error {
	p.logger.InfoContext(ctx, "change event",
		slog.Int64("event_id", ev.ID),
		slog.String("kind", string(ev.Kind)),
		slog.Int64("aggregate_id", ev.AggregateID),
		slog.String("payload", string(ev.Payload)),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
