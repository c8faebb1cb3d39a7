package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/josh-kwaku/order-backend/internal/logging"
)

const (
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

type Broker struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// Connect dials RabbitMQ, retrying while the broker starts, and declares the
// durable topic exchange.
func Connect(ctx context.Context, url, exchange string) (*Broker, error) {
	log := logging.FromContext(ctx)

	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn("rabbitmq dial failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("events.Connect: %w", ctx.Err())
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("events.Connect: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.Connect: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		ExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.Connect: declare exchange: %w", err)
	}

	return &Broker{conn: conn, ch: ch, exchange: exchange}, nil
}

func (b *Broker) Channel() *amqp.Channel {
	return b.ch
}

func (b *Broker) Exchange() string {
	return b.exchange
}

var ErrBrokerClosed = errors.New("rabbitmq connection closed")

// Ping reports whether the connection and publishing channel are still open.
// amqp091 does not reconnect, so a closed broker stays closed until restart.
func (b *Broker) Ping(context.Context) error {
	if b.conn.IsClosed() || b.ch.IsClosed() {
		return ErrBrokerClosed
	}
	return nil
}

func (b *Broker) Close() error {
	if err := b.ch.Close(); err != nil && !b.conn.IsClosed() {
		b.conn.Close()
		return fmt.Errorf("Close: channel: %w", err)
	}
	if err := b.conn.Close(); err != nil && err != amqp.ErrClosed {
		return fmt.Errorf("Close: %w", err)
	}
	return nil
}
