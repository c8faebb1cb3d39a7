package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

// AMQPPublisher publishes order events to a topic exchange with publisher
// confirms enabled. Publish returns only after the broker acks the message.
type AMQPPublisher struct {
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(b *Broker) (*AMQPPublisher, error) {
	if err := b.Channel().Confirm(false); err != nil {
		return nil, fmt.Errorf("NewAMQPPublisher: enable confirms: %w", err)
	}
	return &AMQPPublisher{ch: b.Channel(), exchange: b.Exchange()}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e domain.OrderEvent) error {
	body, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		RoutingKey(e.EventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID.String(),
			Timestamp:    e.CreatedAt,
			Type:         string(e.EventType),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("Publish: wait for confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("Publish: broker nacked event %s", e.ID)
	}
	return nil
}

// LogPublisher stands in for the broker when none is configured. Events are
// logged and then count as published.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	p.logger.Info("order event",
		"event_id", e.ID,
		"order_id", e.OrderID,
		"routing_key", RoutingKey(e.EventType),
		"to_status", e.ToStatus,
	)
	return nil
}
