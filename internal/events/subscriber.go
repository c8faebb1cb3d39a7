package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/josh-kwaku/order-backend/internal/logging"
)

// Subscribe binds an exclusive, server-named queue to the exchange and calls
// handle for every decoded message until ctx is cancelled or the channel
// closes. Messages that fail to decode are logged and dropped.
func Subscribe(ctx context.Context, b *Broker, bindingKey string, handle func(context.Context, Message)) (<-chan struct{}, error) {
	ch := b.Channel()

	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("events.Subscribe: declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, bindingKey, b.Exchange(), false, nil); err != nil {
		return nil, fmt.Errorf("events.Subscribe: bind %q: %w", bindingKey, err)
	}

	msgs, err := ch.ConsumeWithContext(ctx,
		q.Name,
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("events.Subscribe: consume: %w", err)
	}

	log := logging.FromContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal(d.Body, &m); err != nil {
					log.Warn("dropping malformed order event", "routing_key", d.RoutingKey, "error", err)
					continue
				}
				handle(ctx, m)
			}
		}
	}()

	return done, nil
}
