package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/domain"
)

type outbox interface {
	ClaimUnpublished(ctx context.Context, limit int, publish func(context.Context, []domain.OrderEvent) ([]uuid.UUID, error)) (int, error)
}

type publisher interface {
	Publish(ctx context.Context, e domain.OrderEvent) error
}

// Relay drains the order_events outbox onto the broker. Events are published
// in commit order; the first failure stops the batch so later events are not
// published ahead of an earlier one for the same order.
type Relay struct {
	outbox    outbox
	publisher publisher
	logger    *slog.Logger
	interval  time.Duration
	batch     int
}

func NewRelay(outbox outbox, publisher publisher, logger *slog.Logger, interval time.Duration, batch int) *Relay {
	return &Relay{
		outbox:    outbox,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		batch:     batch,
	}
}

func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("event relay started", "interval", r.interval, "batch", r.batch)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("event relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain keeps claiming full batches until the outbox runs dry or a publish fails.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.outbox.ClaimUnpublished(ctx, r.batch, r.publishBatch)
		if err != nil {
			r.logger.Error("failed to relay order events", "published", n, "error", err)
			return
		}
		if n > 0 {
			r.logger.Debug("relayed order events", "count", n)
		}
		if n < r.batch {
			return
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context, events []domain.OrderEvent) ([]uuid.UUID, error) {
	published := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		if err := r.publisher.Publish(ctx, e); err != nil {
			r.logger.Warn("order event not published",
				"event_id", e.ID,
				"order_id", e.OrderID,
				"error", err,
			)
			return published, err
		}
		published = append(published, e.ID)
	}
	return published, nil
}
