// Command order-events tails the order event exchange and logs every event.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/order-backend/internal/events"
	"github.com/josh-kwaku/order-backend/internal/logging"
)

type consumerConfig struct {
	AMQPURL    string `env:"AMQP_URL,required"`
	Exchange   string `env:"AMQP_EXCHANGE" envDefault:"orders"`
	BindingKey string `env:"BINDING_KEY" envDefault:"order.#"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv     string `env:"APP_ENV" envDefault:"production"`
}

func main() {
	cfg, err := env.ParseAs[consumerConfig]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("order-events", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	broker, err := events.Connect(ctx, cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	done, err := events.Subscribe(ctx, broker, cfg.BindingKey, func(_ context.Context, m events.Message) {
		attrs := []any{
			"event_id", m.ID,
			"order_id", m.OrderID,
			"event_type", m.EventType,
			"to_status", m.ToStatus,
			"occurred_at", m.OccurredAt,
		}
		if m.FromStatus != nil {
			attrs = append(attrs, "from_status", *m.FromStatus)
		}
		if m.Notes != nil {
			attrs = append(attrs, "notes", *m.Notes)
		}
		logger.Info("order event received", attrs...)
	})
	if err != nil {
		logger.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	logger.Info("listening for order events", "exchange", cfg.Exchange, "binding_key", cfg.BindingKey)
	<-done
	logger.Info("order event consumer stopped")
}
