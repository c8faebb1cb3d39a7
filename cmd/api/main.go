package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/order-backend/internal/cache"
	"github.com/josh-kwaku/order-backend/internal/config"
	"github.com/josh-kwaku/order-backend/internal/domain"
	"github.com/josh-kwaku/order-backend/internal/events"
	"github.com/josh-kwaku/order-backend/internal/handler"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/middleware"
	"github.com/josh-kwaku/order-backend/internal/repository"
	"github.com/josh-kwaku/order-backend/internal/service"
	"github.com/josh-kwaku/order-backend/internal/service/availability"
	"github.com/josh-kwaku/order-backend/internal/service/order"
	"github.com/josh-kwaku/order-backend/internal/stock"
)

const idempotencyPurgeInterval = time.Hour

type productCache interface {
	Get(ctx context.Context, id uuid.UUID, load func(context.Context) (*domain.Product, error)) (*domain.Product, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("order-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	health := handler.NewHealthHandler(db)

	var products productCache
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		products = cache.NewProductCache(client, cfg.ProductCacheTTL())
		health.WithCheck("cache", func(ctx context.Context) error { return client.Ping(ctx).Err() })
		logger.Info("product read cache enabled", "ttl", cfg.ProductCacheTTL())
	}

	publisher, broker, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	if broker != nil {
		defer func() {
			if err := broker.Close(); err != nil {
				logger.Warn("failed to close rabbitmq connection", "error", err)
			}
		}()
		health.WithCheck("broker", broker.Ping)
	}

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	eventRepo := repository.NewOrderEventRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	ledger := stock.NewLedger(productRepo, movementRepo)
	validator := availability.NewValidator(productRepo)

	userSvc := service.NewUserService(userRepo, orderRepo, db)
	productSvc := service.NewProductService(productRepo, orderRepo, movementRepo, ledger, products, db)
	orderSvc := order.NewService(userRepo, productRepo, orderRepo, eventRepo, ledger, validator, products, db)

	pager := handler.Pager{Default: cfg.DefaultPageSize, Max: cfg.MaxPageSize}
	router := newRouter(routerDeps{
		logger:      logger,
		health:      health,
		users:       handler.NewUserHandler(userSvc, pager),
		products:    handler.NewProductHandler(productSvc, pager),
		orders:      handler.NewOrderHandler(orderSvc, pager),
		idempotency: idempotencyRepo,
		keyTTL:      cfg.IdempotencyTTL(),
	})

	var workers sync.WaitGroup
	relay := events.NewRelay(eventRepo, publisher, logger, cfg.EventRelayInterval(), cfg.EventRelayBatch)
	workers.Add(2)
	go func() {
		defer workers.Done()
		relay.Start(ctx)
	}()
	go func() {
		defer workers.Done()
		middleware.PurgeExpiredKeys(ctx, idempotencyRepo, logger, idempotencyPurgeInterval)
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	workers.Wait()
	logger.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeS) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeS) * time.Second,
	}
	return repository.Connect(ctx, cfg.DatabaseURL, pool, 30, time.Second)
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.OrderEvent) error
}

// newPublisher connects to RabbitMQ when AMQP_URL is set and returns the
// broker so the caller owns its lifetime. Without it, events are logged and
// marked published so the outbox does not grow unbounded; the broker is nil.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (eventPublisher, *events.Broker, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, order events will be logged only")
		return events.NewLogPublisher(logger), nil, nil
	}

	broker, err := events.Connect(ctx, cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, nil, err
	}
	pub, err := events.NewAMQPPublisher(broker)
	if err != nil {
		broker.Close()
		return nil, nil, err
	}

	logger.Info("order events publishing to rabbitmq", "exchange", cfg.AMQPExchange)
	return pub, broker, nil
}
