package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/josh-kwaku/order-backend/internal/logging"
)

// PoolConfig sizes the shared pool. Order creation holds a product row lock
// for the life of its transaction, so MaxOpenConns bounds checkout concurrency.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (p PoolConfig) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
}

// Connect opens the pool and waits for Postgres to answer, pinging once per
// interval up to attempts times. Compose starts the API alongside the
// database, so the first pings are expected to fail.
func Connect(ctx context.Context, databaseURL string, pool PoolConfig, attempts int, interval time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Connect: open: %w", err)
	}
	pool.apply(db)

	log := logging.FromContext(ctx)
	for i := 1; ; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if i >= attempts {
			break
		}
		log.Info("waiting for database", "attempt", i, "error", err)

		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("Connect: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
	db.Close()
	return nil, fmt.Errorf("Connect: no answer after %d attempts: %w", attempts, err)
}
