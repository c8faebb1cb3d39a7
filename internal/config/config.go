package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`

	RedisURL         string `env:"REDIS_URL"`
	ProductCacheTTLS int    `env:"PRODUCT_CACHE_TTL_S" envDefault:"60"`

	AMQPURL              string `env:"AMQP_URL"`
	AMQPExchange         string `env:"AMQP_EXCHANGE" envDefault:"orders"`
	EventRelayIntervalMS int    `env:"EVENT_RELAY_INTERVAL_MS" envDefault:"1000"`
	EventRelayBatch      int    `env:"EVENT_RELAY_BATCH" envDefault:"50"`

	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"20"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"100"`

	IdempotencyTTLH int `env:"IDEMPOTENCY_TTL_H" envDefault:"24"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.DefaultPageSize <= 0 || cfg.MaxPageSize < cfg.DefaultPageSize {
		return nil, fmt.Errorf("config.Load: page sizes: default %d, max %d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	return &cfg, nil
}

func (c *Config) ProductCacheTTL() time.Duration {
	return time.Duration(c.ProductCacheTTLS) * time.Second
}

func (c *Config) EventRelayInterval() time.Duration {
	return time.Duration(c.EventRelayIntervalMS) * time.Millisecond
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLH) * time.Hour
}
