package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/order-backend/internal/handler"
	"github.com/josh-kwaku/order-backend/internal/middleware"
	"github.com/josh-kwaku/order-backend/internal/repository"
)

type routerDeps struct {
	logger      *slog.Logger
	health      *handler.HealthHandler
	users       *handler.UserHandler
	products    *handler.ProductHandler
	orders      *handler.OrderHandler
	idempotency *repository.IdempotencyRepository
	keyTTL      time.Duration
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Tracing)
	r.Use(middleware.Logging(d.logger))
	r.Use(middleware.Recovery)

	r.Get("/health", d.health.Liveness)
	r.Get("/health/ready", d.health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(middleware.Idempotency(d.idempotency, d.keyTTL))

		r.Route("/users", d.users.Routes)
		r.Route("/products", d.products.Routes)
		r.Route("/orders", d.orders.Routes)
	})

	return r
}
