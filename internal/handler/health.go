package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/josh-kwaku/order-backend/internal/logging"
)

const readinessTimeout = 2 * time.Second

// Check reports whether a dependency can serve traffic.
type Check func(ctx context.Context) error

type pinger interface {
	PingContext(ctx context.Context) error
}

type namedCheck struct {
	name  string
	check Check
}

// HealthHandler always checks the database. Optional dependencies (cache,
// broker) are added with WithCheck only when they are configured.
type HealthHandler struct {
	checks []namedCheck
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{checks: []namedCheck{{name: "database", check: db.PingContext}}}
}

func (h *HealthHandler) WithCheck(name string, c Check) *HealthHandler {
	h.checks = append(h.checks, namedCheck{name: name, check: c})
	return h
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness answers 503 when any dependency check fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	code := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		results[c.name] = "ok"
		if err := c.check(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness check failed", "dependency", c.name, "error", err)
			results[c.name] = "down"
			code = http.StatusServiceUnavailable
		}
	}

	status := "ok"
	if code != http.StatusOK {
		status = "down"
	}
	RespondJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}
