package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/order-backend/internal/handler"
	"github.com/josh-kwaku/order-backend/internal/logging"
	"github.com/josh-kwaku/order-backend/internal/repository"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "X-Idempotent-Replayed"
)

type idempotencyStore interface {
	Get(ctx context.Context, key string) (*repository.IdempotencyEntry, error)
	Set(ctx context.Context, e *repository.IdempotencyEntry) error
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key. Requests without the header pass through untouched.
// Server errors are not stored so the client can retry them.
func Idempotency(store idempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			log := logging.FromContext(r.Context()).With("idempotency_key", key)

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			reqHash := requestHash(r.Method, r.URL.Path, body)

			cached, err := store.Get(r.Context(), key)
			if err != nil {
				log.Error("idempotency cache lookup failed", "error", err)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if cached != nil {
				if cached.RequestHash != reqHash {
					log.Warn("idempotency key reused with a different request")
					handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err)
				}
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)
			code := status(ww)
			if code >= http.StatusInternalServerError {
				return
			}

			now := time.Now().UTC()
			err = store.Set(r.Context(), &repository.IdempotencyEntry{
				Key:          key,
				RequestHash:  reqHash,
				StatusCode:   code,
				ResponseBody: captured.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			})
			if err != nil {
				log.Error("idempotency cache store failed", "error", err)
			}
		})
	}
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type expiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// PurgeExpiredKeys deletes expired idempotency entries every interval until
// ctx is cancelled.
func PurgeExpiredKeys(ctx context.Context, store expiredCleaner, logger *slog.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.CleanExpired(ctx)
			if err != nil {
				logger.Error("failed to purge idempotency keys", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged idempotency keys", "count", n)
			}
		}
	}
}
