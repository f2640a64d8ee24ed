// Package quota guards the billed upstream AI endpoints with a per-caller
// daily call budget stored in Redis.
package quota

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seein-app/seein-backend/internal/platform/httpx"
	"github.com/seein-app/seein-backend/internal/shared"
)

// Limiter counts upstream-triggering requests per caller and day. Redis
// outages fail open: the quota protects the upstream bill, it is not a
// correctness invariant.
type Limiter struct {
	logger *slog.Logger
	client *redis.Client
	limit  int
	now    func() time.Time
}

// NewLimiter constructs a Limiter allowing limit calls per caller per day.
func NewLimiter(logger *slog.Logger, client *redis.Client, limit int) *Limiter {
	return &Limiter{logger: logger, client: client, limit: limit, now: time.Now}
}

// Middleware enforces the daily budget for the wrapped routes.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if l == nil || l.client == nil || l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := l.now()
		key := "quota:" + now.Format("2006-01-02") + ":" + callerKey(r)

		count, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			l.logger.Warn("quota counter unavailable", slog.Any("error", err))
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			year, month, day := now.Date()
			midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
			if err := l.client.Expire(ctx, key, midnight.Sub(now)).Err(); err != nil {
				l.logger.Warn("quota expire failed", slog.Any("error", err))
			}
		}
		if count > int64(l.limit) {
			httpx.Error(w, http.StatusTooManyRequests, "daily AI usage quota exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callerKey prefers the authenticated subject and falls back to the client IP
// for the public AI routes.
func callerKey(r *http.Request) string {
	if subject := shared.SubjectFromContext(r.Context()); subject != "" {
		return subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
