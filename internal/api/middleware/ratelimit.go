package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"dockyard/internal/common"
	"dockyard/internal/platform/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a fixed-window request-admission counter backed by Redis,
// keyed by client address and path. A nil client disables limiting.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Limit caps a route at max requests per window for each client address.
// Redis errors fail open: admission control must not take the API down.
func (rl *RateLimiter) Limit(max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("ratelimit:%s:%s", clientIP(r), r.URL.Path)
			count, err := rl.rdb.Incr(r.Context(), key).Result()
			if err != nil {
				logging.L.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				rl.rdb.Expire(r.Context(), key, window)
			}
			if count > int64(max) {
				common.RespondWithError(w, http.StatusTooManyRequests, common.ErrTooManyRequests.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from X-Forwarded-For.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
