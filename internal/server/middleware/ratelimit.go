package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"airguard/backend/internal/cache"
	"airguard/backend/internal/logutil"
)

// RateLimiter counts hits per key within a window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*cache.Result, error)
}

// RateLimit returns middleware that allows limit requests per client IP per window, keyed under
// scope. Over the limit it responds 429 with Retry-After. A nil limiter or a non-positive limit
// disables it; limiter errors let the request through.
func RateLimit(l RateLimiter, scope string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), scope+":"+ClientIP(r), limit, window)
			if err != nil {
				logger := logutil.GetOrDefault(r.Context())
				logger.Warn().Err(err).Str("scope", scope).Msg("rate limit: check failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				retry := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
