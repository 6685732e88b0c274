package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter and starts its expiry on the first hit.
// Returns {count, remaining ttl in ms}.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	return {count, ttl}
`)

// Result is the outcome of one Limiter.Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// Limiter is a fixed-window request counter stored in Redis. Every key gets limit hits per window.
type Limiter struct {
	client    redis.Scripter
	keyPrefix string
	now       func() time.Time
}

// NewLimiter returns a Limiter storing counters under keyPrefix.
func NewLimiter(client redis.Scripter, keyPrefix string) *Limiter {
	return &Limiter{client: client, keyPrefix: keyPrefix, now: time.Now}
}

// Allow counts one hit for key and reports whether it is within limit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive")
	}
	res, err := fixedWindowScript.Run(ctx, l.client, []string{l.keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected rate limit response length: %d", len(res))
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   count <= limit,
		Remaining: remaining,
		ResetAt:   l.now().Add(ttl),
		Limit:     limit,
	}, nil
}
