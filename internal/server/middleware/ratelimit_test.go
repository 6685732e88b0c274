package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"

	"airguard/backend/internal/cache"
)

type countingLimiter struct {
	mu   sync.Mutex
	hits map[string]int
	err  error
}

func (l *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*cache.Result, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	n := l.hits[key]
	remaining := limit - n
	if remaining < 0 {
		remaining = 0
	}
	return &cache.Result{Allowed: n <= limit, Remaining: remaining, ResetAt: time.Now().Add(window), Limit: limit}, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	l := &countingLimiter{hits: make(map[string]int)}
	h := RateLimit(l, "login", 2, time.Minute)(okHandler())
	for i := 0; i < 2; i++ {
		apitest.New().Handler(h).Post("/").Expect(t).Status(http.StatusOK).Header("X-RateLimit-Limit", "2").End()
	}
	apitest.New().
		Handler(h).
		Post("/").
		Expect(t).
		Status(http.StatusTooManyRequests).
		Header("X-RateLimit-Remaining", "0").
		HeaderPresent("Retry-After").
		End()
}

func TestRateLimit_FailsOpen(t *testing.T) {
	l := &countingLimiter{err: errors.New("redis down")}
	h := RateLimit(l, "login", 1, time.Minute)(okHandler())
	for i := 0; i < 3; i++ {
		apitest.New().Handler(h).Post("/").Expect(t).Status(http.StatusOK).End()
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(nil, "login", 1, time.Minute)(okHandler())
	for i := 0; i < 3; i++ {
		apitest.New().Handler(h).Post("/").Expect(t).Status(http.StatusOK).HeaderNotPresent("X-RateLimit-Limit").End()
	}
}
