package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"airguard/backend/internal/session/domain"
	"airguard/backend/internal/session/repository"
)

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	repo := repository.NewMemoryRepository()
	_ = repo.Create(ctx, &domain.Session{ID: "old", UserID: "u1", TokenHash: "a", ExpiresAt: now.Add(-time.Hour)})
	_ = repo.Create(ctx, &domain.Session{ID: "live", UserID: "u1", TokenHash: "b", ExpiresAt: now.Add(time.Hour)})

	s := NewSweeper(repo, time.Minute)
	s.now = func() time.Time { return now }
	n, err := s.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if n != 1 || repo.Len() != 1 {
		t.Errorf("removed %d, left %d; want 1 and 1", n, repo.Len())
	}
}

type countingDeleter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (d *countingDeleter) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return 0, d.err
}

func (d *countingDeleter) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	d := &countingDeleter{err: errors.New("db down")}
	s := NewSweeper(d, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for d.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if d.count() < 2 {
		t.Errorf("sweeper ran %d times, want at least 2 (errors must not stop it)", d.count())
	}
}
