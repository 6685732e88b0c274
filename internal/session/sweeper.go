// Package session holds the refresh-session background jobs.
package session

import (
	"context"
	"time"

	"airguard/backend/internal/logutil"
)

// ExpiredDeleter is the subset of the session repository used by the sweeper.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper periodically deletes expired refresh sessions. Validity is always checked on use;
// sweeping only keeps the table small.
type Sweeper struct {
	repo     ExpiredDeleter
	interval time.Duration
	now      func() time.Time
}

// NewSweeper returns a Sweeper running every interval. interval must be positive.
func NewSweeper(repo ExpiredDeleter, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, interval: interval, now: func() time.Time { return time.Now().UTC() }}
}

// Run sweeps until ctx is done. Errors are logged and the next tick retries.
func (s *Sweeper) Run(ctx context.Context) {
	logger := logutil.GetOrDefault(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("session sweeper: delete expired failed")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("deleted", n).Msg("session sweeper: expired sessions removed")
			}
		}
	}
}

// SweepOnce deletes sessions expired as of now and returns how many were removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
