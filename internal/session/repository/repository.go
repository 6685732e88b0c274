package repository

import (
	"context"
	"time"

	"airguard/backend/internal/session/domain"
)

// Repository defines persistence for refresh-token sessions, keyed by (user id, token hash).
type Repository interface {
	Create(ctx context.Context, s *domain.Session) error
	// IsValid reports whether a session for userID and tokenHash exists and expires after now.
	IsValid(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error)
	// Delete removes the matching session. Deleting an absent session is not an error.
	Delete(ctx context.Context, userID, tokenHash string) error
	// Consume atomically deletes the matching unexpired session and reports whether it existed.
	// Of several concurrent callers for the same session, exactly one observes true.
	Consume(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error)
	// DeleteExpired removes sessions whose expiry is at or before before and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	// ListByUser returns the unexpired sessions of userID, newest first.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error)
}
