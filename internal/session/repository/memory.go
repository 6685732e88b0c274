package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"airguard/backend/internal/session/domain"
)

// MemoryRepository is an in-process Repository used by tests and local tooling.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session // key: userID + "|" + tokenHash
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*domain.Session)}
}

func memKey(userID, tokenHash string) string {
	return userID + "|" + tokenHash
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[memKey(s.UserID, s.TokenHash)] = &cp
	return nil
}

func (r *MemoryRepository) IsValid(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[memKey(userID, tokenHash)].IsValid(now), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, memKey(userID, tokenHash))
	return nil
}

func (r *MemoryRepository) Consume(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := memKey(userID, tokenHash)
	s, ok := r.sessions[k]
	if !ok || !s.IsValid(now) {
		return false, nil
	}
	delete(r.sessions, k)
	return true, nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, s := range r.sessions {
		if !s.ExpiresAt.After(before) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsValid(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Len returns the number of stored sessions, expired ones included.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
