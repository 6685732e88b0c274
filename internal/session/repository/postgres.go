package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"airguard/backend/internal/session/domain"

	"github.com/jmoiron/sqlx"
)

type sessionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UserAgent string    `db:"user_agent"`
	IPAddress string    `db:"ip_address"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO refresh_sessions (id, user_id, token_hash, expires_at, created_at, user_agent, ip_address)
		VALUES (:id, :user_id, :token_hash, :expires_at, :created_at, :user_agent, :ip_address)`,
		sessionRow{
			ID:        s.ID,
			UserID:    s.UserID,
			TokenHash: s.TokenHash,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
			UserAgent: s.UserAgent,
			IPAddress: s.IPAddress,
		})
	return err
}

// IsValid reports whether an unexpired session exists for userID and tokenHash.
func (r *PostgresRepository) IsValid(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM refresh_sessions
			WHERE user_id = $1 AND token_hash = $2 AND expires_at > $3
		)`, userID, tokenHash, now)
	return exists, err
}

// Delete removes the session for userID and tokenHash. A missing row is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, userID, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_sessions WHERE user_id = $1 AND token_hash = $2`, userID, tokenHash)
	return err
}

// Consume deletes the unexpired session for userID and tokenHash in a single statement and
// reports whether this call removed it. Row locking makes concurrent callers see at most one true.
func (r *PostgresRepository) Consume(ctx context.Context, userID, tokenHash string, now time.Time) (bool, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		DELETE FROM refresh_sessions
		WHERE user_id = $1 AND token_hash = $2 AND expires_at > $3
		RETURNING id`, userID, tokenHash, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteExpired removes every session with expires_at <= before.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns the user's unexpired sessions, newest first. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, token_hash, expires_at, created_at, user_agent, ip_address
		FROM refresh_sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (row *sessionRow) toDomain() *domain.Session {
	return &domain.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
		UserAgent: row.UserAgent,
		IPAddress: row.IPAddress,
	}
}
