package repository

import (
	"context"
	"database/sql"
	"time"

	"airguard/backend/internal/audit/domain"

	"github.com/jmoiron/sqlx"
)

type auditRow struct {
	ID        string         `db:"id"`
	OrgID     sql.NullString `db:"org_id"`
	UserID    sql.NullString `db:"user_id"`
	Action    string         `db:"action"`
	Resource  string         `db:"resource"`
	Outcome   string         `db:"outcome"`
	IP        string         `db:"ip"`
	UserAgent string         `db:"user_agent"`
	Metadata  string         `db:"metadata"`
	CreatedAt time.Time      `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log to the database. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO audit_logs (id, org_id, user_id, action, resource, outcome, ip, user_agent, metadata, created_at)
		VALUES (:id, :org_id, :user_id, :action, :resource, :outcome, :ip, :user_agent, :metadata, :created_at)`,
		auditRow{
			ID:        a.ID,
			OrgID:     sql.NullString{String: a.OrgID, Valid: a.OrgID != ""},
			UserID:    sql.NullString{String: a.UserID, Valid: a.UserID != ""},
			Action:    a.Action,
			Resource:  a.Resource,
			Outcome:   a.Outcome,
			IP:        a.IP,
			UserAgent: a.UserAgent,
			Metadata:  a.Metadata,
			CreatedAt: a.CreatedAt,
		})
	return err
}
