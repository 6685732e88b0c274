package repository

import (
	"context"
	"database/sql"
	"errors"

	"airguard/backend/internal/organization/domain"

	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error) {
	var row struct {
		ID        string         `db:"id"`
		Name      string         `db:"name"`
		OwnerID   sql.NullString `db:"owner_id"`
		CreatedAt sql.NullTime   `db:"created_at"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT id, name, owner_id, created_at FROM organizations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Org{ID: row.ID, Name: row.Name, OwnerID: row.OwnerID.String, CreatedAt: row.CreatedAt.Time}, nil
}
