package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"airguard/backend/internal/db"
	orgdomain "airguard/backend/internal/organization/domain"
	"airguard/backend/internal/user/domain"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, password_hash, full_name, country, phone, company, industry,
	organization_id, created_at, updated_at`

type userRow struct {
	ID             string         `db:"id"`
	Email          string         `db:"email"`
	PasswordHash   string         `db:"password_hash"`
	FullName       string         `db:"full_name"`
	Country        string         `db:"country"`
	Phone          string         `db:"phone"`
	Company        string         `db:"company"`
	Industry       string         `db:"industry"`
	OrganizationID sql.NullString `db:"organization_id"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByEmail returns the user with the given email, or nil if not found.
// The match is case-insensitive. It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE lower(email) = $1`, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// CreateWithOrganization persists o and u in one transaction. Both must have IDs set, with
// o.OwnerID == u.ID and u.OrganizationID == o.ID. A duplicate email returns ErrEmailTaken.
func (r *PostgresRepository) CreateWithOrganization(ctx context.Context, u *domain.User, o *orgdomain.Org) error {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO organizations (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)`,
			o.ID, o.Name, o.OwnerID, o.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, country, phone, company, industry,
				organization_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			u.ID, u.Email, u.PasswordHash, u.FullName, u.Country, u.Phone, u.Company, u.Industry,
			u.OrganizationID, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	return createErr(err)
}

// emailIndex is the unique index on lower(email) created by the initial migration.
const emailIndex = "users_email_key"

// createErr maps a violation of emailIndex to ErrEmailTaken. Other unique violations, such as a
// colliding generated id, are returned as is.
func createErr(err error) error {
	if db.IsUniqueViolation(err) && db.ConstraintName(err) == emailIndex {
		return ErrEmailTaken
	}
	return err
}

func (row *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             row.ID,
		Email:          row.Email,
		PasswordHash:   row.PasswordHash,
		FullName:       row.FullName,
		Country:        row.Country,
		Phone:          row.Phone,
		Company:        row.Company,
		Industry:       row.Industry,
		OrganizationID: row.OrganizationID.String,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
