package repository

import (
	"context"
	"errors"

	orgdomain "airguard/backend/internal/organization/domain"
	"airguard/backend/internal/user/domain"
)

// ErrEmailTaken is returned by CreateWithOrganization when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByEmail looks up by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// CreateWithOrganization inserts org and its owning user atomically; neither row exists if either insert fails.
	CreateWithOrganization(ctx context.Context, u *domain.User, o *orgdomain.Org) error
}
