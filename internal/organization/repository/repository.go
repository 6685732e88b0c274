package repository

import (
	"context"

	"airguard/backend/internal/organization/domain"
)

// Repository defines persistence for organizations. Organizations are created together with
// their owner through the user repository.
type Repository interface {
	GetOrganizationByID(ctx context.Context, id string) (*domain.Org, error)
}
