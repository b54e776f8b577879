package repository

import (
	"context"

	"lumisync/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetTenancy reads renters/{id}. A missing document is NOT_FOUND.
	GetTenancy(ctx context.Context, renterID string) (*entity.Tenancy, error)
}
