package repository

import (
	"context"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
)

type userRepository struct {
	store docstore.DocumentStore
}

func NewUserRepository(store docstore.DocumentStore) repository.UserRepository {
	return &userRepository{
		store: store,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionUsers, id)
	if err != nil {
		return nil, err
	}
	user := entity.UserFromDocument(*doc)
	return &user, nil
}

func (r *userRepository) GetTenancy(ctx context.Context, renterID string) (*entity.Tenancy, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionRenters, renterID)
	if err != nil {
		return nil, err
	}
	tenancy := entity.TenancyFromDocument(*doc)
	return &tenancy, nil
}
