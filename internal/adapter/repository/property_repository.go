package repository

import (
	"context"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
)

type propertyRepository struct {
	store docstore.DocumentStore
}

func NewPropertyRepository(store docstore.DocumentStore) repository.PropertyRepository {
	return &propertyRepository{
		store: store,
	}
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*entity.Property, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionProperties, id)
	if err != nil {
		return nil, err
	}
	property := entity.PropertyFromDocument(*doc)
	return &property, nil
}
