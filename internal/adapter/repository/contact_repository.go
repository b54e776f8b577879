package repository

import (
	"context"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/pkg/errors"
)

type contactRepository struct {
	store docstore.DocumentStore
}

func NewContactRepository(store docstore.DocumentStore) repository.ContactRepository {
	return &contactRepository{
		store: store,
	}
}

func (r *contactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	id, err := r.store.Add(ctx, docstore.CollectionContacts, contact.Fields())
	if err != nil {
		return errors.WriteFailed("add", docstore.CollectionContacts, err)
	}
	contact.ID = id
	contact.Custom = true
	return nil
}
