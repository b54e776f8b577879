package repository

import (
	"context"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

type ticketRepository struct {
	store docstore.DocumentStore
}

func NewTicketRepository(store docstore.DocumentStore) repository.TicketRepository {
	return &ticketRepository{
		store: store,
	}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entity.Ticket) error {
	collection := ticket.Kind.Collection()
	id, err := r.store.Add(ctx, collection, ticket.Fields())
	if err != nil {
		return errors.WriteFailed("add", collection, err)
	}

	ticket.ID = id
	ticket.ShortID = entity.ShortID(id)

	// The ticket exists at this point; list screens fall back to deriving the
	// short id, so a failed stamp is reported but the ticket is kept.
	if err := r.store.Update(ctx, collection, id, map[string]interface{}{
		"id":      id,
		"shortId": ticket.ShortID,
	}); err != nil {
		logger.Warn("Ticket %s/%s created but id stamp failed: %v", collection, id, err)
		return errors.WriteFailed("update", collection, err)
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, kind entity.TicketKind, id string) (*entity.Ticket, error) {
	doc, err := r.store.Get(ctx, kind.Collection(), id)
	if err != nil {
		return nil, err
	}
	ticket := entity.TicketFromDocument(kind, *doc)
	return &ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, kind entity.TicketKind, id string, status entity.TicketStatus) error {
	if err := r.store.Update(ctx, kind.Collection(), id, map[string]interface{}{
		"status": string(status),
	}); err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return err
		}
		return errors.WriteFailed("update", kind.Collection(), err)
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, kind entity.TicketKind, id string) error {
	if err := r.store.Delete(ctx, kind.Collection(), id); err != nil {
		return errors.WriteFailed("delete", kind.Collection(), err)
	}
	return nil
}
