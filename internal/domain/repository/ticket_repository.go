package repository

import (
	"context"

	"lumisync/internal/domain/entity"
)

type TicketRepository interface {
	// Create adds the ticket and stamps id and shortId on it.
	Create(ctx context.Context, ticket *entity.Ticket) error
	GetByID(ctx context.Context, kind entity.TicketKind, id string) (*entity.Ticket, error)
	UpdateStatus(ctx context.Context, kind entity.TicketKind, id string, status entity.TicketStatus) error
	Delete(ctx context.Context, kind entity.TicketKind, id string) error
}
