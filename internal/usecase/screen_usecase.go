package usecase

import (
	"context"
	"fmt"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/infrastructure/livesync"
	"lumisync/pkg/errors"
)

type ScreenKind string

const (
	ScreenComplaints    ScreenKind = "complaints"
	ScreenFixRequests   ScreenKind = "fix_requests"
	ScreenConversations ScreenKind = "conversations"
	ScreenMessages      ScreenKind = "messages"
	ScreenProperties    ScreenKind = "properties"
	ScreenContacts      ScreenKind = "contacts"
)

func ParseScreenKind(s string) (ScreenKind, error) {
	switch ScreenKind(s) {
	case ScreenComplaints, ScreenFixRequests, ScreenConversations, ScreenMessages, ScreenProperties, ScreenContacts:
		return ScreenKind(s), nil
	}
	return "", errors.BadRequest(fmt.Sprintf("unknown screen %q", s), nil)
}

// Screen is one live list bound to a client view.
type Screen interface {
	Activate(ctx context.Context, userID string) error
	Deactivate()
	State() livesync.State
}

// ScreenOptions carries the per-screen arguments. PeerID is required for
// the messages screen.
type ScreenOptions struct {
	PeerID string
}

type ScreenUseCase struct {
	store    docstore.DocumentStore
	fetcher  *livesync.BatchedFetcher
	resolver *RoleResolver
	profiles livesync.ProfileLookup
}

func NewScreenUseCase(
	store docstore.DocumentStore,
	fetcher *livesync.BatchedFetcher,
	resolver *RoleResolver,
	profiles livesync.ProfileLookup,
) *ScreenUseCase {
	return &ScreenUseCase{
		store:    store,
		fetcher:  fetcher,
		resolver: resolver,
		profiles: profiles,
	}
}

// Open builds the screen. Nothing is attached until Activate. publish gets
// the full list of the screen's item type on every change.
func (uc *ScreenUseCase) Open(kind ScreenKind, opts ScreenOptions, publish func(items interface{})) (Screen, error) {
	switch kind {
	case ScreenComplaints:
		return uc.ticketScreen(entity.KindComplaint, publish), nil
	case ScreenFixRequests:
		return uc.ticketScreen(entity.KindFixRequest, publish), nil
	case ScreenConversations:
		return livesync.NewConversationOverview(
			uc.store,
			uc.fetcher,
			func(_ context.Context, userID string) (docstore.ScopedQuery, error) {
				return ConversationQuery(userID), nil
			},
			uc.profiles,
			func(tiles []entity.ConversationTile) { publish(tiles) },
		), nil
	case ScreenMessages:
		if opts.PeerID == "" {
			return nil, errors.BadRequest("peer_id is required for the messages screen", nil)
		}
		peerID := opts.PeerID
		return livesync.NewSynchronizer(
			string(kind),
			uc.store,
			uc.fetcher,
			func(_ context.Context, userID string) (docstore.ScopedQuery, error) {
				if userID == peerID {
					return docstore.ScopedQuery{}, errors.BadRequest("cannot open a conversation with yourself", nil)
				}
				return MessageQuery(userID, peerID), nil
			},
			func(doc docstore.Document) (entity.Message, bool) {
				return entity.MessageFromDocument(doc), true
			},
			func(msgs []entity.Message) { publish(msgs) },
		), nil
	case ScreenProperties:
		return livesync.NewSynchronizer(
			string(kind),
			uc.store,
			uc.fetcher,
			func(_ context.Context, userID string) (docstore.ScopedQuery, error) {
				return PropertyQuery(userID), nil
			},
			func(doc docstore.Document) (entity.Property, bool) {
				return entity.PropertyFromDocument(doc), true
			},
			func(props []entity.Property) { publish(props) },
		), nil
	case ScreenContacts:
		return uc.contactScreen(publish), nil
	}
	return nil, errors.BadRequest(fmt.Sprintf("unknown screen %q", kind), nil)
}

func (uc *ScreenUseCase) ticketScreen(kind entity.TicketKind, publish func(items interface{})) Screen {
	return livesync.NewSynchronizer(
		string(kind),
		uc.store,
		uc.fetcher,
		uc.TicketPlan(kind),
		func(doc docstore.Document) (entity.Ticket, bool) {
			return entity.TicketFromDocument(kind, doc), true
		},
		func(tickets []entity.Ticket) { publish(tickets) },
	)
}

// TicketPlan resolves scope then builds the ticket query, on every call.
func (uc *ScreenUseCase) TicketPlan(kind entity.TicketKind) livesync.PlanFunc {
	return func(ctx context.Context, userID string) (docstore.ScopedQuery, error) {
		scope := uc.resolver.Resolve(ctx, userID)
		return TicketQuery(scope, kind), nil
	}
}
