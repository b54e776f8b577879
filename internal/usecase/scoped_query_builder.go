package usecase

import (
	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/service"
)

const (
	fieldCreatedByID   = "createdById"
	fieldCreatedAt     = "createdAt"
	fieldPropertyID    = "propertyId"
	fieldParticipants  = "participants"
	fieldLastMessageAt = "lastMessageAt"
	fieldOwnerUID      = "ownerUid"
	fieldName          = "name"
)

// TicketQuery builds what a ticket list screen reads for scope.
//
// Renters, and anyone without the manager role, see what they authored.
// A manager with an active property reads that property by equality, which
// needs no batching; otherwise the whole managed set becomes an IN clause.
func TicketQuery(scope entity.Scope, kind entity.TicketKind) docstore.ScopedQuery {
	order := &docstore.OrderBy{Field: fieldCreatedAt, Direction: docstore.Desc}

	if !scope.IsManager() {
		return AuthorOwnedQuery(scope.UserID, kind)
	}
	if scope.ActivePropertyID != "" {
		return docstore.ScopedQuery{
			Collection: kind.Collection(),
			Filters:    []docstore.Filter{docstore.Eq(fieldPropertyID, scope.ActivePropertyID)},
			OrderBy:    order,
		}
	}
	return docstore.ScopedQuery{
		Collection: kind.Collection(),
		In: &docstore.InClause{
			Field:  fieldPropertyID,
			Values: append([]string(nil), scope.PropertyIDs...),
		},
		OrderBy: order,
	}
}

func AuthorOwnedQuery(userID string, kind entity.TicketKind) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: kind.Collection(),
		Filters:    []docstore.Filter{docstore.Eq(fieldCreatedByID, userID)},
		OrderBy:    &docstore.OrderBy{Field: fieldCreatedAt, Direction: docstore.Desc},
	}
}

// ConversationQuery lists the user's conversations, most recent first.
func ConversationQuery(userID string) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionConversations,
		Filters:    []docstore.Filter{docstore.ArrayContains(fieldParticipants, userID)},
		OrderBy:    &docstore.OrderBy{Field: fieldLastMessageAt, Direction: docstore.Desc},
	}
}

// MessageQuery reads the thread between userID and peerID in send order.
func MessageQuery(userID, peerID string) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.MessagesPath(service.ConversationID(userID, peerID)),
		OrderBy:    &docstore.OrderBy{Field: fieldCreatedAt, Direction: docstore.Asc},
	}
}

// PropertyQuery lists the properties userID owns, by name.
func PropertyQuery(userID string) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionProperties,
		Filters:    []docstore.Filter{docstore.Eq(fieldOwnerUID, userID)},
		OrderBy:    &docstore.OrderBy{Field: fieldName, Direction: docstore.Asc},
	}
}

// ContactQuery lists the custom contacts, newest first. The collection is
// shared by every manager.
func ContactQuery() docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionContacts,
		OrderBy:    &docstore.OrderBy{Field: fieldCreatedAt, Direction: docstore.Desc},
	}
}

// RenterQuery reads the tenancies of every property in scope.
func RenterQuery(scope entity.Scope) docstore.ScopedQuery {
	return docstore.ScopedQuery{
		Collection: docstore.CollectionRenters,
		In: &docstore.InClause{
			Field:  fieldPropertyID,
			Values: append([]string(nil), scope.PropertyIDs...),
		},
	}
}
