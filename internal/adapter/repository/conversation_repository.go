package repository

import (
	"context"

	"lumisync/internal/domain/docstore"
	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/pkg/errors"
)

type conversationRepository struct {
	store docstore.DocumentStore
}

func NewConversationRepository(store docstore.DocumentStore) repository.ConversationRepository {
	return &conversationRepository{
		store: store,
	}
}

func (r *conversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionConversations, id)
	if err != nil {
		return nil, err
	}
	conversation := entity.ConversationFromDocument(*doc)
	return &conversation, nil
}

func (r *conversationRepository) Upsert(ctx context.Context, c *entity.Conversation) error {
	fields := map[string]interface{}{
		"participants":    c.Participants,
		"lastMessageText": c.LastMessageText,
		"lastMessageAt":   c.LastMessageAt,
		"lastSenderId":    c.LastSenderID,
	}
	if c.PropertyID != "" {
		fields["propertyId"] = c.PropertyID
	}
	if err := r.store.Set(ctx, docstore.CollectionConversations, c.ID, fields, true); err != nil {
		return errors.WriteFailed("set", docstore.CollectionConversations, err)
	}
	return nil
}

func (r *conversationRepository) AddMessage(ctx context.Context, conversationID string, m *entity.Message) error {
	path := docstore.MessagesPath(conversationID)
	id, err := r.store.Add(ctx, path, m.Fields())
	if err != nil {
		return errors.WriteFailed("add", path, err)
	}
	m.ID = id
	return nil
}
