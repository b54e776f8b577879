package repository

import (
	"context"

	"lumisync/internal/domain/entity"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// Upsert merge-writes the conversation summary fields.
	Upsert(ctx context.Context, conversation *entity.Conversation) error
	AddMessage(ctx context.Context, conversationID string, message *entity.Message) error
}
