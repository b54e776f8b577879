package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lumisync/internal/domain/entity"
	"lumisync/internal/domain/repository"
	"lumisync/internal/domain/service"
	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/pkg/errors"
	"lumisync/pkg/logger"
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	propertyRepo     repository.PropertyRepository
	resolver         *RoleResolver
	rateLimiter      *ratelimit.RateLimiter
	now              func() time.Time
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	propertyRepo repository.PropertyRepository,
	resolver *RoleResolver,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		propertyRepo:     propertyRepo,
		resolver:         resolver,
		rateLimiter:      rateLimiter,
		now:              time.Now,
	}
}

type SendMessageInput struct {
	ReceiverID string
	Text       string
	PropertyID string
}

// SendMessage upserts the shared conversation summary and then appends the
// message. Both sides derive the same conversation id, so whoever writes
// first creates the record and later writes merge into it.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, errors.BadRequest("message text is required", nil)
	}
	if input.ReceiverID == "" || input.ReceiverID == senderID {
		return nil, errors.BadRequest("a distinct receiver is required", nil)
	}
	if uc.rateLimiter != nil {
		if ok, wait := uc.rateLimiter.Allow(senderID, ratelimit.ActionSendMessage); !ok {
			logger.Info("SendMessage rate limited: user %s must wait %v", senderID, wait)
			return nil, errors.TooManyRequests(fmt.Sprintf("too many messages, retry in %s", wait.Round(time.Second)))
		}
	}

	now := uc.now()
	conversation := &entity.Conversation{
		ID:              service.ConversationID(senderID, input.ReceiverID),
		Participants:    service.SortedParticipants(senderID, input.ReceiverID),
		LastMessageText: text,
		LastMessageAt:   now,
		LastSenderID:    senderID,
		PropertyID:      input.PropertyID,
	}
	if err := uc.conversationRepo.Upsert(ctx, conversation); err != nil {
		return nil, err
	}

	message := &entity.Message{
		Text:       text,
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		CreatedAt:  now,
	}
	if err := uc.conversationRepo.AddMessage(ctx, conversation.ID, message); err != nil {
		return nil, err
	}

	logger.Debug("Message %s added to %s", message.ID, conversation.ID)
	return message, nil
}

// ConversationWith returns the canonical conversation between two users.
// A conversation nobody has written to yet is returned unsaved.
func (uc *ChatUseCase) ConversationWith(ctx context.Context, userID, peerID string) (*entity.Conversation, error) {
	if peerID == "" || peerID == userID {
		return nil, errors.BadRequest("a distinct peer is required", nil)
	}
	id := service.ConversationID(userID, peerID)
	conversation, err := uc.conversationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return &entity.Conversation{
				ID:           id,
				Participants: service.SortedParticipants(userID, peerID),
			}, nil
		}
		return nil, err
	}
	return conversation, nil
}

type ManagerContact struct {
	Manager        entity.Profile `json:"manager"`
	PropertyID     string         `json:"property_id"`
	PropertyName   string         `json:"property_name"`
	ConversationID string         `json:"conversation_id"`
}

// PropertyManagerFor finds who a renter chats with: the owner of the
// renter's property.
func (uc *ChatUseCase) PropertyManagerFor(ctx context.Context, renterID string) (*ManagerContact, error) {
	scope := uc.resolver.Resolve(ctx, renterID)
	if scope.IsManager() || len(scope.PropertyIDs) == 0 {
		return nil, errors.NotFound("Property assignment", nil)
	}

	property, err := uc.propertyRepo.GetByID(ctx, scope.PropertyIDs[0])
	if err != nil {
		return nil, err
	}
	if property.OwnerID == "" {
		return nil, errors.NotFound("Property manager", nil)
	}

	profile := entity.Profile{UserID: property.OwnerID, Name: entity.FallbackDisplayName}
	if manager, err := uc.userRepo.GetByID(ctx, property.OwnerID); err != nil {
		logger.Warn("Manager profile %s unreadable: %v", property.OwnerID, err)
	} else {
		profile = manager.Profile()
	}

	return &ManagerContact{
		Manager:        profile,
		PropertyID:     property.ID,
		PropertyName:   property.Name,
		ConversationID: service.ConversationID(renterID, property.OwnerID),
	}, nil
}
