package entity

import (
	"time"

	"lumisync/internal/domain/docstore"
)

type Conversation struct {
	ID              string    `json:"id"`
	Participants    []string  `json:"participants"`
	LastMessageText string    `json:"last_message_text"`
	LastMessageAt   time.Time `json:"last_message_at"`
	LastSenderID    string    `json:"last_sender_id"`
	PropertyID      string    `json:"property_id,omitempty"`
}

func ConversationFromDocument(doc docstore.Document) Conversation {
	return Conversation{
		ID:              doc.ID,
		Participants:    doc.Strings("participants"),
		LastMessageText: doc.String("lastMessageText"),
		LastMessageAt:   doc.Time("lastMessageAt"),
		LastSenderID:    doc.String("lastSenderId"),
		PropertyID:      doc.String("propertyId"),
	}
}

// OtherParticipant returns the participant that is not userID. It reports
// false for conversations with fewer than two participants or no distinct
// peer.
func (c Conversation) OtherParticipant(userID string) (string, bool) {
	if len(c.Participants) < 2 {
		return "", false
	}
	for _, p := range c.Participants {
		if p != "" && p != userID {
			return p, true
		}
	}
	return "", false
}

// ConversationTile is a derived overview row. It is never persisted.
type ConversationTile struct {
	ConversationID    string    `json:"conversation_id"`
	OtherUserID       string    `json:"other_user_id"`
	OtherUserName     string    `json:"other_user_name"`
	OtherUserPhotoURL string    `json:"other_user_photo_url,omitempty"`
	LastMessageText   string    `json:"last_message_text"`
	LastMessageAt     time.Time `json:"last_message_at"`
	LastSenderID      string    `json:"last_sender_id,omitempty"`
	PropertyID        string    `json:"property_id,omitempty"`
}
