package entity

import (
	"time"

	"lumisync/internal/domain/docstore"
)

type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
	// Seen is stored for future read receipts. No read path uses it.
	Seen bool `json:"seen"`
}

func MessageFromDocument(doc docstore.Document) Message {
	return Message{
		ID:         doc.ID,
		Text:       doc.String("text"),
		SenderID:   doc.String("senderId"),
		ReceiverID: doc.String("receiverId"),
		CreatedAt:  doc.Time("createdAt"),
		Seen:       doc.Bool("seen"),
	}
}

func (m Message) Fields() map[string]interface{} {
	return map[string]interface{}{
		"text":       m.Text,
		"senderId":   m.SenderID,
		"receiverId": m.ReceiverID,
		"createdAt":  m.CreatedAt,
		"seen":       m.Seen,
	}
}
