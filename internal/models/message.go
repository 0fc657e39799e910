package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct message between two users. Only IsRead and Deleted
// change after creation.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair" json:"receiver_id"`
	Body       string    `gorm:"not null" json:"body"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	Deleted    bool      `gorm:"default:false" json:"deleted"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ChatSummary is the latest message exchanged with one conversation partner.
type ChatSummary struct {
	PeerID        uuid.UUID `json:"peer_id"`
	LatestMessage Message   `json:"latest_message"`
}
