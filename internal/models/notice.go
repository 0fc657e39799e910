package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventNotice records ambient activity on an event (created, joined).
// Notices are never updated or deleted.
type EventNotice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Text      string    `gorm:"not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func (n *EventNotice) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	return nil
}
